package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/jurisai/jurisai/internal/adapter"
	"github.com/jurisai/jurisai/internal/adapter/utils"
	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/domain/usermodel"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

var logH = logger_i.NewLogger("Handlers")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logH.Error("Error encoding response: %v", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, message string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(message, httpCode))
}

// decodeBody reads and closes the request body into dest.
func decodeBody(r *http.Request, dest any) error {
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logH.Error("Couldn't close the request body reader :", "error", err)
		}
	}(r.Body)
	return json.NewDecoder(r.Body).Decode(dest)
}

// currentUser pulls the authenticated user the middleware stashed on the
// request context. Missing means the route is open or middleware was skipped.
func currentUser(r *http.Request) (usermodel.User, bool) {
	user, ok := r.Context().Value(config.AUTH_USER_KEY).(usermodel.User)
	return user, ok
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func pathInt64(r *http.Request, name string) (int64, bool) {
	raw := utils.GetChiURLParam(r, name)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
