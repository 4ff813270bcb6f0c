// Package middleware runs every request through trace injection, rate
// limiting, JWT authentication and permission checks before the handler.
package middleware

import (
	"net/http"
	"strconv"

	"github.com/jurisai/jurisai/internal/handlers"
	"github.com/jurisai/jurisai/internal/metrics"
	"github.com/jurisai/jurisai/internal/rbac"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")

	re = injectTrace(re)
	re = rateLimiter(re)
	if re.badRequest.isBadRequest {
		return re
	}

	if rbac.IsOpenRoute(re.req.URL.Path) {
		return re
	}

	re = authenticate(re)
	if re.badRequest.isBadRequest {
		return re
	}
	return authorize(re)
}

func handleBadRequest(re requestResponseStruct) {
	re.logger.Warn("Bad request",
		"httpCode", re.badRequest.httpCode,
		"errorMessage", re.badRequest.errorMessage,
		"IP", re.req.RemoteAddr)
	if re.badRequest.httpCode == http.StatusUnauthorized {
		re.writer.Header().Set("WWW-Authenticate", "Bearer")
	}
	handlers.WriteErrorResponse(re.writer, re.badRequest.httpCode, re.badRequest.errorMessage)
}
