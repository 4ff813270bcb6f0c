package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/jurisai/jurisai/internal/adapter/utils"
	"github.com/jurisai/jurisai/internal/auth"
	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/domain/usermodel"
	"github.com/jurisai/jurisai/internal/rbac"
)

// UserLoader resolves the user behind a verified token, roles included.
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (usermodel.User, error)
}

var (
	initOnce    sync.Once
	tokenIssuer *auth.TokenIssuer
	userLoader  UserLoader
)

// Init wires the token issuer and user store the auth middleware depends on.
// Must run before the server starts accepting requests.
func Init(tokens *auth.TokenIssuer, users UserLoader) {
	initOnce.Do(func() {
		tokenIssuer = tokens
		userLoader = users
	})
}

func injectTrace(re requestResponseStruct) requestResponseStruct {
	req := re.req
	if req == nil {
		re.badRequest.httpCode = http.StatusBadRequest
		re.badRequest.errorMessage = "request is empty"
		re.badRequest.isBadRequest = true
		return re
	}
	trace := req.Header.Get("X-Trace-Id")
	if trace == "" {
		trace = utils.GetNewUUID()
	}
	re.logger = re.logger.With("traceId", trace)
	ctx := context.WithValue(req.Context(), config.TRACE_ID_KEY, trace)
	req.Header.Set(`X-Trace-Id`, trace)
	re.req = req.WithContext(ctx)
	return re
}

// authenticate verifies the bearer token and loads the full user onto the
// request context for the handlers and the permission check.
func authenticate(re requestResponseStruct) requestResponseStruct {
	token, ok := bearerToken(re.req.Header.Get("Authorization"))
	if !ok {
		return unauthorized(re, "missing bearer token")
	}

	userId, err := tokenIssuer.Verify(token)
	if err != nil {
		re.logger.Warn("Token verification failed", "error", err)
		return unauthorized(re, "invalid or expired token")
	}

	user, err := userLoader.GetByID(re.req.Context(), userId)
	if err != nil {
		re.logger.Warn("Token for unknown user", "userId", userId)
		return unauthorized(re, "invalid or expired token")
	}

	ctx := context.WithValue(re.req.Context(), config.AUTH_USER_KEY, user)
	re.req = re.req.WithContext(ctx)
	return re
}

// authorize applies the route permission map. Admins bypass, unmapped routes
// pass through.
func authorize(re requestResponseStruct) requestResponseStruct {
	user, ok := re.req.Context().Value(config.AUTH_USER_KEY).(usermodel.User)
	if !ok {
		return unauthorized(re, "not authenticated")
	}
	if !rbac.Allowed(user, re.req.URL.Path, re.req.Method) {
		re.logger.Warn("Permission denied", "userId", user.Id, "path", re.req.URL.Path, "method", re.req.Method)
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusForbidden,
			errorMessage: "permission denied",
		}
	}
	return re
}

func rateLimiter(re requestResponseStruct) requestResponseStruct {
	ip, _, err := net.SplitHostPort(re.req.RemoteAddr)
	if err != nil {
		ip = re.req.RemoteAddr
	}

	if !limiterInstance.GetLimiter(ip).Allow() {
		re.logger.Error("Too many requests", "Rate Limiter exceeded", ip)
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusTooManyRequests,
			errorMessage: "rate limit exceeded",
		}
	}
	return re
}

func bearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	return token, token != ""
}

func unauthorized(re requestResponseStruct, message string) requestResponseStruct {
	re.badRequest = failureStruct{
		isBadRequest: true,
		httpCode:     http.StatusUnauthorized,
		errorMessage: message,
	}
	return re
}
