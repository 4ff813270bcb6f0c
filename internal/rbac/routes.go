// Package rbac maps protected routes to required permissions and decides
// whether a given user may pass.
package rbac

import (
	"strings"

	"github.com/jurisai/jurisai/internal/domain/usermodel"
)

// routePermissions maps a path prefix and method to the permission it needs.
// Longest prefix wins so /auth/roles is checked before /auth.
var routePermissions = map[string]map[string][2]string{
	"/documents": {
		"GET":    {"document", "read"},
		"POST":   {"document", "create"},
		"PUT":    {"document", "update"},
		"DELETE": {"document", "delete"},
	},
	"/search": {
		"GET": {"search", "read"},
	},
	"/summarization": {
		"GET":  {"summarization", "read"},
		"POST": {"summarization", "create"},
	},
	"/agents": {
		"GET":    {"agent", "read"},
		"POST":   {"agent", "create"},
		"DELETE": {"agent", "delete"},
	},
	"/features": {
		"GET":    {"feature_flag", "read"},
		"POST":   {"feature_flag", "create"},
		"PUT":    {"feature_flag", "update"},
		"DELETE": {"feature_flag", "delete"},
	},
	"/auth/users": {
		"GET":    {"user", "read"},
		"POST":   {"user", "create"},
		"PUT":    {"user", "update"},
		"DELETE": {"user", "delete"},
	},
	"/auth/roles": {
		"GET":    {"role", "read"},
		"POST":   {"role", "create"},
		"PUT":    {"role", "update"},
		"DELETE": {"role", "delete"},
	},
	"/auth/permissions": {
		"GET":    {"role", "read"},
		"POST":   {"role", "create"},
		"DELETE": {"role", "delete"},
	},
}

// openRoutes skip authentication and permission checks entirely.
var openRoutes = []string{
	"/health",
	"/metrics",
	"/swagger",
	"/auth/login",
	"/auth/register",
}

func IsOpenRoute(path string) bool {
	if path == "/" {
		return true
	}
	for _, prefix := range openRoutes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// RequiredPermission returns the (resource, action) a route needs, or
// ok=false when the route has no mapping.
func RequiredPermission(path, method string) (resource, action string, ok bool) {
	bestLen := -1
	var best [2]string
	for prefix, methods := range routePermissions {
		if !strings.HasPrefix(path, prefix) || len(prefix) <= bestLen {
			continue
		}
		if perm, found := methods[method]; found {
			best = perm
			bestLen = len(prefix)
		}
	}
	if bestLen < 0 {
		return "", "", false
	}
	return best[0], best[1], true
}

// Allowed decides whether user may call method on path. Admins bypass all
// checks; routes without a mapping pass through, matching the behaviour the
// permission middleware has always had.
func Allowed(user usermodel.User, path, method string) bool {
	if user.IsAdmin() {
		return true
	}
	resource, action, ok := RequiredPermission(path, method)
	if !ok {
		return true
	}
	return user.HasPermission(resource, action)
}
