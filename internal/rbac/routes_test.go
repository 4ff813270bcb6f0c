package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jurisai/jurisai/internal/domain/usermodel"
)

func userWith(perms ...[2]string) usermodel.User {
	role := usermodel.Role{Name: "reviewer"}
	for _, p := range perms {
		role.Permissions = append(role.Permissions, usermodel.Permission{
			Resource: p[0],
			Action:   p[1],
		})
	}
	return usermodel.User{Role: "user", Roles: []usermodel.Role{role}}
}

func TestOpenRoutes(t *testing.T) {
	for _, path := range []string{"/", "/health", "/health/ready", "/metrics", "/swagger/index.html", "/auth/login", "/auth/register"} {
		assert.True(t, IsOpenRoute(path), path)
	}
	assert.False(t, IsOpenRoute("/documents"))
	assert.False(t, IsOpenRoute("/auth/roles"))
}

func TestRequiredPermission_LongestPrefixWins(t *testing.T) {
	resource, action, ok := RequiredPermission("/auth/roles/3", "DELETE")
	assert.True(t, ok)
	assert.Equal(t, "role", resource)
	assert.Equal(t, "delete", action)

	resource, action, ok = RequiredPermission("/documents/12", "GET")
	assert.True(t, ok)
	assert.Equal(t, "document", resource)
	assert.Equal(t, "read", action)
}

func TestRequiredPermission_Unmapped(t *testing.T) {
	_, _, ok := RequiredPermission("/system/features", "GET")
	assert.False(t, ok)
}

func TestAllowed_AdminBypass(t *testing.T) {
	legacyAdmin := usermodel.User{Role: "admin"}
	assert.True(t, Allowed(legacyAdmin, "/documents", "DELETE"))

	roleAdmin := usermodel.User{
		Role:  "user",
		Roles: []usermodel.Role{{Name: "admin"}},
	}
	assert.True(t, Allowed(roleAdmin, "/auth/roles", "POST"))
}

func TestAllowed_PermissionCheck(t *testing.T) {
	reader := userWith([2]string{"document", "read"})

	assert.True(t, Allowed(reader, "/documents/5", "GET"))
	assert.False(t, Allowed(reader, "/documents", "POST"))
	assert.False(t, Allowed(reader, "/search", "GET"))
}

func TestAllowed_UnmappedRoutePassesThrough(t *testing.T) {
	nobody := usermodel.User{Role: "user"}
	assert.True(t, Allowed(nobody, "/system/features", "GET"))
}
