package usermodel

import "time"

// Legacy single-role values kept on the users table. Full RBAC lives in the
// roles/permissions tables; "admin" here still grants everything.
const (
	LegacyRoleAdmin = "admin"
	LegacyRoleUser  = "user"
)

type User struct {
	Id             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Role           string    `json:"role"`
	Roles          []Role    `json:"roles,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user is an admin, either through the legacy
// users.role column or through an RBAC role named "admin".
func (u User) IsAdmin() bool {
	if u.Role == LegacyRoleAdmin {
		return true
	}
	for _, r := range u.Roles {
		if r.Name == LegacyRoleAdmin {
			return true
		}
	}
	return false
}

// HasPermission checks resource:action across all of the user's roles.
func (u User) HasPermission(resource, action string) bool {
	for _, r := range u.Roles {
		for _, p := range r.Permissions {
			if p.Resource == resource && p.Action == action {
				return true
			}
		}
	}
	return false
}

type Role struct {
	Id          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	IsDefault   bool         `json:"is_default"`
	Permissions []Permission `json:"permissions,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type Permission struct {
	Id          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
}

type FeatureFlag struct {
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	IsEnabled   bool           `json:"is_enabled"`
	Config      map[string]any `json:"config,omitempty"`
	CreatedBy   string         `json:"created_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
