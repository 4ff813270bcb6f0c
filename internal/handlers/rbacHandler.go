package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/jurisai/jurisai/internal/api"
	"github.com/jurisai/jurisai/internal/data/postgres"
	"github.com/jurisai/jurisai/internal/domain/usermodel"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

// RBACStore is the role and permission administration surface.
type RBACStore interface {
	CreateRole(ctx context.Context, name, description string, isDefault bool, permissionIds []int64) (usermodel.Role, error)
	GetRole(ctx context.Context, id int64) (usermodel.Role, error)
	ListRoles(ctx context.Context, offset, limit int) ([]usermodel.Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string, isDefault *bool, permissionIds []int64) (usermodel.Role, error)
	DeleteRole(ctx context.Context, id int64) error
	CreatePermission(ctx context.Context, name, description, resource, action string) (usermodel.Permission, error)
	ListPermissions(ctx context.Context, offset, limit int) ([]usermodel.Permission, error)
	DeletePermission(ctx context.Context, id int64) error
	AssignRole(ctx context.Context, userId, roleId int64) error
	RevokeRole(ctx context.Context, userId, roleId int64) error
}

type RBACHandler struct {
	store  RBACStore
	logger *logger_i.Logger
}

func NewRBACHandler(store RBACStore) *RBACHandler {
	return &RBACHandler{
		store:  store,
		logger: logger_i.NewLogger("RBACHandler"),
	}
}

// CreateRole godoc
// @Summary      Create a role
// @Tags         RBAC
// @Accept       json
// @Produce      json
// @Param        request  body      api.CreateRoleRequest  true  "Role definition"
// @Success      201      {object}  usermodel.Role
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /auth/roles [post]
func (h *RBACHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req api.CreateRoleRequest
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "role name is required")
		return
	}

	role, err := h.store.CreateRole(r.Context(), req.Name, req.Description, req.IsDefault, req.PermissionIds)
	if err != nil {
		h.writeStoreError(w, err, "role")
		return
	}
	writeJsonResponse(w, http.StatusCreated, role)
}

// ListRoles godoc
// @Summary      List roles
// @Tags         RBAC
// @Produce      json
// @Param        offset  query  int  false  "Pagination offset"
// @Param        limit   query  int  false  "Page size"
// @Success      200  {array}  usermodel.Role
// @Router       /auth/roles [get]
func (h *RBACHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.store.ListRoles(r.Context(), queryInt(r, "offset", 0), queryInt(r, "limit", 50))
	if err != nil {
		h.logger.Error("Failed to list roles", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to list roles")
		return
	}
	writeJsonResponse(w, http.StatusOK, roles)
}

// GetRole godoc
// @Summary      Get one role with its permissions
// @Tags         RBAC
// @Produce      json
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  usermodel.Role
// @Failure      404  {object}  api.ErrorResponse
// @Router       /auth/roles/{id} [get]
func (h *RBACHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid role id")
		return
	}
	role, err := h.store.GetRole(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "role")
		return
	}
	writeJsonResponse(w, http.StatusOK, role)
}

// UpdateRole godoc
// @Summary      Update a role
// @Tags         RBAC
// @Accept       json
// @Produce      json
// @Param        id       path      int                    true  "Role ID"
// @Param        request  body      api.UpdateRoleRequest  true  "Fields to change"
// @Success      200      {object}  usermodel.Role
// @Failure      404      {object}  api.ErrorResponse
// @Router       /auth/roles/{id} [put]
func (h *RBACHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid role id")
		return
	}
	var req api.UpdateRoleRequest
	if err := decodeBody(r, &req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "bad request")
		return
	}
	role, err := h.store.UpdateRole(r.Context(), id, req.Name, req.Description, req.IsDefault, req.PermissionIds)
	if err != nil {
		h.writeStoreError(w, err, "role")
		return
	}
	writeJsonResponse(w, http.StatusOK, role)
}

// DeleteRole godoc
// @Summary      Delete a role
// @Tags         RBAC
// @Param        id  path  int  true  "Role ID"
// @Success      204  "Role deleted"
// @Failure      404  {object}  api.ErrorResponse
// @Router       /auth/roles/{id} [delete]
func (h *RBACHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid role id")
		return
	}
	if err := h.store.DeleteRole(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "role")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreatePermission godoc
// @Summary      Create a permission
// @Tags         RBAC
// @Accept       json
// @Produce      json
// @Param        request  body      api.CreatePermissionRequest  true  "Permission definition"
// @Success      201      {object}  usermodel.Permission
// @Failure      400      {object}  api.ErrorResponse
// @Router       /auth/permissions [post]
func (h *RBACHandler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var req api.CreatePermissionRequest
	if err := decodeBody(r, &req); err != nil || req.Name == "" || req.Resource == "" || req.Action == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "name, resource and action are required")
		return
	}
	perm, err := h.store.CreatePermission(r.Context(), req.Name, req.Description, req.Resource, req.Action)
	if err != nil {
		h.writeStoreError(w, err, "permission")
		return
	}
	writeJsonResponse(w, http.StatusCreated, perm)
}

// ListPermissions godoc
// @Summary      List permissions
// @Tags         RBAC
// @Produce      json
// @Success      200  {array}  usermodel.Permission
// @Router       /auth/permissions [get]
func (h *RBACHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.store.ListPermissions(r.Context(), queryInt(r, "offset", 0), queryInt(r, "limit", 100))
	if err != nil {
		h.logger.Error("Failed to list permissions", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to list permissions")
		return
	}
	writeJsonResponse(w, http.StatusOK, perms)
}

// DeletePermission godoc
// @Summary      Delete a permission
// @Tags         RBAC
// @Param        id  path  int  true  "Permission ID"
// @Success      204  "Permission deleted"
// @Failure      404  {object}  api.ErrorResponse
// @Router       /auth/permissions/{id} [delete]
func (h *RBACHandler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid permission id")
		return
	}
	if err := h.store.DeletePermission(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "permission")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignRole godoc
// @Summary      Assign a role to a user
// @Tags         RBAC
// @Accept       json
// @Param        request  body  api.AssignRoleRequest  true  "User and role"
// @Success      204  "Role assigned"
// @Failure      404  {object}  api.ErrorResponse
// @Router       /auth/roles/assign [post]
func (h *RBACHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	h.changeAssignment(w, r, h.store.AssignRole)
}

// RevokeRole godoc
// @Summary      Revoke a role from a user
// @Tags         RBAC
// @Accept       json
// @Param        request  body  api.AssignRoleRequest  true  "User and role"
// @Success      204  "Role revoked"
// @Failure      404  {object}  api.ErrorResponse
// @Router       /auth/roles/revoke [post]
func (h *RBACHandler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	h.changeAssignment(w, r, h.store.RevokeRole)
}

func (h *RBACHandler) changeAssignment(w http.ResponseWriter, r *http.Request, op func(context.Context, int64, int64) error) {
	var req api.AssignRoleRequest
	if err := decodeBody(r, &req); err != nil || req.UserId == 0 || req.RoleId == 0 {
		WriteErrorResponse(w, http.StatusBadRequest, "user_id and role_id are required")
		return
	}
	if err := op(r.Context(), req.UserId, req.RoleId); err != nil {
		h.writeStoreError(w, err, "role assignment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RBACHandler) writeStoreError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, postgres.ErrNotFound):
		WriteErrorResponse(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, postgres.ErrDuplicate):
		WriteErrorResponse(w, http.StatusConflict, what+" already exists")
	default:
		h.logger.Error("Store operation failed", "what", what, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal error")
	}
}
