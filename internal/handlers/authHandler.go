package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/jurisai/jurisai/internal/adapter"
	"github.com/jurisai/jurisai/internal/api"
	"github.com/jurisai/jurisai/internal/auth"
	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/data/postgres"
	"github.com/jurisai/jurisai/internal/domain/usermodel"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

// UserStore is the slice of the user store the auth endpoints need.
type UserStore interface {
	Create(ctx context.Context, name, email, hashedPassword string) (usermodel.User, error)
	GetByEmail(ctx context.Context, email string) (usermodel.User, error)
	GetByID(ctx context.Context, id int64) (usermodel.User, error)
	UpdateProfile(ctx context.Context, id int64, name, email string) (usermodel.User, error)
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error
	SetLegacyRole(ctx context.Context, id int64, role string) error
	List(ctx context.Context, offset, limit int) ([]usermodel.User, error)
}

// RoleAssigner hands new users their default roles.
type RoleAssigner interface {
	DefaultRoles(ctx context.Context) ([]usermodel.Role, error)
	AssignRole(ctx context.Context, userId, roleId int64) error
}

type AuthHandler struct {
	users           UserStore
	roles           RoleAssigner
	tokens          *auth.TokenIssuer
	adminSetupToken string
	logger          *logger_i.Logger
}

func NewAuthHandler(users UserStore, roles RoleAssigner, tokens *auth.TokenIssuer, adminSetupToken string) *AuthHandler {
	return &AuthHandler{
		users:           users,
		roles:           roles,
		tokens:          tokens,
		adminSetupToken: adminSetupToken,
		logger:          logger_i.NewLogger("AuthHandler"),
	}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates an account, hashes the password, and assigns default roles.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      api.RegisterRequest  true  "Name, email and password"
// @Success      201      {object}  api.UserResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse  "Email already registered"
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := decodeBody(r, &req); err != nil || req.Name == "" || req.Email == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Create(r.Context(), req.Name, req.Email, hashed)
	if err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			WriteErrorResponse(w, http.StatusConflict, "email already registered")
			return
		}
		h.logger.Error("Failed to create user", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	h.assignDefaultRoles(r.Context(), user.Id)
	writeJsonResponse(w, http.StatusCreated, adapter.ToUserResponse(user))
}

// Login godoc
// @Summary      Log in
// @Description  Verifies credentials and returns a bearer token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      api.LoginRequest  true  "Email and password"
// @Success      200      {object}  api.TokenResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decodeBody(r, &req); err != nil || req.Email == "" || req.Password == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil || !auth.VerifyPassword(req.Password, user.HashedPassword) {
		// Same response for bad email and bad password.
		WriteErrorResponse(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.Id)
	if err != nil {
		h.logger.Error("Failed to issue token", "userId", user.Id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJsonResponse(w, http.StatusOK, api.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(config.AccessTokenLifetime.Seconds()),
	})
}

// Me godoc
// @Summary      Get the authenticated user
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  api.UserResponse
// @Failure      401  {object}  api.ErrorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		WriteErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToUserResponse(user))
}

// UpdateMe godoc
// @Summary      Update the authenticated user's profile
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      api.UpdateProfileRequest  true  "Fields to change"
// @Success      200      {object}  api.UserResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/me [put]
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		WriteErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req api.UpdateProfileRequest
	if err := decodeBody(r, &req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "bad request")
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), user.Id, req.Name, req.Email)
	if err != nil {
		h.logger.Error("Failed to update profile", "userId", user.Id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToUserResponse(updated))
}

// ChangePassword godoc
// @Summary      Change the authenticated user's password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body  api.ChangePasswordRequest  true  "Current and new password"
// @Success      204  "Password changed"
// @Failure      401  {object}  api.ErrorResponse
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		WriteErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req api.ChangePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "bad request")
		return
	}
	if !auth.VerifyPassword(req.CurrentPassword, user.HashedPassword) {
		WriteErrorResponse(w, http.StatusUnauthorized, "current password is wrong")
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.users.UpdatePassword(r.Context(), user.Id, hashed); err != nil {
		h.logger.Error("Failed to update password", "userId", user.Id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to update password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUsers godoc
// @Summary      List users
// @Tags         Auth
// @Produce      json
// @Param        offset  query  int  false  "Pagination offset"
// @Param        limit   query  int  false  "Page size"
// @Success      200  {array}   api.UserResponse
// @Failure      403  {object}  api.ErrorResponse
// @Router       /auth/users [get]
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), queryInt(r, "offset", 0), queryInt(r, "limit", 50))
	if err != nil {
		h.logger.Error("Failed to list users", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	out := make([]api.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, adapter.ToUserResponse(u))
	}
	writeJsonResponse(w, http.StatusOK, out)
}

// MakeAdmin godoc
// @Summary      One-shot admin bootstrap
// @Description  Promotes the caller to admin when the setup token matches. Disabled when no token is configured.
// @Tags         Auth
// @Produce      json
// @Param        X-Setup-Token  header  string  true  "Admin setup token"
// @Success      200  {object}  api.UserResponse
// @Failure      403  {object}  api.ErrorResponse
// @Router       /admin/self/make-admin [post]
func (h *AuthHandler) MakeAdmin(w http.ResponseWriter, r *http.Request) {
	if h.adminSetupToken == "" {
		WriteErrorResponse(w, http.StatusNotFound, "admin bootstrap is disabled")
		return
	}
	user, ok := currentUser(r)
	if !ok {
		WriteErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if r.Header.Get("X-Setup-Token") != h.adminSetupToken {
		h.logger.Warn("Admin bootstrap attempted with a bad token", "userId", user.Id)
		WriteErrorResponse(w, http.StatusForbidden, "invalid setup token")
		return
	}

	if err := h.users.SetLegacyRole(r.Context(), user.Id, usermodel.LegacyRoleAdmin); err != nil {
		h.logger.Error("Failed to promote user", "userId", user.Id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to promote user")
		return
	}

	user.Role = usermodel.LegacyRoleAdmin
	h.logger.Info("Admin bootstrap completed", "userId", user.Id)
	writeJsonResponse(w, http.StatusOK, adapter.ToUserResponse(user))
}

func (h *AuthHandler) assignDefaultRoles(ctx context.Context, userId int64) {
	roles, err := h.roles.DefaultRoles(ctx)
	if err != nil {
		h.logger.Error("Failed to load default roles", "error", err)
		return
	}
	for _, role := range roles {
		if err := h.roles.AssignRole(ctx, userId, role.Id); err != nil {
			h.logger.Error("Failed to assign default role", "userId", userId, "roleId", role.Id, "error", err)
		}
	}
}
