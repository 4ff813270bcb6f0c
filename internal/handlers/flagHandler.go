package handlers

import (
	"errors"
	"net/http"

	"github.com/jurisai/jurisai/internal/adapter/utils"
	"github.com/jurisai/jurisai/internal/api"
	"github.com/jurisai/jurisai/internal/data/postgres"
	"github.com/jurisai/jurisai/internal/domain/usermodel"
	"github.com/jurisai/jurisai/internal/featureflags"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

type FlagHandler struct {
	service *featureflags.Service
	logger  *logger_i.Logger
}

func NewFlagHandler(service *featureflags.Service) *FlagHandler {
	return &FlagHandler{
		service: service,
		logger:  logger_i.NewLogger("FlagHandler"),
	}
}

// Create godoc
// @Summary      Create a feature flag
// @Tags         Features
// @Accept       json
// @Produce      json
// @Param        request  body      api.CreateFlagRequest  true  "Flag definition"
// @Success      201      {object}  usermodel.FeatureFlag
// @Failure      409      {object}  api.ErrorResponse
// @Router       /features [post]
func (h *FlagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.CreateFlagRequest
	if err := decodeBody(r, &req); err != nil || req.Key == "" || req.Name == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "key and name are required")
		return
	}

	flag := usermodel.FeatureFlag{
		Key:         req.Key,
		Name:        req.Name,
		Description: req.Description,
		IsEnabled:   req.IsEnabled,
		Config:      req.Config,
	}
	if user, ok := currentUser(r); ok {
		flag.CreatedBy = user.Email
	}

	created, err := h.service.Create(r.Context(), flag)
	if err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			WriteErrorResponse(w, http.StatusConflict, "flag already exists")
			return
		}
		h.logger.Error("Failed to create flag", "key", req.Key, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to create flag")
		return
	}
	writeJsonResponse(w, http.StatusCreated, created)
}

// List godoc
// @Summary      List feature flags
// @Tags         Features
// @Produce      json
// @Success      200  {array}  usermodel.FeatureFlag
// @Router       /features [get]
func (h *FlagHandler) List(w http.ResponseWriter, r *http.Request) {
	flags, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list flags", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to list flags")
		return
	}
	writeJsonResponse(w, http.StatusOK, flags)
}

// Get godoc
// @Summary      Get a feature flag
// @Tags         Features
// @Produce      json
// @Param        key  path      string  true  "Flag key"
// @Success      200  {object}  usermodel.FeatureFlag
// @Failure      404  {object}  api.ErrorResponse
// @Router       /features/{key} [get]
func (h *FlagHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := utils.GetChiURLParam(r, "key")
	flag, err := h.service.GetFlag(r.Context(), key)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			WriteErrorResponse(w, http.StatusNotFound, "flag not found")
			return
		}
		h.logger.Error("Failed to load flag", "key", key, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to load flag")
		return
	}
	writeJsonResponse(w, http.StatusOK, flag)
}

// Update godoc
// @Summary      Update a feature flag
// @Tags         Features
// @Accept       json
// @Produce      json
// @Param        key      path      string                 true  "Flag key"
// @Param        request  body      api.UpdateFlagRequest  true  "Fields to change"
// @Success      200      {object}  usermodel.FeatureFlag
// @Failure      404      {object}  api.ErrorResponse
// @Router       /features/{key} [put]
func (h *FlagHandler) Update(w http.ResponseWriter, r *http.Request) {
	key := utils.GetChiURLParam(r, "key")
	var req api.UpdateFlagRequest
	if err := decodeBody(r, &req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "bad request")
		return
	}

	flag, err := h.service.Update(r.Context(), key, req.IsEnabled, req.Config)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			WriteErrorResponse(w, http.StatusNotFound, "flag not found")
			return
		}
		h.logger.Error("Failed to update flag", "key", key, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to update flag")
		return
	}
	writeJsonResponse(w, http.StatusOK, flag)
}

// Delete godoc
// @Summary      Delete a feature flag
// @Tags         Features
// @Param        key  path  string  true  "Flag key"
// @Success      204  "Flag deleted"
// @Failure      404  {object}  api.ErrorResponse
// @Router       /features/{key} [delete]
func (h *FlagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := utils.GetChiURLParam(r, "key")
	if err := h.service.Delete(r.Context(), key); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			WriteErrorResponse(w, http.StatusNotFound, "flag not found")
			return
		}
		h.logger.Error("Failed to delete flag", "key", key, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to delete flag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
