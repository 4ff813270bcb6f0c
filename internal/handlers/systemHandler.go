package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jurisai/jurisai/internal/api"
	"github.com/jurisai/jurisai/internal/featureflags"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

// Probe checks one backing service for the readiness endpoint.
type Probe func(ctx context.Context) error

type SystemHandler struct {
	probes map[string]Probe
	flags  *featureflags.Service
	logger *logger_i.Logger
}

func NewSystemHandler(probes map[string]Probe, flags *featureflags.Service) *SystemHandler {
	return &SystemHandler{
		probes: probes,
		flags:  flags,
		logger: logger_i.NewLogger("SystemHandler"),
	}
}

// Health godoc
// @Summary      Liveness check
// @Tags         System
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

// Ready godoc
// @Summary      Readiness check
// @Description  Probes Postgres, Redis and qdrant. Returns 503 when any component is down.
// @Tags         System
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Failure      503  {object}  api.HealthResponse
// @Router       /health/ready [get]
func (h *SystemHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]string, len(h.probes))
	status := "ok"
	httpCode := http.StatusOK
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			h.logger.Warn("Readiness probe failed", "component", name, "error", err)
			components[name] = "down"
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	writeJsonResponse(w, httpCode, api.HealthResponse{Status: status, Components: components})
}

// Features godoc
// @Summary      Report feature flags as the caller sees them
// @Description  Evaluates every flag for the authenticated user, including rollout buckets.
// @Tags         System
// @Produce      json
// @Success      200  {object}  api.FeatureHealthResponse
// @Router       /system/features [get]
func (h *SystemHandler) Features(w http.ResponseWriter, r *http.Request) {
	var userId int64
	if user, ok := currentUser(r); ok {
		userId = user.Id
	}

	flags, err := h.flags.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list flags", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to list features")
		return
	}

	features := make(map[string]bool, len(flags))
	for _, flag := range flags {
		features[flag.Key] = h.flags.IsEnabled(r.Context(), flag.Key, userId)
	}
	writeJsonResponse(w, http.StatusOK, api.FeatureHealthResponse{Features: features})
}
