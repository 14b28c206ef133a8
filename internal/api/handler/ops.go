package handler

import (
	"net/http"
	"time"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/api/models"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/api/response"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	now       func() time.Time
}

// NewOpsHandler creates a new OpsHandler. registry may be nil.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		now:       time.Now,
	}
}

// HealthCheck handles GET /healthz - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /readyz. Upstream outages degrade the status
// but never fail it, since the directions path has a static fallback.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	ready := models.Readiness{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(h.now()),
		Providers: []models.ProviderStatus{},
	}

	for _, ph := range h.registry.Snapshot() {
		if ph.Status() != "healthy" {
			ready.Status = models.HealthStatusDegraded
		}
		ready.Providers = append(ready.Providers, models.ProviderStatus{
			Provider:            ph.Name,
			Status:              ph.Status(),
			Circuit:             ph.State.String(),
			ConsecutiveFailures: ph.Counts.ConsecutiveFailures,
			LastSuccessAt:       timestampPtr(ph.LastSuccessAt),
			LastFailureAt:       timestampPtr(ph.LastFailureAt),
			Message:             ph.LastError,
		})
	}

	response.JSON(w, http.StatusOK, ready)
}

func timestampPtr(t *time.Time) *models.Timestamp {
	if t == nil {
		return nil
	}
	ts := models.Timestamp(*t)
	return &ts
}
