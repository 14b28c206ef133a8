// Package handler provides the HTTP handlers of the navigation API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/api/models"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/api/response"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/navigation"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/terrain"
)

// Navigator plans routes between named atlas locations.
type Navigator interface {
	Plan(ctx context.Context, from, to string) (*navigation.Plan, error)
	Preview(ctx context.Context, from, to string) (*navigation.Preview, error)
	Atlas() *terrain.Atlas
	Field() *terrain.Field
}

// Message returned when route synthesis fails unexpectedly.
const msgRouteFailed = "Internal server error while generating route"

// NavigationHandler handles the route synthesis endpoints.
type NavigationHandler struct {
	nav    Navigator
	logger zerolog.Logger
}

// NewNavigationHandler creates a new NavigationHandler.
func NewNavigationHandler(nav Navigator, logger zerolog.Logger) *NavigationHandler {
	return &NavigationHandler{nav: nav, logger: logger}
}

// GetRoute handles GET /api/death-stranding-navigation.
// With format=geojson the route is returned as a FeatureCollection.
func (h *NavigationHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	plan, err := h.nav.Plan(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if q.Get("format") == "geojson" {
		response.GeoJSON(w, http.StatusOK, models.NewNavigationFeatureCollection(plan))
		return
	}
	response.JSON(w, http.StatusOK, models.NewNavigationResponse(plan))
}

// GetPreview handles GET /api/death-stranding-navigation/preview.
func (h *NavigationHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	preview, err := h.nav.Preview(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, models.PreviewResponse{
		Success: true,
		Route:   models.IntPoints(preview.Points),
		Source:  models.PreviewSource,
		From:    preview.From.Name,
		To:      preview.To.Name,
	})
}

// ListLocations handles GET /api/death-stranding-navigation/locations.
func (h *NavigationHandler) ListLocations(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, models.LocationsResponse{
		Success:   true,
		Locations: h.nav.Atlas().Locations(),
		Hazards:   h.nav.Field().Hazards(),
	})
}

func (h *NavigationHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case navigation.IsValidation(err):
		response.BadRequest(w, err.Error())
	case errors.Is(err, context.Canceled):
		response.Fail(w, 499, err.Error())
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("route synthesis failed")
		response.InternalError(w, msgRouteFailed)
	}
}
