package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/api/models"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/api/response"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/directions"
)

// DirectionsService fetches upstream directions and renderable paths.
type DirectionsService interface {
	Directions(ctx context.Context, req directions.Request) (*directions.Result, error)
	Path(ctx context.Context, req directions.Request) *directions.Path
}

// Error texts of the directions proxy. Clients match on them.
const (
	msgMissingParams     = "Missing required parameters: from, to"
	msgKeyNotConfigured  = "Tencent Maps API key not configured"
	msgUpstreamError     = "Tencent Maps API error"
	msgFetchFailed       = "Failed to fetch directions from Tencent Maps API"
	defaultUpstreamError = "Unknown error"
)

// DirectionsHandler handles the directions proxy endpoints.
type DirectionsHandler struct {
	svc    DirectionsService
	logger zerolog.Logger
}

// NewDirectionsHandler creates a new DirectionsHandler.
func NewDirectionsHandler(svc DirectionsService, logger zerolog.Logger) *DirectionsHandler {
	return &DirectionsHandler{svc: svc, logger: logger}
}

// GetDirections handles GET /api/tencent-directions. A successful upstream
// answer is passed through byte for byte.
func (h *DirectionsHandler) GetDirections(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Directions(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}

	response.Raw(w, http.StatusOK, result.Body)
}

// GetPath handles GET /api/tencent-directions/path. It always answers 200
// once the parameters are valid, serving the static path when the upstream
// route cannot be decoded.
func (h *DirectionsHandler) GetPath(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	response.JSON(w, http.StatusOK, models.NewPathResponse(h.svc.Path(r.Context(), req)))
}

func (h *DirectionsHandler) parseRequest(w http.ResponseWriter, r *http.Request) (directions.Request, bool) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		response.Upstream(w, http.StatusBadRequest, response.UpstreamFailure{Error: msgMissingParams})
		return directions.Request{}, false
	}

	var req directions.Request
	var err error
	if req.From, err = directions.ParseCoordinate(from); err == nil {
		if req.To, err = directions.ParseCoordinate(to); err == nil {
			req.Mode, err = directions.ParseMode(q.Get("mode"))
		}
	}
	if err != nil {
		response.Upstream(w, http.StatusBadRequest, response.UpstreamFailure{Error: err.Error()})
		return directions.Request{}, false
	}
	return req, true
}

func (h *DirectionsHandler) fail(w http.ResponseWriter, err error) {
	var de *directions.Error
	switch {
	case errors.Is(err, directions.ErrInvalidRequest):
		response.Upstream(w, http.StatusBadRequest, response.UpstreamFailure{Error: err.Error()})
	case errors.Is(err, directions.ErrMissingCredentials):
		h.logger.Error().Msg("directions requested without a provider key")
		response.Upstream(w, http.StatusInternalServerError, response.UpstreamFailure{Error: msgKeyNotConfigured})
	case errors.Is(err, directions.ErrUpstreamStatus) && errors.As(err, &de):
		message := de.Message
		if message == "" {
			message = defaultUpstreamError
		}
		status := de.Status
		response.Upstream(w, http.StatusBadRequest, response.UpstreamFailure{
			Error:   msgUpstreamError,
			Status:  &status,
			Message: message,
		})
	default:
		h.logger.Error().Err(err).Msg("directions fetch failed")
		response.Upstream(w, http.StatusInternalServerError, response.UpstreamFailure{Error: msgFetchFailed})
	}
}
