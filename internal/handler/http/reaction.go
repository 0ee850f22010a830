package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HadesXChaos/WebBookRate/internal/service"
	"github.com/HadesXChaos/WebBookRate/pkg/httputil"
	"github.com/HadesXChaos/WebBookRate/pkg/middleware"
	"github.com/HadesXChaos/WebBookRate/pkg/validator"
)

// ReactionHandler handles HTTP requests for review reaction endpoints.
type ReactionHandler struct {
	service *service.ReactionService
	logger  *slog.Logger
}

// NewReactionHandler creates a new reaction HTTP handler.
func NewReactionHandler(svc *service.ReactionService, logger *slog.Logger) *ReactionHandler {
	return &ReactionHandler{
		service: svc,
		logger:  logger,
	}
}

// SetReactionRequest is the JSON request body for setting a reaction.
type SetReactionRequest struct {
	Type string `json:"type" validate:"required,oneof=helpful like insightful"`
}

// SetReaction handles PUT /api/v1/reviews/{reviewId}/reaction
// Setting a reaction replaces any previous reaction by the same user.
func (h *ReactionHandler) SetReaction(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "reviewId"))
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SetReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	reaction, err := h.service.SetReaction(r.Context(), userID, reviewID.String(), req.Type)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reaction})
}

// ToggleReaction handles POST /api/v1/reviews/{reviewId}/reaction/toggle
// A repeated toggle with the same type removes the reaction; the
// response data is null in that case.
func (h *ReactionHandler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "reviewId"))
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SetReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	reaction, err := h.service.ToggleReaction(r.Context(), userID, reviewID.String(), req.Type)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reaction})
}

// GetReaction handles GET /api/v1/reviews/{reviewId}/reaction
func (h *ReactionHandler) GetReaction(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "reviewId"))
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	reaction, err := h.service.GetReaction(r.Context(), userID, reviewID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reaction})
}

// RemoveReaction handles DELETE /api/v1/reviews/{reviewId}/reaction
func (h *ReactionHandler) RemoveReaction(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "reviewId"))
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	if err := h.service.RemoveReaction(r.Context(), userID, reviewID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
