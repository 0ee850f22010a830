package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HadesXChaos/WebBookRate/internal/auth"
	"github.com/HadesXChaos/WebBookRate/internal/domain"
	"github.com/HadesXChaos/WebBookRate/internal/repository"
	"github.com/HadesXChaos/WebBookRate/internal/service"
	"github.com/HadesXChaos/WebBookRate/pkg/httputil"
	"github.com/HadesXChaos/WebBookRate/pkg/middleware"
	"github.com/HadesXChaos/WebBookRate/pkg/pagination"
	"github.com/HadesXChaos/WebBookRate/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for creating a review.
type CreateReviewRequest struct {
	EditionID *string `json:"edition_id,omitempty" validate:"omitempty,uuid"`
	Title     string  `json:"title" validate:"max=255"`
	BodyMD    string  `json:"body_md" validate:"required,min=1"`
	Rating    float64 `json:"rating" validate:"required"`
	IsSpoiler bool    `json:"is_spoiler"`
}

// UpdateReviewRequest is the JSON request body for updating a review.
// Absent fields are left unchanged; status changes are moderator-only.
type UpdateReviewRequest struct {
	Title     *string  `json:"title,omitempty" validate:"omitempty,max=255"`
	BodyMD    *string  `json:"body_md,omitempty" validate:"omitempty,min=1"`
	Rating    *float64 `json:"rating,omitempty"`
	IsSpoiler *bool    `json:"is_spoiler,omitempty"`
	Status    *string  `json:"status,omitempty" validate:"omitempty,oneof=pending published hidden"`
}

// --- Handlers ---

// ListReviews handles GET /api/v1/books/{bookId}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httputil.ParseUUID(w, chi.URLParam(r, "bookId"))
	if !ok {
		return
	}

	params := pagination.FromRequest(r)
	filter := repository.ReviewFilter{
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	q := r.URL.Query()
	filter.IncludeSpoilers = q.Get("include_spoilers") == "true"

	// Non-moderators only ever see published reviews.
	published := domain.ReviewStatusPublished
	filter.Status = &published
	if middleware.RoleFromContext(r.Context()) == auth.RoleModerator {
		if v := q.Get("status"); v != "" {
			if !domain.IsValidReviewStatus(v) {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "unknown review status: " + v},
				})
				return
			}
			filter.Status = &v
		}
	}

	result, err := h.service.ListReviews(r.Context(), bookID.String(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"data":        result.Reviews,
		"summary":     result.Summary,
		"total_count": result.TotalCount,
		"page":        result.Page,
		"per_page":    result.PerPage,
		"total_pages": result.TotalPages,
	})
}

// GetReviewSummary handles GET /api/v1/books/{bookId}/reviews/summary
func (h *ReviewHandler) GetReviewSummary(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httputil.ParseUUID(w, chi.URLParam(r, "bookId"))
	if !ok {
		return
	}

	summary, err := h.service.GetSummary(r.Context(), bookID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}

// GetReview handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := h.service.GetReview(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// CreateReview handles POST /api/v1/books/{bookId}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httputil.ParseUUID(w, chi.URLParam(r, "bookId"))
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateReviewRequest
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

	input := &service.CreateReviewInput{
		BookID:    bookID.String(),
		EditionID: req.EditionID,
		UserID:    userID,
		Title:     req.Title,
		BodyMD:    req.BodyMD,
		Rating:    req.Rating,
		IsSpoiler: req.IsSpoiler,
	}

	review, err := h.service.CreateReview(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// UpdateReview handles PUT /api/v1/reviews/{id}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	actorID := middleware.UserIDFromContext(r.Context())
	isModerator := middleware.RoleFromContext(r.Context()) == auth.RoleModerator

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateReviewRequest
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

	input := &service.UpdateReviewInput{
		Title:     req.Title,
		BodyMD:    req.BodyMD,
		Rating:    req.Rating,
		IsSpoiler: req.IsSpoiler,
		Status:    req.Status,
	}

	review, err := h.service.UpdateReview(r.Context(), id.String(), actorID, isModerator, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// DeleteReview handles DELETE /api/v1/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	actorID := middleware.UserIDFromContext(r.Context())
	isModerator := middleware.RoleFromContext(r.Context()) == auth.RoleModerator

	if err := h.service.DeleteReview(r.Context(), id.String(), actorID, isModerator); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
