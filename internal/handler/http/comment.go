package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HadesXChaos/WebBookRate/internal/auth"
	"github.com/HadesXChaos/WebBookRate/internal/service"
	"github.com/HadesXChaos/WebBookRate/pkg/httputil"
	"github.com/HadesXChaos/WebBookRate/pkg/middleware"
	"github.com/HadesXChaos/WebBookRate/pkg/pagination"
	"github.com/HadesXChaos/WebBookRate/pkg/validator"
)

// CommentHandler handles HTTP requests for comment endpoints.
type CommentHandler struct {
	service *service.CommentService
	logger  *slog.Logger
}

// NewCommentHandler creates a new comment HTTP handler.
func NewCommentHandler(svc *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateCommentRequest is the JSON request body for creating a comment.
type CreateCommentRequest struct {
	BodyMD    string `json:"body_md" validate:"required,min=1"`
	IsSpoiler bool   `json:"is_spoiler"`
}

// UpdateCommentRequest is the JSON request body for updating a comment.
type UpdateCommentRequest struct {
	BodyMD    string `json:"body_md" validate:"required,min=1"`
	IsSpoiler *bool  `json:"is_spoiler,omitempty"`
}

// ListComments handles GET /api/v1/reviews/{reviewId}/comments
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "reviewId"))
	if !ok {
		return
	}

	params := pagination.FromRequest(r)

	comments, total, err := h.service.ListComments(r.Context(), reviewID.String(), params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(comments, total, params.Page, params.PerPage))
}

// CreateComment handles POST /api/v1/reviews/{reviewId}/comments
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "reviewId"))
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateCommentRequest
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

	comment, err := h.service.CreateComment(r.Context(), &service.CreateCommentInput{
		ReviewID:  reviewID.String(),
		UserID:    userID,
		BodyMD:    req.BodyMD,
		IsSpoiler: req.IsSpoiler,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: comment})
}

// UpdateComment handles PUT /api/v1/comments/{id}
func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	actorID := middleware.UserIDFromContext(r.Context())
	isModerator := middleware.RoleFromContext(r.Context()) == auth.RoleModerator

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateCommentRequest
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

	comment, err := h.service.UpdateComment(r.Context(), id.String(), actorID, isModerator, req.BodyMD, req.IsSpoiler)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: comment})
}

// DeleteComment handles DELETE /api/v1/comments/{id}
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	actorID := middleware.UserIDFromContext(r.Context())
	isModerator := middleware.RoleFromContext(r.Context()) == auth.RoleModerator

	if err := h.service.DeleteComment(r.Context(), id.String(), actorID, isModerator); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
