package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/HadesXChaos/WebBookRate/internal/service"
	"github.com/HadesXChaos/WebBookRate/pkg/httputil"
	"github.com/HadesXChaos/WebBookRate/pkg/middleware"
	"github.com/HadesXChaos/WebBookRate/pkg/pagination"
	"github.com/HadesXChaos/WebBookRate/pkg/validator"
)

// ReadingStatusHandler handles HTTP requests for reading status endpoints.
type ReadingStatusHandler struct {
	service *service.ReadingStatusService
	logger  *slog.Logger
}

// NewReadingStatusHandler creates a new reading status HTTP handler.
func NewReadingStatusHandler(svc *service.ReadingStatusService, logger *slog.Logger) *ReadingStatusHandler {
	return &ReadingStatusHandler{
		service: svc,
		logger:  logger,
	}
}

// SetReadingStatusRequest is the JSON request body for setting a
// reading status. Setting again replaces the existing status.
type SetReadingStatusRequest struct {
	Status        string     `json:"status" validate:"required,oneof=want reading read abandoned"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	ProgressPages *int       `json:"progress_pages,omitempty" validate:"omitempty,min=0"`
}

// SetStatus handles PUT /api/v1/books/{bookId}/reading-status
func (h *ReadingStatusHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httputil.ParseUUID(w, chi.URLParam(r, "bookId"))
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SetReadingStatusRequest
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

	status, err := h.service.SetStatus(r.Context(), &service.SetReadingStatusInput{
		UserID:        userID,
		BookID:        bookID.String(),
		Status:        req.Status,
		StartedAt:     req.StartedAt,
		FinishedAt:    req.FinishedAt,
		ProgressPages: req.ProgressPages,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: status})
}

// GetStatus handles GET /api/v1/books/{bookId}/reading-status
func (h *ReadingStatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httputil.ParseUUID(w, chi.URLParam(r, "bookId"))
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	status, err := h.service.GetStatus(r.Context(), userID, bookID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: status})
}

// ListStatuses handles GET /api/v1/users/me/reading-statuses
func (h *ReadingStatusHandler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	params := pagination.FromRequest(r)

	statuses, total, err := h.service.ListStatuses(r.Context(), userID, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(statuses, total, params.Page, params.PerPage))
}

// ClearStatus handles DELETE /api/v1/books/{bookId}/reading-status
func (h *ReadingStatusHandler) ClearStatus(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httputil.ParseUUID(w, chi.URLParam(r, "bookId"))
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	if err := h.service.ClearStatus(r.Context(), userID, bookID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
