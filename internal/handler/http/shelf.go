package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HadesXChaos/WebBookRate/internal/service"
	"github.com/HadesXChaos/WebBookRate/pkg/httputil"
	"github.com/HadesXChaos/WebBookRate/pkg/middleware"
	"github.com/HadesXChaos/WebBookRate/pkg/pagination"
	"github.com/HadesXChaos/WebBookRate/pkg/validator"
)

// BookshelfHandler handles HTTP requests for bookshelf endpoints.
type BookshelfHandler struct {
	service *service.BookshelfService
	logger  *slog.Logger
}

// NewBookshelfHandler creates a new bookshelf HTTP handler.
func NewBookshelfHandler(svc *service.BookshelfService, logger *slog.Logger) *BookshelfHandler {
	return &BookshelfHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateShelfRequest is the JSON request body for creating a shelf.
type CreateShelfRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=128"`
	IsPublic bool   `json:"is_public"`
}

// UpdateShelfRequest is the JSON request body for updating a shelf.
type UpdateShelfRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	IsPublic *bool   `json:"is_public,omitempty"`
}

// AddShelfBookRequest is the JSON request body for adding a book to a shelf.
type AddShelfBookRequest struct {
	BookID string `json:"book_id" validate:"required,uuid"`
	Note   string `json:"note" validate:"max=512"`
}

// CreateShelf handles POST /api/v1/shelves
func (h *BookshelfHandler) CreateShelf(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateShelfRequest
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

	shelf, err := h.service.CreateShelf(r.Context(), userID, req.Name, req.IsPublic)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: shelf})
}

// ListShelves handles GET /api/v1/users/{userId}/shelves
// Private shelves are only visible to their owner.
func (h *BookshelfHandler) ListShelves(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParseUUID(w, chi.URLParam(r, "userId"))
	if !ok {
		return
	}

	viewerID := middleware.UserIDFromContext(r.Context())

	shelves, err := h.service.ListShelves(r.Context(), userID.String(), viewerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: shelves})
}

// GetShelf handles GET /api/v1/shelves/{id}
func (h *BookshelfHandler) GetShelf(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	viewerID := middleware.UserIDFromContext(r.Context())

	shelf, err := h.service.GetShelf(r.Context(), id.String(), viewerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: shelf})
}

// UpdateShelf handles PUT /api/v1/shelves/{id}
func (h *BookshelfHandler) UpdateShelf(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	actorID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateShelfRequest
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

	shelf, err := h.service.UpdateShelf(r.Context(), id.String(), actorID, req.Name, req.IsPublic)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: shelf})
}

// DeleteShelf handles DELETE /api/v1/shelves/{id}
func (h *BookshelfHandler) DeleteShelf(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	actorID := middleware.UserIDFromContext(r.Context())

	if err := h.service.DeleteShelf(r.Context(), id.String(), actorID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListShelfBooks handles GET /api/v1/shelves/{id}/books
func (h *BookshelfHandler) ListShelfBooks(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	viewerID := middleware.UserIDFromContext(r.Context())
	params := pagination.FromRequest(r)

	items, total, err := h.service.ListBooks(r.Context(), id.String(), viewerID, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(items, total, params.Page, params.PerPage))
}

// AddShelfBook handles POST /api/v1/shelves/{id}/books
func (h *BookshelfHandler) AddShelfBook(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	actorID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req AddShelfBookRequest
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

	item, err := h.service.AddBook(r.Context(), id.String(), actorID, req.BookID, req.Note)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: item})
}

// RemoveShelfBook handles DELETE /api/v1/shelves/{id}/books/{bookId}
func (h *BookshelfHandler) RemoveShelfBook(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	bookID, ok := httputil.ParseUUID(w, chi.URLParam(r, "bookId"))
	if !ok {
		return
	}

	actorID := middleware.UserIDFromContext(r.Context())

	if err := h.service.RemoveBook(r.Context(), id.String(), actorID, bookID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
