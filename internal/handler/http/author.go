package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/HadesXChaos/WebBookRate/internal/service"
	"github.com/HadesXChaos/WebBookRate/pkg/httputil"
	"github.com/HadesXChaos/WebBookRate/pkg/pagination"
	"github.com/HadesXChaos/WebBookRate/pkg/validator"
)

// AuthorHandler handles HTTP requests for author endpoints.
type AuthorHandler struct {
	service *service.AuthorService
	logger  *slog.Logger
}

// NewAuthorHandler creates a new author HTTP handler.
func NewAuthorHandler(svc *service.AuthorService, logger *slog.Logger) *AuthorHandler {
	return &AuthorHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateAuthorRequest is the JSON request body for creating an author.
type CreateAuthorRequest struct {
	Name     string     `json:"name" validate:"required,min=1,max=255"`
	Bio      string     `json:"bio"`
	Country  string     `json:"country" validate:"omitempty,max=64"`
	Birthday *time.Time `json:"birthday,omitempty"`
}

// UpdateAuthorRequest is the JSON request body for updating an author.
type UpdateAuthorRequest struct {
	Name     *string    `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Bio      *string    `json:"bio,omitempty"`
	Country  *string    `json:"country,omitempty" validate:"omitempty,max=64"`
	Birthday *time.Time `json:"birthday,omitempty"`
}

// ListAuthors handles GET /api/v1/authors
func (h *AuthorHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	authors, total, err := h.service.ListAuthors(r.Context(), params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(authors, total, params.Page, params.PerPage))
}

// GetAuthor handles GET /api/v1/authors/{idOrSlug}
func (h *AuthorHandler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	idOrSlug := chi.URLParam(r, "idOrSlug")
	if idOrSlug == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "author id or slug is required"},
		})
		return
	}

	var err error
	var author any
	if _, uuidErr := uuid.Parse(idOrSlug); uuidErr == nil {
		author, err = h.service.GetAuthor(r.Context(), idOrSlug)
	} else {
		author, err = h.service.GetAuthorBySlug(r.Context(), idOrSlug)
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: author})
}

// CreateAuthor handles POST /api/v1/authors
func (h *AuthorHandler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateAuthorRequest
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

	author, err := h.service.CreateAuthor(r.Context(), &service.CreateAuthorInput{
		Name:     req.Name,
		Bio:      req.Bio,
		Country:  req.Country,
		Birthday: req.Birthday,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: author})
}

// UpdateAuthor handles PUT /api/v1/authors/{id}
func (h *AuthorHandler) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateAuthorRequest
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

	author, err := h.service.UpdateAuthor(r.Context(), id.String(), &service.UpdateAuthorInput{
		Name:     req.Name,
		Bio:      req.Bio,
		Country:  req.Country,
		Birthday: req.Birthday,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: author})
}

// DeleteAuthor handles DELETE /api/v1/authors/{id}
func (h *AuthorHandler) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteAuthor(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
