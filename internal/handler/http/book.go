package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/HadesXChaos/WebBookRate/internal/repository"
	"github.com/HadesXChaos/WebBookRate/internal/service"
	"github.com/HadesXChaos/WebBookRate/pkg/httputil"
	"github.com/HadesXChaos/WebBookRate/pkg/pagination"
	"github.com/HadesXChaos/WebBookRate/pkg/validator"
)

// BookHandler handles HTTP requests for book endpoints.
type BookHandler struct {
	service *service.BookService
	logger  *slog.Logger
}

// NewBookHandler creates a new book HTTP handler.
func NewBookHandler(svc *service.BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateBookRequest is the JSON request body for creating a book.
type CreateBookRequest struct {
	AuthorID      string   `json:"author_id" validate:"required,uuid"`
	PublisherID   *string  `json:"publisher_id,omitempty" validate:"omitempty,uuid"`
	Title         string   `json:"title" validate:"required,min=1,max=512"`
	Language      string   `json:"language" validate:"omitempty,max=16"`
	PublishedYear *int     `json:"published_year,omitempty"`
	Pages         *int     `json:"pages,omitempty" validate:"omitempty,min=1"`
	ISBN10        string   `json:"isbn10" validate:"omitempty,len=10"`
	ISBN13        string   `json:"isbn13" validate:"omitempty,len=13"`
	CoverURL      string   `json:"cover_url" validate:"omitempty,url"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags" validate:"max=20,dive,min=1,max=64"`
}

// UpdateBookRequest is the JSON request body for updating a book.
// Absent fields are left unchanged.
type UpdateBookRequest struct {
	AuthorID      *string  `json:"author_id,omitempty" validate:"omitempty,uuid"`
	PublisherID   *string  `json:"publisher_id,omitempty" validate:"omitempty,uuid"`
	Title         *string  `json:"title,omitempty" validate:"omitempty,min=1,max=512"`
	Language      *string  `json:"language,omitempty" validate:"omitempty,max=16"`
	PublishedYear *int     `json:"published_year,omitempty"`
	Pages         *int     `json:"pages,omitempty" validate:"omitempty,min=1"`
	ISBN10        *string  `json:"isbn10,omitempty" validate:"omitempty,len=10"`
	ISBN13        *string  `json:"isbn13,omitempty" validate:"omitempty,len=13"`
	CoverURL      *string  `json:"cover_url,omitempty" validate:"omitempty,url"`
	Description   *string  `json:"description,omitempty"`
	Tags          []string `json:"tags,omitempty" validate:"max=20,dive,min=1,max=64"`
}

// --- Handlers ---

// ListBooks handles GET /api/v1/books
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	filter := repository.BookFilter{
		Page:    params.Page,
		PerPage: params.PerPage,
	}
	q := r.URL.Query()
	if v := q.Get("author_id"); v != "" {
		filter.AuthorID = &v
	}
	if v := q.Get("tag"); v != "" {
		filter.Tag = &v
	}
	if v := q.Get("language"); v != "" {
		filter.Language = &v
	}

	books, total, err := h.service.ListBooks(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(books, total, params.Page, params.PerPage))
}

// GetBook handles GET /api/v1/books/{idOrSlug}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	idOrSlug := chi.URLParam(r, "idOrSlug")
	if idOrSlug == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "book id or slug is required"},
		})
		return
	}

	var err error
	var book any
	if _, uuidErr := uuid.Parse(idOrSlug); uuidErr == nil {
		book, err = h.service.GetBook(r.Context(), idOrSlug)
	} else {
		book, err = h.service.GetBookBySlug(r.Context(), idOrSlug)
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: book})
}

// CreateBook handles POST /api/v1/books
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateBookRequest
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

	input := &service.CreateBookInput{
		AuthorID:      req.AuthorID,
		PublisherID:   req.PublisherID,
		Title:         req.Title,
		Language:      req.Language,
		PublishedYear: req.PublishedYear,
		Pages:         req.Pages,
		ISBN10:        req.ISBN10,
		ISBN13:        req.ISBN13,
		CoverURL:      req.CoverURL,
		Description:   req.Description,
		Tags:          req.Tags,
	}

	book, err := h.service.CreateBook(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: book})
}

// UpdateBook handles PUT /api/v1/books/{id}
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateBookRequest
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

	input := &service.UpdateBookInput{
		AuthorID:      req.AuthorID,
		PublisherID:   req.PublisherID,
		Title:         req.Title,
		Language:      req.Language,
		PublishedYear: req.PublishedYear,
		Pages:         req.Pages,
		ISBN10:        req.ISBN10,
		ISBN13:        req.ISBN13,
		CoverURL:      req.CoverURL,
		Description:   req.Description,
		Tags:          req.Tags,
	}

	book, err := h.service.UpdateBook(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: book})
}

// DeleteBook handles DELETE /api/v1/books/{id}
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteBook(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
