package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/HadesXChaos/WebBookRate/internal/service"
	"github.com/HadesXChaos/WebBookRate/pkg/httputil"
	"github.com/HadesXChaos/WebBookRate/pkg/pagination"
)

// SearchHandler handles HTTP requests for search endpoints.
type SearchHandler struct {
	service *service.SearchService
	indexer *service.IndexerService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.SearchService, indexer *service.IndexerService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		indexer: indexer,
		logger:  logger,
	}
}

func searchQueryFromRequest(r *http.Request) service.SearchQuery {
	params := pagination.FromRequest(r)
	q := service.SearchQuery{
		Query:   r.URL.Query().Get("q"),
		Page:    params.Page,
		PerPage: params.PerPage,
	}
	if sort := r.URL.Query().Get("sort"); sort != "" {
		for _, s := range strings.Split(sort, ",") {
			if s = strings.TrimSpace(s); s != "" {
				q.Sort = append(q.Sort, s)
			}
		}
	}
	return q
}

// SearchBooks handles GET /api/v1/search/books
// An empty q browses the index in stored order.
func (h *SearchHandler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.SearchBooks(r.Context(), searchQueryFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// SearchAuthors handles GET /api/v1/search/authors
func (h *SearchHandler) SearchAuthors(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.SearchAuthors(r.Context(), searchQueryFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// SearchReviews handles GET /api/v1/search/reviews
func (h *SearchHandler) SearchReviews(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.SearchReviews(r.Context(), searchQueryFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// reindexStage is the JSON representation of one rebuild stage.
type reindexStage struct {
	Index     string `json:"index"`
	Documents int    `json:"documents"`
	Error     string `json:"error,omitempty"`
}

// Reindex handles POST /api/v1/admin/reindex (moderator only)
// Rebuilds all search indexes from the primary store. Stages run
// independently; a failed stage does not abort the others.
func (h *SearchHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	results := h.indexer.ReindexAll(r.Context())

	stages := make([]reindexStage, 0, len(results))
	failed := false
	for _, res := range results {
		stage := reindexStage{Index: res.Index, Documents: res.Documents}
		if res.Err != nil {
			stage.Error = res.Err.Error()
			failed = true
		}
		stages = append(stages, stage)
	}

	status := http.StatusOK
	if failed {
		status = http.StatusInternalServerError
	}
	httputil.WriteJSON(w, status, map[string]any{"stages": stages})
}
