package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HadesXChaos/WebBookRate/internal/search"
)

// SearchQuery holds the parameters of a search request. Page numbers
// are 1-indexed.
type SearchQuery struct {
	Query   string
	Page    int
	PerPage int
	Sort    []string
}

// SearchPage is one page of search hits.
type SearchPage struct {
	Hits       []search.Document `json:"hits"`
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
}

// SearchService runs queries against the search indexes.
type SearchService struct {
	client search.Client
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(client search.Client, logger *slog.Logger) *SearchService {
	return &SearchService{
		client: client,
		logger: logger,
	}
}

// SearchBooks queries the book index.
func (s *SearchService) SearchBooks(ctx context.Context, q SearchQuery) (*SearchPage, error) {
	return s.search(ctx, IndexBooks, q)
}

// SearchAuthors queries the author index.
func (s *SearchService) SearchAuthors(ctx context.Context, q SearchQuery) (*SearchPage, error) {
	return s.search(ctx, IndexAuthors, q)
}

// SearchReviews queries the review index.
func (s *SearchService) SearchReviews(ctx context.Context, q SearchQuery) (*SearchPage, error) {
	return s.search(ctx, IndexReviews, q)
}

// search translates the 1-indexed page into a zero-based offset and
// runs the query. An empty query string lists documents in browse mode
// instead of matching everything against an empty term.
func (s *SearchService) search(ctx context.Context, index string, q SearchQuery) (*SearchPage, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = 20
	}
	if q.PerPage > 100 {
		q.PerPage = 100
	}

	opts := search.Options{
		Limit:  q.PerPage,
		Offset: (q.Page - 1) * q.PerPage,
		Sort:   q.Sort,
	}

	var (
		result *search.Result
		err    error
	)
	if q.Query == "" {
		result, err = s.client.GetDocuments(ctx, index, opts)
	} else {
		result, err = s.client.Search(ctx, index, q.Query, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}

	totalPages := result.EstimatedTotal / q.PerPage
	if result.EstimatedTotal%q.PerPage > 0 {
		totalPages++
	}

	s.logger.DebugContext(ctx, "search executed",
		slog.String("index", index),
		slog.String("query", q.Query),
		slog.Int("total", result.EstimatedTotal),
	)

	hits := result.Hits
	if hits == nil {
		hits = []search.Document{}
	}
	return &SearchPage{
		Hits:       hits,
		TotalCount: result.EstimatedTotal,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalPages: totalPages,
	}, nil
}
