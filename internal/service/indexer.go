package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HadesXChaos/WebBookRate/internal/repository"
	"github.com/HadesXChaos/WebBookRate/internal/search"
)

// Index names.
const (
	IndexBooks   = "bookrate_books"
	IndexAuthors = "bookrate_authors"
	IndexReviews = "bookrate_reviews"
)

// indexBatchSize caps how many documents go to the backend per call
// during a rebuild.
const indexBatchSize = 500

// IndexerService rebuilds and incrementally maintains the search
// indexes from primary-store state. The index is a disposable
// projection: every rebuild produces the same documents for the same
// database state.
type IndexerService struct {
	client  search.Client
	books   repository.BookRepository
	authors repository.AuthorRepository
	reviews repository.ReviewRepository
	logger  *slog.Logger
}

// NewIndexerService creates a new indexer service.
func NewIndexerService(
	client search.Client,
	books repository.BookRepository,
	authors repository.AuthorRepository,
	reviews repository.ReviewRepository,
	logger *slog.Logger,
) *IndexerService {
	return &IndexerService{
		client:  client,
		books:   books,
		authors: authors,
		reviews: reviews,
		logger:  logger,
	}
}

// StageResult reports the outcome of one reindex stage.
type StageResult struct {
	Index     string `json:"index"`
	Documents int    `json:"documents"`
	Err       error  `json:"-"`
}

// ConfigureIndexes declares the attribute sets for every index. The
// calls are idempotent, so this runs on every startup and before every
// rebuild.
func (s *IndexerService) ConfigureIndexes(ctx context.Context) error {
	type indexConfig struct {
		name       string
		searchable []string
		filterable []string
		sortable   []string
	}

	configs := []indexConfig{
		{
			name:       IndexBooks,
			searchable: []string{"title", "author_name", "publisher_name", "description", "tags"},
			filterable: []string{"author_id", "language", "tags", "published_year"},
			sortable:   []string{"title", "avg_rating", "ratings_count", "published_year"},
		},
		{
			name:       IndexAuthors,
			searchable: []string{"name", "bio"},
			filterable: []string{"country"},
			sortable:   []string{"name", "books_count"},
		},
		{
			name:       IndexReviews,
			searchable: []string{"title", "body", "book_title", "author_name"},
			filterable: []string{"book_id", "rating", "is_spoiler"},
			sortable:   []string{"rating", "created_at"},
		},
	}

	for _, cfg := range configs {
		if err := s.client.UpdateSearchableAttributes(ctx, cfg.name, cfg.searchable); err != nil {
			return fmt.Errorf("configure %s searchable attributes: %w", cfg.name, err)
		}
		if err := s.client.UpdateFilterableAttributes(ctx, cfg.name, cfg.filterable); err != nil {
			return fmt.Errorf("configure %s filterable attributes: %w", cfg.name, err)
		}
		if err := s.client.UpdateSortableAttributes(ctx, cfg.name, cfg.sortable); err != nil {
			return fmt.Errorf("configure %s sortable attributes: %w", cfg.name, err)
		}
	}
	return nil
}

// ReindexAll rebuilds every index from the primary store. Stages run
// independently: a failure in one index does not stop the others, and
// each stage's outcome is reported separately.
func (s *IndexerService) ReindexAll(ctx context.Context) []StageResult {
	results := []StageResult{
		{Index: IndexBooks},
		{Index: IndexAuthors},
		{Index: IndexReviews},
	}

	if err := s.ConfigureIndexes(ctx); err != nil {
		for i := range results {
			results[i].Err = err
		}
		return results
	}

	results[0].Documents, results[0].Err = s.rebuildBooks(ctx)
	results[1].Documents, results[1].Err = s.rebuildAuthors(ctx)
	results[2].Documents, results[2].Err = s.rebuildReviews(ctx)

	for _, res := range results {
		if res.Err != nil {
			s.logger.ErrorContext(ctx, "reindex stage failed",
				slog.String("index", res.Index),
				slog.String("error", res.Err.Error()),
			)
			continue
		}
		s.logger.InfoContext(ctx, "reindex stage completed",
			slog.String("index", res.Index),
			slog.Int("documents", res.Documents),
		)
	}
	return results
}

func (s *IndexerService) rebuildBooks(ctx context.Context) (int, error) {
	projections, err := s.books.ListForIndex(ctx)
	if err != nil {
		return 0, fmt.Errorf("load book projections: %w", err)
	}

	docs := make([]search.Document, 0, len(projections))
	for _, p := range projections {
		doc, err := search.NewDocument(p)
		if err != nil {
			return 0, err
		}
		docs = append(docs, doc)
	}
	if err := s.addInBatches(ctx, IndexBooks, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (s *IndexerService) rebuildAuthors(ctx context.Context) (int, error) {
	projections, err := s.authors.ListForIndex(ctx)
	if err != nil {
		return 0, fmt.Errorf("load author projections: %w", err)
	}

	docs := make([]search.Document, 0, len(projections))
	for _, p := range projections {
		doc, err := search.NewDocument(p)
		if err != nil {
			return 0, err
		}
		docs = append(docs, doc)
	}
	if err := s.addInBatches(ctx, IndexAuthors, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (s *IndexerService) rebuildReviews(ctx context.Context) (int, error) {
	projections, err := s.reviews.ListForIndex(ctx)
	if err != nil {
		return 0, fmt.Errorf("load review projections: %w", err)
	}

	docs := make([]search.Document, 0, len(projections))
	for _, p := range projections {
		doc, err := search.NewDocument(p)
		if err != nil {
			return 0, err
		}
		docs = append(docs, doc)
	}
	if err := s.addInBatches(ctx, IndexReviews, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (s *IndexerService) addInBatches(ctx context.Context, index string, docs []search.Document) error {
	for start := 0; start < len(docs); start += indexBatchSize {
		end := start + indexBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		if err := s.client.AddDocuments(ctx, index, docs[start:end]); err != nil {
			return fmt.Errorf("add documents to %s: %w", index, err)
		}
	}
	return nil
}

// IndexBook pushes the current projection of one book into the index.
func (s *IndexerService) IndexBook(ctx context.Context, id string) error {
	projection, err := s.books.GetForIndex(ctx, id)
	if err != nil {
		return fmt.Errorf("load book projection: %w", err)
	}
	doc, err := search.NewDocument(projection)
	if err != nil {
		return err
	}
	if err := s.client.AddDocuments(ctx, IndexBooks, []search.Document{doc}); err != nil {
		return fmt.Errorf("index book %s: %w", id, err)
	}
	return nil
}

// DeleteBookDocument removes a book from the index.
func (s *IndexerService) DeleteBookDocument(ctx context.Context, id string) error {
	if err := s.client.DeleteDocuments(ctx, IndexBooks, []string{id}); err != nil {
		return fmt.Errorf("delete book document %s: %w", id, err)
	}
	return nil
}

// IndexReview pushes the current projection of one published review
// into the index, and refreshes the owning book's document so its
// aggregate fields stay close to the primary store.
func (s *IndexerService) IndexReview(ctx context.Context, id string) error {
	projection, err := s.reviews.GetForIndex(ctx, id)
	if err != nil {
		return fmt.Errorf("load review projection: %w", err)
	}
	doc, err := search.NewDocument(projection)
	if err != nil {
		return err
	}
	if err := s.client.AddDocuments(ctx, IndexReviews, []search.Document{doc}); err != nil {
		return fmt.Errorf("index review %s: %w", id, err)
	}
	return s.IndexBook(ctx, projection.BookID)
}

// DeleteReviewDocument removes a review from the index and refreshes
// the owning book's document.
func (s *IndexerService) DeleteReviewDocument(ctx context.Context, id, bookID string) error {
	if err := s.client.DeleteDocuments(ctx, IndexReviews, []string{id}); err != nil {
		return fmt.Errorf("delete review document %s: %w", id, err)
	}
	if bookID == "" {
		return nil
	}
	return s.IndexBook(ctx, bookID)
}
