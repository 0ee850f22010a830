package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/HadesXChaos/WebBookRate/internal/domain"
	"github.com/HadesXChaos/WebBookRate/internal/event"
	"github.com/HadesXChaos/WebBookRate/internal/repository"
	apperrors "github.com/HadesXChaos/WebBookRate/pkg/errors"
	"github.com/HadesXChaos/WebBookRate/pkg/slug"
)

// BookCache is the read-through cache over book rows.
type BookCache interface {
	Get(ctx context.Context, id string) (*domain.Book, error)
	Set(ctx context.Context, book *domain.Book) error
	Invalidate(ctx context.Context, id string) error
}

// CreateBookInput holds the parameters for creating a book.
type CreateBookInput struct {
	AuthorID      string
	PublisherID   *string
	Title         string
	Language      string
	PublishedYear *int
	Pages         *int
	ISBN10        string
	ISBN13        string
	CoverURL      string
	Description   string
	Tags          []string
}

// UpdateBookInput holds the mutable book fields. Nil pointers leave
// the field unchanged. Aggregate rating fields are never updatable
// through this path.
type UpdateBookInput struct {
	AuthorID      *string
	PublisherID   *string
	Title         *string
	Language      *string
	PublishedYear *int
	Pages         *int
	ISBN10        *string
	ISBN13        *string
	CoverURL      *string
	Description   *string
	Tags          []string
}

// BookService implements the business logic for book operations.
type BookService struct {
	repo     repository.BookRepository
	authors  repository.AuthorRepository
	cache    BookCache
	producer *event.Producer
	logger   *slog.Logger
}

// NewBookService creates a new book service. cache may be nil when no
// book cache is configured.
func NewBookService(
	repo repository.BookRepository,
	authors repository.AuthorRepository,
	cache BookCache,
	producer *event.Producer,
	logger *slog.Logger,
) *BookService {
	return &BookService{
		repo:     repo,
		authors:  authors,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// CreateBook validates the input and persists a new book with a
// generated slug and zeroed aggregate fields.
func (s *BookService) CreateBook(ctx context.Context, input *CreateBookInput) (*domain.Book, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	if input.AuthorID == "" {
		return nil, apperrors.InvalidInput("author_id is required")
	}

	if _, err := s.authors.GetByID(ctx, input.AuthorID); err != nil {
		return nil, fmt.Errorf("check author: %w", err)
	}

	now := time.Now().UTC()
	book := &domain.Book{
		ID:            uuid.New().String(),
		AuthorID:      input.AuthorID,
		PublisherID:   input.PublisherID,
		Title:         input.Title,
		Slug:          slug.Generate(input.Title),
		Language:      input.Language,
		PublishedYear: input.PublishedYear,
		Pages:         input.Pages,
		ISBN10:        input.ISBN10,
		ISBN13:        input.ISBN13,
		CoverURL:      input.CoverURL,
		Description:   input.Description,
		Tags:          input.Tags,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if book.Tags == nil {
		book.Tags = []string{}
	}

	if err := s.repo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.publishBookEvent(ctx, event.TopicBookCreated, book)

	s.logger.InfoContext(ctx, "book created",
		slog.String("book_id", book.ID),
		slog.String("slug", book.Slug),
	)

	return book, nil
}

// GetBook retrieves a book by ID, consulting the cache first.
func (s *BookService) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	if s.cache != nil {
		if book, err := s.cache.Get(ctx, id); err == nil {
			return book, nil
		}
	}

	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, book); err != nil {
			s.logger.WarnContext(ctx, "failed to cache book",
				slog.String("book_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
	return book, nil
}

// GetBookBySlug retrieves a book by its slug. Slug lookups bypass the
// cache, which is keyed by ID.
func (s *BookService) GetBookBySlug(ctx context.Context, bookSlug string) (*domain.Book, error) {
	book, err := s.repo.GetBySlug(ctx, bookSlug)
	if err != nil {
		return nil, fmt.Errorf("get book by slug: %w", err)
	}
	return book, nil
}

// ListBooks returns books matching the filter along with the total
// count.
func (s *BookService) ListBooks(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	books, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	return books, total, nil
}

// UpdateBook applies the given changes to a book. The slug follows the
// title.
func (s *BookService) UpdateBook(ctx context.Context, id string, input *UpdateBookInput) (*domain.Book, error) {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	if input.AuthorID != nil && *input.AuthorID != book.AuthorID {
		if _, err := s.authors.GetByID(ctx, *input.AuthorID); err != nil {
			return nil, fmt.Errorf("check author: %w", err)
		}
		book.AuthorID = *input.AuthorID
	}
	if input.PublisherID != nil {
		book.PublisherID = input.PublisherID
	}
	if input.Title != nil && *input.Title != book.Title {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("title cannot be empty")
		}
		book.Title = *input.Title
		book.Slug = slug.Generate(*input.Title)
	}
	if input.Language != nil {
		book.Language = *input.Language
	}
	if input.PublishedYear != nil {
		book.PublishedYear = input.PublishedYear
	}
	if input.Pages != nil {
		book.Pages = input.Pages
	}
	if input.ISBN10 != nil {
		book.ISBN10 = *input.ISBN10
	}
	if input.ISBN13 != nil {
		book.ISBN13 = *input.ISBN13
	}
	if input.CoverURL != nil {
		book.CoverURL = *input.CoverURL
	}
	if input.Description != nil {
		book.Description = *input.Description
	}
	if input.Tags != nil {
		book.Tags = input.Tags
	}
	book.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	s.invalidate(ctx, id)
	s.publishBookEvent(ctx, event.TopicBookUpdated, book)

	s.logger.InfoContext(ctx, "book updated",
		slog.String("book_id", book.ID),
	)

	return book, nil
}

// DeleteBook removes a book. Reviews, tags and shelf items go with it.
func (s *BookService) DeleteBook(ctx context.Context, id string) error {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get book: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	s.invalidate(ctx, id)
	s.publishBookEvent(ctx, event.TopicBookDeleted, book)

	s.logger.InfoContext(ctx, "book deleted",
		slog.String("book_id", id),
	)

	return nil
}

func (s *BookService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate book cache",
			slog.String("book_id", id),
			slog.String("error", err.Error()),
		)
	}
}

func (s *BookService) publishBookEvent(ctx context.Context, topic string, book *domain.Book) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishBookEvent(ctx, topic, book); err != nil {
		s.logger.WarnContext(ctx, "failed to publish book event",
			slog.String("topic", topic),
			slog.String("book_id", book.ID),
			slog.String("error", err.Error()),
		)
	}
}
