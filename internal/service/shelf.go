package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/HadesXChaos/WebBookRate/internal/domain"
	"github.com/HadesXChaos/WebBookRate/internal/repository"
	apperrors "github.com/HadesXChaos/WebBookRate/pkg/errors"
	"github.com/HadesXChaos/WebBookRate/pkg/slug"
)

// BookshelfService implements the business logic for bookshelves.
type BookshelfService struct {
	repo   repository.BookshelfRepository
	books  repository.BookRepository
	logger *slog.Logger
}

// NewBookshelfService creates a new bookshelf service.
func NewBookshelfService(
	repo repository.BookshelfRepository,
	books repository.BookRepository,
	logger *slog.Logger,
) *BookshelfService {
	return &BookshelfService{
		repo:   repo,
		books:  books,
		logger: logger,
	}
}

// CreateShelf creates a named shelf for the user.
func (s *BookshelfService) CreateShelf(ctx context.Context, userID, name string, isPublic bool) (*domain.Bookshelf, error) {
	if name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}

	now := time.Now().UTC()
	shelf := &domain.Bookshelf{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Slug:      slug.Generate(name),
		IsPublic:  isPublic,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, shelf); err != nil {
		return nil, fmt.Errorf("create bookshelf: %w", err)
	}

	s.logger.InfoContext(ctx, "bookshelf created",
		slog.String("bookshelf_id", shelf.ID),
		slog.String("user_id", userID),
	)

	return shelf, nil
}

// GetShelf retrieves a shelf, enforcing visibility: private shelves
// are only visible to their owner.
func (s *BookshelfService) GetShelf(ctx context.Context, id, viewerID string) (*domain.Bookshelf, error) {
	shelf, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get bookshelf: %w", err)
	}
	if !shelf.IsPublic && shelf.UserID != viewerID {
		return nil, apperrors.NotFound("bookshelf", id)
	}
	return shelf, nil
}

// ListShelves retrieves all of a user's shelves. Private shelves are
// filtered out for other viewers.
func (s *BookshelfService) ListShelves(ctx context.Context, userID, viewerID string) ([]domain.Bookshelf, error) {
	shelves, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookshelves: %w", err)
	}

	if userID == viewerID {
		return shelves, nil
	}
	visible := make([]domain.Bookshelf, 0, len(shelves))
	for _, shelf := range shelves {
		if shelf.IsPublic {
			visible = append(visible, shelf)
		}
	}
	return visible, nil
}

// UpdateShelf renames a shelf or toggles its visibility.
func (s *BookshelfService) UpdateShelf(ctx context.Context, id, actorID string, name *string, isPublic *bool) (*domain.Bookshelf, error) {
	shelf, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get bookshelf: %w", err)
	}
	if shelf.UserID != actorID {
		return nil, apperrors.Forbidden("bookshelf belongs to another user")
	}

	if name != nil && *name != shelf.Name {
		if *name == "" {
			return nil, apperrors.InvalidInput("name cannot be empty")
		}
		shelf.Name = *name
		shelf.Slug = slug.Generate(*name)
	}
	if isPublic != nil {
		shelf.IsPublic = *isPublic
	}
	shelf.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, shelf); err != nil {
		return nil, fmt.Errorf("update bookshelf: %w", err)
	}
	return shelf, nil
}

// DeleteShelf removes a shelf and its items.
func (s *BookshelfService) DeleteShelf(ctx context.Context, id, actorID string) error {
	shelf, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get bookshelf: %w", err)
	}
	if shelf.UserID != actorID {
		return apperrors.Forbidden("bookshelf belongs to another user")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete bookshelf: %w", err)
	}
	return nil
}

// AddBook places a book on the actor's shelf.
func (s *BookshelfService) AddBook(ctx context.Context, shelfID, actorID, bookID, note string) (*domain.BookshelfItem, error) {
	shelf, err := s.repo.GetByID(ctx, shelfID)
	if err != nil {
		return nil, fmt.Errorf("get bookshelf: %w", err)
	}
	if shelf.UserID != actorID {
		return nil, apperrors.Forbidden("bookshelf belongs to another user")
	}
	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		return nil, fmt.Errorf("check book: %w", err)
	}

	item := &domain.BookshelfItem{
		ID:          uuid.New().String(),
		BookshelfID: shelfID,
		BookID:      bookID,
		Note:        note,
		AddedAt:     time.Now().UTC(),
	}

	if err := s.repo.AddItem(ctx, item); err != nil {
		return nil, fmt.Errorf("add bookshelf item: %w", err)
	}
	return item, nil
}

// RemoveBook takes a book off the actor's shelf.
func (s *BookshelfService) RemoveBook(ctx context.Context, shelfID, actorID, bookID string) error {
	shelf, err := s.repo.GetByID(ctx, shelfID)
	if err != nil {
		return fmt.Errorf("get bookshelf: %w", err)
	}
	if shelf.UserID != actorID {
		return apperrors.Forbidden("bookshelf belongs to another user")
	}

	if err := s.repo.RemoveItem(ctx, shelfID, bookID); err != nil {
		return fmt.Errorf("remove bookshelf item: %w", err)
	}
	return nil
}

// ListBooks retrieves a page of the shelf's items, enforcing the same
// visibility rule as GetShelf.
func (s *BookshelfService) ListBooks(ctx context.Context, shelfID, viewerID string, page, perPage int) ([]domain.BookshelfItem, int, error) {
	shelf, err := s.repo.GetByID(ctx, shelfID)
	if err != nil {
		return nil, 0, fmt.Errorf("get bookshelf: %w", err)
	}
	if !shelf.IsPublic && shelf.UserID != viewerID {
		return nil, 0, apperrors.NotFound("bookshelf", shelfID)
	}

	items, total, err := s.repo.ListItems(ctx, shelfID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookshelf items: %w", err)
	}
	if items == nil {
		items = []domain.BookshelfItem{}
	}
	return items, total, nil
}
