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

// CreateAuthorInput holds the parameters for creating an author.
type CreateAuthorInput struct {
	Name     string
	Bio      string
	Country  string
	Birthday *time.Time
}

// UpdateAuthorInput holds the mutable author fields. Nil pointers
// leave the field unchanged.
type UpdateAuthorInput struct {
	Name     *string
	Bio      *string
	Country  *string
	Birthday *time.Time
}

// AuthorService implements the business logic for author operations.
type AuthorService struct {
	repo   repository.AuthorRepository
	logger *slog.Logger
}

// NewAuthorService creates a new author service.
func NewAuthorService(repo repository.AuthorRepository, logger *slog.Logger) *AuthorService {
	return &AuthorService{
		repo:   repo,
		logger: logger,
	}
}

// CreateAuthor validates the input and persists a new author with a
// generated slug.
func (s *AuthorService) CreateAuthor(ctx context.Context, input *CreateAuthorInput) (*domain.Author, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}

	now := time.Now().UTC()
	author := &domain.Author{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Slug:      slug.Generate(input.Name),
		Bio:       input.Bio,
		Country:   input.Country,
		Birthday:  input.Birthday,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, author); err != nil {
		return nil, fmt.Errorf("create author: %w", err)
	}

	s.logger.InfoContext(ctx, "author created",
		slog.String("author_id", author.ID),
		slog.String("slug", author.Slug),
	)

	return author, nil
}

// GetAuthor retrieves an author by ID.
func (s *AuthorService) GetAuthor(ctx context.Context, id string) (*domain.Author, error) {
	author, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get author: %w", err)
	}
	return author, nil
}

// GetAuthorBySlug retrieves an author by slug.
func (s *AuthorService) GetAuthorBySlug(ctx context.Context, authorSlug string) (*domain.Author, error) {
	author, err := s.repo.GetBySlug(ctx, authorSlug)
	if err != nil {
		return nil, fmt.Errorf("get author by slug: %w", err)
	}
	return author, nil
}

// ListAuthors returns a page of authors ordered by name.
func (s *AuthorService) ListAuthors(ctx context.Context, page, perPage int) ([]domain.Author, int, error) {
	authors, total, err := s.repo.List(ctx, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list authors: %w", err)
	}
	return authors, total, nil
}

// UpdateAuthor applies the given changes to an author. The slug
// follows the name.
func (s *AuthorService) UpdateAuthor(ctx context.Context, id string, input *UpdateAuthorInput) (*domain.Author, error) {
	author, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get author: %w", err)
	}

	if input.Name != nil && *input.Name != author.Name {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name cannot be empty")
		}
		author.Name = *input.Name
		author.Slug = slug.Generate(*input.Name)
	}
	if input.Bio != nil {
		author.Bio = *input.Bio
	}
	if input.Country != nil {
		author.Country = *input.Country
	}
	if input.Birthday != nil {
		author.Birthday = input.Birthday
	}
	author.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, author); err != nil {
		return nil, fmt.Errorf("update author: %w", err)
	}

	s.logger.InfoContext(ctx, "author updated",
		slog.String("author_id", author.ID),
	)

	return author, nil
}

// DeleteAuthor removes an author. Fails while books still reference
// the author.
func (s *AuthorService) DeleteAuthor(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete author: %w", err)
	}

	s.logger.InfoContext(ctx, "author deleted",
		slog.String("author_id", id),
	)

	return nil
}
