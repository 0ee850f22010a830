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
)

// SetReadingStatusInput holds the parameters for setting a reading
// status.
type SetReadingStatusInput struct {
	UserID        string
	BookID        string
	Status        string
	StartedAt     *time.Time
	FinishedAt    *time.Time
	ProgressPages *int
}

// ReadingStatusService implements the business logic for reading
// statuses.
type ReadingStatusService struct {
	repo   repository.ReadingStatusRepository
	books  repository.BookRepository
	logger *slog.Logger
}

// NewReadingStatusService creates a new reading status service.
func NewReadingStatusService(
	repo repository.ReadingStatusRepository,
	books repository.BookRepository,
	logger *slog.Logger,
) *ReadingStatusService {
	return &ReadingStatusService{
		repo:   repo,
		books:  books,
		logger: logger,
	}
}

// SetStatus creates or replaces the user's status for a book.
func (s *ReadingStatusService) SetStatus(ctx context.Context, input *SetReadingStatusInput) (*domain.ReadingStatus, error) {
	if !domain.IsValidReadingStatus(input.Status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown reading status %q", input.Status))
	}
	if input.ProgressPages != nil && *input.ProgressPages < 0 {
		return nil, apperrors.InvalidInput("progress_pages cannot be negative")
	}

	if _, err := s.books.GetByID(ctx, input.BookID); err != nil {
		return nil, fmt.Errorf("check book: %w", err)
	}

	now := time.Now().UTC()
	status := &domain.ReadingStatus{
		ID:            uuid.New().String(),
		UserID:        input.UserID,
		BookID:        input.BookID,
		Status:        input.Status,
		StartedAt:     input.StartedAt,
		FinishedAt:    input.FinishedAt,
		ProgressPages: input.ProgressPages,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Upsert(ctx, status); err != nil {
		return nil, fmt.Errorf("set reading status: %w", err)
	}

	s.logger.InfoContext(ctx, "reading status set",
		slog.String("book_id", input.BookID),
		slog.String("user_id", input.UserID),
		slog.String("status", input.Status),
	)

	return status, nil
}

// GetStatus retrieves the user's status for a book.
func (s *ReadingStatusService) GetStatus(ctx context.Context, userID, bookID string) (*domain.ReadingStatus, error) {
	status, err := s.repo.Get(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("get reading status: %w", err)
	}
	return status, nil
}

// ListStatuses retrieves a page of the user's reading statuses.
func (s *ReadingStatusService) ListStatuses(ctx context.Context, userID string, page, perPage int) ([]domain.ReadingStatus, int, error) {
	statuses, total, err := s.repo.ListByUserID(ctx, userID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list reading statuses: %w", err)
	}
	if statuses == nil {
		statuses = []domain.ReadingStatus{}
	}
	return statuses, total, nil
}

// ClearStatus removes the user's status for a book.
func (s *ReadingStatusService) ClearStatus(ctx context.Context, userID, bookID string) error {
	if err := s.repo.Delete(ctx, userID, bookID); err != nil {
		return fmt.Errorf("clear reading status: %w", err)
	}
	return nil
}
