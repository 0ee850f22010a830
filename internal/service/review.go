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
	"github.com/HadesXChaos/WebBookRate/pkg/markdown"
)

// BookCacheInvalidator drops cached book entries after a write that
// changes the book's aggregate fields.
type BookCacheInvalidator interface {
	Invalidate(ctx context.Context, id string) error
}

// CreateReviewInput holds the parameters for creating a review.
type CreateReviewInput struct {
	BookID    string
	EditionID *string
	UserID    string
	Title     string
	BodyMD    string
	Rating    float64
	IsSpoiler bool
}

// UpdateReviewInput holds the mutable review fields. Nil pointers
// leave the field unchanged.
type UpdateReviewInput struct {
	Title     *string
	BodyMD    *string
	Rating    *float64
	IsSpoiler *bool
	Status    *string
}

// ReviewListResult contains reviews and their aggregate summary.
type ReviewListResult struct {
	Reviews    []domain.Review       `json:"reviews"`
	Summary    *domain.ReviewSummary `json:"summary"`
	TotalCount int                   `json:"total_count"`
	Page       int                   `json:"page"`
	PerPage    int                   `json:"per_page"`
	TotalPages int                   `json:"total_pages"`
}

// ReviewService implements the business logic for review operations.
//
// All rating-aggregate bookkeeping happens inside the repository
// transaction; this layer handles validation, rendering, access
// control, and the best-effort side effects (cache invalidation and
// event publication) that run after commit.
type ReviewService struct {
	repo     repository.ReviewRepository
	books    repository.BookRepository
	renderer *markdown.Renderer
	producer *event.Producer
	cache    BookCacheInvalidator
	logger   *slog.Logger
}

// NewReviewService creates a new review service. cache may be nil when
// no book cache is configured.
func NewReviewService(
	repo repository.ReviewRepository,
	books repository.BookRepository,
	renderer *markdown.Renderer,
	producer *event.Producer,
	cache BookCacheInvalidator,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		repo:     repo,
		books:    books,
		renderer: renderer,
		producer: producer,
		cache:    cache,
		logger:   logger,
	}
}

// CreateReview validates the input, renders the body and persists the
// review. The book aggregate is recomputed in the same transaction as
// the insert.
func (s *ReviewService) CreateReview(ctx context.Context, input *CreateReviewInput) (*domain.Review, error) {
	if input.BookID == "" {
		return nil, apperrors.InvalidInput("book_id is required")
	}
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if input.BodyMD == "" {
		return nil, apperrors.InvalidInput("body_md is required")
	}
	if !domain.IsValidRating(input.Rating) {
		return nil, apperrors.InvalidInput("rating must be a half-star value between 0.5 and 5")
	}

	if _, err := s.books.GetByID(ctx, input.BookID); err != nil {
		return nil, fmt.Errorf("check book: %w", err)
	}

	bodyHTML, err := s.renderer.Render(input.BodyMD)
	if err != nil {
		return nil, fmt.Errorf("render review body: %w", err)
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		UserID:    input.UserID,
		BookID:    input.BookID,
		EditionID: input.EditionID,
		Title:     input.Title,
		BodyMD:    input.BodyMD,
		BodyHTML:  bodyHTML,
		Rating:    input.Rating,
		IsSpoiler: input.IsSpoiler,
		Status:    domain.ReviewStatusPublished,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.afterReviewWrite(ctx, event.TopicReviewCreated, review)

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
		slog.String("user_id", review.UserID),
		slog.Float64("rating", review.Rating),
	)

	return review, nil
}

// GetReview retrieves a review by ID.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// ListReviews returns paginated reviews for a book along with the
// aggregate summary stored on the book row.
func (s *ReviewService) ListReviews(ctx context.Context, bookID string, filter repository.ReviewFilter) (*ReviewListResult, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	reviews, total, err := s.repo.ListByBookID(ctx, bookID, filter)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	summary, err := s.repo.GetSummary(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("get review summary: %w", err)
	}

	totalPages := total / filter.PerPage
	if total%filter.PerPage > 0 {
		totalPages++
	}

	return &ReviewListResult{
		Reviews:    reviews,
		Summary:    summary,
		TotalCount: total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: totalPages,
	}, nil
}

// UpdateReview applies the given changes to a review owned by actorID,
// or to any review when the actor is a moderator. The book aggregate
// is recomputed only when the rating or status actually changed.
func (s *ReviewService) UpdateReview(ctx context.Context, id, actorID string, isModerator bool, input *UpdateReviewInput) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review.UserID != actorID && !isModerator {
		return nil, apperrors.Forbidden("review belongs to another user")
	}

	recompute := false

	if input.Title != nil {
		review.Title = *input.Title
	}
	if input.BodyMD != nil {
		bodyHTML, err := s.renderer.Render(*input.BodyMD)
		if err != nil {
			return nil, fmt.Errorf("render review body: %w", err)
		}
		review.BodyMD = *input.BodyMD
		review.BodyHTML = bodyHTML
	}
	if input.IsSpoiler != nil {
		review.IsSpoiler = *input.IsSpoiler
	}
	if input.Rating != nil && *input.Rating != review.Rating {
		if !domain.IsValidRating(*input.Rating) {
			return nil, apperrors.InvalidInput("rating must be a half-star value between 0.5 and 5")
		}
		review.Rating = *input.Rating
		recompute = true
	}
	if input.Status != nil && *input.Status != review.Status {
		if !domain.IsValidReviewStatus(*input.Status) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown review status %q", *input.Status))
		}
		if !isModerator {
			return nil, apperrors.Forbidden("only moderators may change review status")
		}
		review.Status = *input.Status
		recompute = true
	}
	review.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, review, recompute); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.afterReviewWrite(ctx, event.TopicReviewUpdated, review)

	s.logger.InfoContext(ctx, "review updated",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
		slog.Bool("aggregate_recomputed", recompute),
	)

	return review, nil
}

// DeleteReview removes a review owned by actorID, or any review when
// the actor is a moderator.
func (s *ReviewService) DeleteReview(ctx context.Context, id, actorID string, isModerator bool) error {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get review: %w", err)
	}
	if review.UserID != actorID && !isModerator {
		return apperrors.Forbidden("review belongs to another user")
	}

	if err := s.repo.Delete(ctx, id, actorID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.afterReviewWrite(ctx, event.TopicReviewDeleted, review)

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", id),
		slog.String("book_id", review.BookID),
		slog.String("actor_id", actorID),
	)

	return nil
}

// GetSummary returns the aggregate rating statistics for a book.
func (s *ReviewService) GetSummary(ctx context.Context, bookID string) (*domain.ReviewSummary, error) {
	summary, err := s.repo.GetSummary(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("get review summary: %w", err)
	}
	return summary, nil
}

// afterReviewWrite runs the post-commit side effects. Both are
// best-effort: the database already holds the truth, the cache expires
// on its own and the search index converges on the next event or
// rebuild.
func (s *ReviewService) afterReviewWrite(ctx context.Context, topic string, review *domain.Review) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, review.BookID); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate book cache",
				slog.String("book_id", review.BookID),
				slog.String("error", err.Error()),
			)
		}
	}
	if s.producer != nil {
		if err := s.producer.PublishReviewEvent(ctx, topic, review); err != nil {
			s.logger.WarnContext(ctx, "failed to publish review event",
				slog.String("topic", topic),
				slog.String("review_id", review.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}
