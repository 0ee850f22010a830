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
	"github.com/HadesXChaos/WebBookRate/pkg/markdown"
)

// CreateCommentInput holds the parameters for creating a comment.
type CreateCommentInput struct {
	ReviewID  string
	UserID    string
	BodyMD    string
	IsSpoiler bool
}

// CommentService implements the business logic for comment operations.
type CommentService struct {
	repo     repository.CommentRepository
	reviews  repository.ReviewRepository
	renderer *markdown.Renderer
	logger   *slog.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(
	repo repository.CommentRepository,
	reviews repository.ReviewRepository,
	renderer *markdown.Renderer,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		repo:     repo,
		reviews:  reviews,
		renderer: renderer,
		logger:   logger,
	}
}

// CreateComment validates the input, renders the body and persists the
// comment.
func (s *CommentService) CreateComment(ctx context.Context, input *CreateCommentInput) (*domain.Comment, error) {
	if input.ReviewID == "" {
		return nil, apperrors.InvalidInput("review_id is required")
	}
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if input.BodyMD == "" {
		return nil, apperrors.InvalidInput("body_md is required")
	}

	review, err := s.reviews.GetByID(ctx, input.ReviewID)
	if err != nil {
		return nil, fmt.Errorf("check review: %w", err)
	}
	if review.Status != domain.ReviewStatusPublished {
		return nil, apperrors.Unprocessable("cannot comment on an unpublished review")
	}

	bodyHTML, err := s.renderer.Render(input.BodyMD)
	if err != nil {
		return nil, fmt.Errorf("render comment body: %w", err)
	}

	now := time.Now().UTC()
	comment := &domain.Comment{
		ID:        uuid.New().String(),
		UserID:    input.UserID,
		ReviewID:  input.ReviewID,
		BodyMD:    input.BodyMD,
		BodyHTML:  bodyHTML,
		IsSpoiler: input.IsSpoiler,
		Status:    domain.ReviewStatusPublished,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.logger.InfoContext(ctx, "comment created",
		slog.String("comment_id", comment.ID),
		slog.String("review_id", comment.ReviewID),
	)

	return comment, nil
}

// ListComments returns a page of comments on a review, oldest first.
func (s *CommentService) ListComments(ctx context.Context, reviewID string, page, perPage int) ([]domain.Comment, int, error) {
	comments, total, err := s.repo.ListByReviewID(ctx, reviewID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	return comments, total, nil
}

// UpdateComment replaces the body of a comment owned by actorID.
func (s *CommentService) UpdateComment(ctx context.Context, id, actorID string, isModerator bool, bodyMD string, isSpoiler *bool) (*domain.Comment, error) {
	if bodyMD == "" {
		return nil, apperrors.InvalidInput("body_md is required")
	}

	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	if comment.UserID != actorID && !isModerator {
		return nil, apperrors.Forbidden("comment belongs to another user")
	}

	bodyHTML, err := s.renderer.Render(bodyMD)
	if err != nil {
		return nil, fmt.Errorf("render comment body: %w", err)
	}

	comment.BodyMD = bodyMD
	comment.BodyHTML = bodyHTML
	if isSpoiler != nil {
		comment.IsSpoiler = *isSpoiler
	}
	comment.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return comment, nil
}

// DeleteComment removes a comment owned by actorID, or any comment
// when the actor is a moderator.
func (s *CommentService) DeleteComment(ctx context.Context, id, actorID string, isModerator bool) error {
	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get comment: %w", err)
	}
	if comment.UserID != actorID && !isModerator {
		return apperrors.Forbidden("comment belongs to another user")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	s.logger.InfoContext(ctx, "comment deleted",
		slog.String("comment_id", id),
		slog.String("actor_id", actorID),
	)
	return nil
}
