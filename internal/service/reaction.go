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

// ReactionService implements the business logic for reactions.
type ReactionService struct {
	repo    repository.ReactionRepository
	reviews repository.ReviewRepository
	logger  *slog.Logger
}

// NewReactionService creates a new reaction service.
func NewReactionService(
	repo repository.ReactionRepository,
	reviews repository.ReviewRepository,
	logger *slog.Logger,
) *ReactionService {
	return &ReactionService{
		repo:    repo,
		reviews: reviews,
		logger:  logger,
	}
}

// SetReaction creates or replaces the user's reaction to a review.
// Self-reactions are rejected.
func (s *ReactionService) SetReaction(ctx context.Context, userID, reviewID, reactionType string) (*domain.Reaction, error) {
	if !domain.IsValidReactionType(reactionType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown reaction type %q", reactionType))
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("check review: %w", err)
	}
	if review.UserID == userID {
		return nil, apperrors.Forbidden("cannot react to your own review")
	}

	reaction := &domain.Reaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		ReviewID:  reviewID,
		Type:      reactionType,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Set(ctx, reaction); err != nil {
		return nil, fmt.Errorf("set reaction: %w", err)
	}

	s.logger.InfoContext(ctx, "reaction set",
		slog.String("review_id", reviewID),
		slog.String("user_id", userID),
		slog.String("type", reactionType),
	)

	return reaction, nil
}

// ToggleReaction flips the user's reaction to a review: an existing
// reaction of the same type is removed, anything else is created or
// replaced. The returned reaction is nil when the toggle removed one.
// Self-reactions are rejected.
func (s *ReactionService) ToggleReaction(ctx context.Context, userID, reviewID, reactionType string) (*domain.Reaction, error) {
	if !domain.IsValidReactionType(reactionType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown reaction type %q", reactionType))
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("check review: %w", err)
	}
	if review.UserID == userID {
		return nil, apperrors.Forbidden("cannot react to your own review")
	}

	reaction := &domain.Reaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		ReviewID:  reviewID,
		Type:      reactionType,
		CreatedAt: time.Now().UTC(),
	}

	removed, err := s.repo.Toggle(ctx, reaction)
	if err != nil {
		return nil, fmt.Errorf("toggle reaction: %w", err)
	}

	s.logger.InfoContext(ctx, "reaction toggled",
		slog.String("review_id", reviewID),
		slog.String("user_id", userID),
		slog.String("type", reactionType),
		slog.Bool("removed", removed),
	)

	if removed {
		return nil, nil
	}
	return reaction, nil
}

// RemoveReaction deletes the user's reaction to a review.
func (s *ReactionService) RemoveReaction(ctx context.Context, userID, reviewID string) error {
	if err := s.repo.Remove(ctx, userID, reviewID); err != nil {
		return fmt.Errorf("remove reaction: %w", err)
	}

	s.logger.InfoContext(ctx, "reaction removed",
		slog.String("review_id", reviewID),
		slog.String("user_id", userID),
	)
	return nil
}

// GetReaction retrieves the user's reaction to a review.
func (s *ReactionService) GetReaction(ctx context.Context, userID, reviewID string) (*domain.Reaction, error) {
	reaction, err := s.repo.GetByUserAndReview(ctx, userID, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get reaction: %w", err)
	}
	return reaction, nil
}
