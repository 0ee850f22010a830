package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/HadesXChaos/WebBookRate/internal/domain"
	"github.com/HadesXChaos/WebBookRate/pkg/database"
	apperrors "github.com/HadesXChaos/WebBookRate/pkg/errors"
)

// ReactionRepository implements repository.ReactionRepository using
// PostgreSQL. The helpful_count on the review is recounted from the
// reaction rows inside the same transaction as the reaction write,
// the same recompute-from-ground-truth shape the book aggregate uses.
type ReactionRepository struct {
	pool database.DBTX
}

// NewReactionRepository creates a new PostgreSQL-backed reaction
// repository.
func NewReactionRepository(pool database.DBTX) *ReactionRepository {
	return &ReactionRepository{pool: pool}
}

// Set creates or replaces the user's reaction to a review and
// recounts the review's helpful_count in the same transaction.
func (r *ReactionRepository) Set(ctx context.Context, reaction *domain.Reaction) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO reactions (id, user_id, review_id, type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, review_id) DO UPDATE SET type = EXCLUDED.type`

	_, err = tx.Exec(ctx, query,
		reaction.ID,
		reaction.UserID,
		reaction.ReviewID,
		reaction.Type,
		reaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert reaction: %w", err)
	}

	if err := recountHelpful(ctx, tx, reaction.ReviewID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Toggle removes the user's reaction when it already has the given
// type, otherwise creates or replaces it. helpful_count is recounted
// in the same transaction either way.
func (r *ReactionRepository) Toggle(ctx context.Context, reaction *domain.Reaction) (removed bool, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existingType string
	err = tx.QueryRow(ctx,
		`SELECT type FROM reactions WHERE user_id = $1 AND review_id = $2 FOR UPDATE`,
		reaction.UserID, reaction.ReviewID,
	).Scan(&existingType)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("get reaction: %w", err)
	}

	if err == nil && existingType == reaction.Type {
		_, err = tx.Exec(ctx,
			`DELETE FROM reactions WHERE user_id = $1 AND review_id = $2`,
			reaction.UserID, reaction.ReviewID,
		)
		if err != nil {
			return false, fmt.Errorf("delete reaction: %w", err)
		}
		removed = true
	} else {
		query := `
			INSERT INTO reactions (id, user_id, review_id, type, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, review_id) DO UPDATE SET type = EXCLUDED.type`

		_, err = tx.Exec(ctx, query,
			reaction.ID,
			reaction.UserID,
			reaction.ReviewID,
			reaction.Type,
			reaction.CreatedAt,
		)
		if err != nil {
			return false, fmt.Errorf("upsert reaction: %w", err)
		}
	}

	if err := recountHelpful(ctx, tx, reaction.ReviewID); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return removed, nil
}

// Remove deletes the user's reaction to a review and recounts
// helpful_count in the same transaction.
func (r *ReactionRepository) Remove(ctx context.Context, userID, reviewID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM reactions WHERE user_id = $1 AND review_id = $2`, userID, reviewID)
	if err != nil {
		return fmt.Errorf("delete reaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("reaction", reviewID)
	}

	if err := recountHelpful(ctx, tx, reviewID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByUserAndReview retrieves the user's reaction to a review.
func (r *ReactionRepository) GetByUserAndReview(ctx context.Context, userID, reviewID string) (*domain.Reaction, error) {
	query := `SELECT id, user_id, review_id, type, created_at FROM reactions WHERE user_id = $1 AND review_id = $2`

	var rx domain.Reaction
	err := r.pool.QueryRow(ctx, query, userID, reviewID).Scan(
		&rx.ID, &rx.UserID, &rx.ReviewID, &rx.Type, &rx.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("reaction", reviewID)
		}
		return nil, fmt.Errorf("get reaction: %w", err)
	}
	return &rx, nil
}

// recountHelpful rewrites the review's helpful_count from the current
// reaction rows.
func recountHelpful(ctx context.Context, tx pgx.Tx, reviewID string) error {
	query := `
		UPDATE reviews
		SET helpful_count = (SELECT count(*) FROM reactions WHERE review_id = $1 AND type = 'helpful')
		WHERE id = $1`

	if _, err := tx.Exec(ctx, query, reviewID); err != nil {
		return fmt.Errorf("recount helpful reactions: %w", err)
	}
	return nil
}
