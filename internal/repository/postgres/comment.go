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

const commentColumns = `id, user_id, review_id, body_md, body_html, is_spoiler, status, created_at, updated_at`

// CommentRepository implements repository.CommentRepository using
// PostgreSQL.
type CommentRepository struct {
	pool database.DBTX
}

// NewCommentRepository creates a new PostgreSQL-backed comment
// repository.
func NewCommentRepository(pool database.DBTX) *CommentRepository {
	return &CommentRepository{pool: pool}
}

// Create inserts a new comment.
func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO comments (` + commentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		comment.ID,
		comment.UserID,
		comment.ReviewID,
		comment.BodyMD,
		comment.BodyHTML,
		comment.IsSpoiler,
		comment.Status,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by its ID.
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	var c domain.Comment
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.ReviewID, &c.BodyMD, &c.BodyHTML,
		&c.IsSpoiler, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("comment", id)
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

// ListByReviewID retrieves a page of comments on a review, oldest
// first.
func (r *CommentRepository) ListByReviewID(ctx context.Context, reviewID string, page, perPage int) ([]domain.Comment, int, error) {
	limit, offset := normalizePage(page, perPage)

	query := `
		SELECT ` + commentColumns + `, count(*) OVER() AS total_count
		FROM comments
		WHERE review_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, reviewID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	var total int
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.ReviewID, &c.BodyMD, &c.BodyHTML,
			&c.IsSpoiler, &c.Status, &c.CreatedAt, &c.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, total, nil
}

// Update persists changes to a comment.
func (r *CommentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	query := `
		UPDATE comments
		SET body_md = $2, body_html = $3, is_spoiler = $4, status = $5, updated_at = $6
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		comment.ID,
		comment.BodyMD,
		comment.BodyHTML,
		comment.IsSpoiler,
		comment.Status,
		comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("comment", comment.ID)
	}
	return nil
}

// Delete removes a comment.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("comment", id)
	}
	return nil
}
