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

const readingStatusColumns = `id, user_id, book_id, status, started_at, finished_at, progress_pages, created_at, updated_at`

// ReadingStatusRepository implements
// repository.ReadingStatusRepository using PostgreSQL.
type ReadingStatusRepository struct {
	pool database.DBTX
}

// NewReadingStatusRepository creates a new PostgreSQL-backed reading
// status repository.
func NewReadingStatusRepository(pool database.DBTX) *ReadingStatusRepository {
	return &ReadingStatusRepository{pool: pool}
}

// Upsert creates or replaces the user's status for a book. The
// (user_id, book_id) pair is unique, so repeated upserts update the
// existing row in place.
func (r *ReadingStatusRepository) Upsert(ctx context.Context, status *domain.ReadingStatus) error {
	query := `
		INSERT INTO reading_statuses (` + readingStatusColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, book_id) DO UPDATE SET
			status = EXCLUDED.status,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			progress_pages = EXCLUDED.progress_pages,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		status.ID,
		status.UserID,
		status.BookID,
		status.Status,
		status.StartedAt,
		status.FinishedAt,
		status.ProgressPages,
		status.CreatedAt,
		status.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert reading status: %w", err)
	}
	return nil
}

// Get retrieves the user's status for a book.
func (r *ReadingStatusRepository) Get(ctx context.Context, userID, bookID string) (*domain.ReadingStatus, error) {
	query := `SELECT ` + readingStatusColumns + ` FROM reading_statuses WHERE user_id = $1 AND book_id = $2`

	var s domain.ReadingStatus
	err := r.pool.QueryRow(ctx, query, userID, bookID).Scan(
		&s.ID, &s.UserID, &s.BookID, &s.Status, &s.StartedAt,
		&s.FinishedAt, &s.ProgressPages, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("reading status", bookID)
		}
		return nil, fmt.Errorf("get reading status: %w", err)
	}
	return &s, nil
}

// ListByUserID retrieves a page of the user's reading statuses, most
// recently updated first.
func (r *ReadingStatusRepository) ListByUserID(ctx context.Context, userID string, page, perPage int) ([]domain.ReadingStatus, int, error) {
	limit, offset := normalizePage(page, perPage)

	query := `
		SELECT ` + readingStatusColumns + `, count(*) OVER() AS total_count
		FROM reading_statuses
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reading statuses: %w", err)
	}
	defer rows.Close()

	var statuses []domain.ReadingStatus
	var total int
	for rows.Next() {
		var s domain.ReadingStatus
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.BookID, &s.Status, &s.StartedAt,
			&s.FinishedAt, &s.ProgressPages, &s.CreatedAt, &s.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan reading status: %w", err)
		}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reading statuses: %w", err)
	}
	return statuses, total, nil
}

// Delete removes the user's status for a book.
func (r *ReadingStatusRepository) Delete(ctx context.Context, userID, bookID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reading_statuses WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		return fmt.Errorf("delete reading status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("reading status", bookID)
	}
	return nil
}
