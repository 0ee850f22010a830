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

const reportColumns = `id, reporter_id, target_kind, target_id, reason, note, status, created_at, updated_at`

// ReportRepository implements repository.ReportRepository using
// PostgreSQL.
type ReportRepository struct {
	pool database.DBTX
}

// NewReportRepository creates a new PostgreSQL-backed report
// repository.
func NewReportRepository(pool database.DBTX) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Create inserts a new report.
func (r *ReportRepository) Create(ctx context.Context, report *domain.Report) error {
	query := `
		INSERT INTO reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		report.ID,
		report.ReporterID,
		report.Target.Kind,
		report.Target.ID,
		report.Reason,
		report.Note,
		report.Status,
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetByID retrieves a report by its ID.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

	var rep domain.Report
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rep.ID, &rep.ReporterID, &rep.Target.Kind, &rep.Target.ID,
		&rep.Reason, &rep.Note, &rep.Status, &rep.CreatedAt, &rep.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("report", id)
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &rep, nil
}

// List retrieves a page of reports, newest first, optionally filtered
// by status.
func (r *ReportRepository) List(ctx context.Context, status *string, page, perPage int) ([]domain.Report, int, error) {
	limit, offset := normalizePage(page, perPage)

	query := `
		SELECT ` + reportColumns + `, count(*) OVER() AS total_count
		FROM reports
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	var total int
	for rows.Next() {
		var rep domain.Report
		if err := rows.Scan(
			&rep.ID, &rep.ReporterID, &rep.Target.Kind, &rep.Target.ID,
			&rep.Reason, &rep.Note, &rep.Status, &rep.CreatedAt, &rep.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, total, nil
}

// UpdateStatus moves a report to a new status.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE reports SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("report", id)
	}
	return nil
}
