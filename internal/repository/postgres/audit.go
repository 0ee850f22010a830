package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HadesXChaos/WebBookRate/internal/domain"
	"github.com/HadesXChaos/WebBookRate/pkg/database"
)

// AuditLogRepository implements repository.AuditLogRepository using
// PostgreSQL. Review write paths append audit rows through their own
// transaction; this repository serves standalone writes and reads.
type AuditLogRepository struct {
	pool database.DBTX
}

// NewAuditLogRepository creates a new PostgreSQL-backed audit log
// repository.
func NewAuditLogRepository(pool database.DBTX) *AuditLogRepository {
	return &AuditLogRepository{pool: pool}
}

// Record appends an audit log entry.
func (r *AuditLogRepository) Record(ctx context.Context, entry *domain.AuditLog) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	query := `
		INSERT INTO audit_logs (id, actor_id, action, target_kind, target_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.pool.Exec(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.Action,
		entry.Target.Kind,
		entry.Target.ID,
		raw,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListByTarget retrieves a page of audit entries for a target, newest
// first.
func (r *AuditLogRepository) ListByTarget(ctx context.Context, target domain.Target, page, perPage int) ([]domain.AuditLog, int, error) {
	limit, offset := normalizePage(page, perPage)

	query := `
		SELECT id, actor_id, action, target_kind, target_id, metadata, created_at, count(*) OVER() AS total_count
		FROM audit_logs
		WHERE target_kind = $1 AND target_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, target.Kind, target.ID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditLog
	var total int
	for rows.Next() {
		var e domain.AuditLog
		var raw []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Target.Kind, &e.Target.ID, &raw, &e.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Metadata); err != nil {
				return nil, 0, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit logs: %w", err)
	}
	return entries, total, nil
}
