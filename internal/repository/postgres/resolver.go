package postgres

import (
	"context"
	"fmt"

	"github.com/HadesXChaos/WebBookRate/internal/domain"
	"github.com/HadesXChaos/WebBookRate/pkg/database"
)

// targetTables maps each report target kind to the table holding that
// kind of entity. The map is the closed set: a kind outside it is a
// programming error, not user input, by the time it reaches here.
var targetTables = map[domain.TargetKind]string{
	domain.TargetBook:    "books",
	domain.TargetReview:  "reviews",
	domain.TargetComment: "comments",
	domain.TargetUser:    "users",
}

// TargetResolver implements repository.TargetResolver using
// PostgreSQL.
type TargetResolver struct {
	pool database.DBTX
}

// NewTargetResolver creates a new PostgreSQL-backed target resolver.
func NewTargetResolver(pool database.DBTX) *TargetResolver {
	return &TargetResolver{pool: pool}
}

// Exists reports whether an entity of the target's kind exists with
// the target's ID.
func (r *TargetResolver) Exists(ctx context.Context, target domain.Target) (bool, error) {
	table, ok := targetTables[target.Kind]
	if !ok {
		return false, fmt.Errorf("unknown target kind %q", target.Kind)
	}

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table)
	if err := r.pool.QueryRow(ctx, query, target.ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("resolve %s target: %w", target.Kind, err)
	}
	return exists, nil
}
