// Package postgres contains the PostgreSQL implementations of the
// repository interfaces.
package postgres

import (
	"strings"
)

// isUniqueViolation checks if the error is a PostgreSQL unique
// constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

// normalizePage clamps pagination inputs and returns limit and offset.
func normalizePage(page, perPage int) (limit, offset int) {
	limit = perPage
	if limit <= 0 {
		limit = 20
	}
	if page > 1 {
		offset = (page - 1) * limit
	}
	return limit, offset
}
