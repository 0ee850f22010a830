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

// AuthorRepository implements repository.AuthorRepository using
// PostgreSQL.
type AuthorRepository struct {
	pool database.DBTX
}

// NewAuthorRepository creates a new PostgreSQL-backed author repository.
func NewAuthorRepository(pool database.DBTX) *AuthorRepository {
	return &AuthorRepository{pool: pool}
}

const authorColumns = `id, name, slug, bio, country, birthday, created_at, updated_at`

// Create inserts a new author.
func (r *AuthorRepository) Create(ctx context.Context, author *domain.Author) error {
	query := `
		INSERT INTO authors (id, name, slug, bio, country, birthday, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		author.ID,
		author.Name,
		author.Slug,
		author.Bio,
		author.Country,
		author.Birthday,
		author.CreatedAt,
		author.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("author", "slug", author.Slug)
		}
		return fmt.Errorf("insert author: %w", err)
	}
	return nil
}

// GetByID retrieves an author by its identifier.
func (r *AuthorRepository) GetByID(ctx context.Context, id string) (*domain.Author, error) {
	return r.getByField(ctx, "id", id)
}

// GetBySlug retrieves an author by its URL-friendly slug.
func (r *AuthorRepository) GetBySlug(ctx context.Context, slug string) (*domain.Author, error) {
	return r.getByField(ctx, "slug", slug)
}

func (r *AuthorRepository) getByField(ctx context.Context, field, value string) (*domain.Author, error) {
	query := `SELECT ` + authorColumns + ` FROM authors WHERE ` + field + ` = $1`

	var a domain.Author
	err := r.pool.QueryRow(ctx, query, value).Scan(
		&a.ID, &a.Name, &a.Slug, &a.Bio, &a.Country, &a.Birthday, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("author", value)
		}
		return nil, fmt.Errorf("get author: %w", err)
	}
	return &a, nil
}

// List returns paginated authors along with the total count.
func (r *AuthorRepository) List(ctx context.Context, page, perPage int) ([]domain.Author, int, error) {
	limit, offset := normalizePage(page, perPage)

	query := `
		SELECT ` + authorColumns + `,
		       count(*) OVER() AS total_count
		FROM authors
		ORDER BY name
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	var (
		authors    []domain.Author
		totalCount int
	)
	for rows.Next() {
		var a domain.Author
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Slug, &a.Bio, &a.Country, &a.Birthday, &a.CreatedAt, &a.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan author row: %w", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate author rows: %w", err)
	}

	if authors == nil {
		authors = []domain.Author{}
	}
	return authors, totalCount, nil
}

// Update modifies an existing author.
func (r *AuthorRepository) Update(ctx context.Context, author *domain.Author) error {
	query := `
		UPDATE authors
		SET name = $2, slug = $3, bio = $4, country = $5, birthday = $6, updated_at = $7
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		author.ID,
		author.Name,
		author.Slug,
		author.Bio,
		author.Country,
		author.Birthday,
		author.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("author", "slug", author.Slug)
		}
		return fmt.Errorf("update author: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("author", author.ID)
	}
	return nil
}

// Delete removes an author by its identifier.
func (r *AuthorRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete author: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("author", id)
	}
	return nil
}

// ListForIndex returns every author joined with its book count,
// projected into search documents.
func (r *AuthorRepository) ListForIndex(ctx context.Context) ([]domain.AuthorDocument, error) {
	query := `
		SELECT a.id, a.name, a.slug, a.bio, a.country,
		       (SELECT count(*) FROM books b WHERE b.author_id = a.id)
		FROM authors a
		ORDER BY a.name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list authors for index: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.AuthorDocument, 0)
	for rows.Next() {
		var d domain.AuthorDocument
		if err := rows.Scan(&d.ID, &d.Name, &d.Slug, &d.Bio, &d.Country, &d.BooksCount); err != nil {
			return nil, fmt.Errorf("scan author document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate author documents: %w", err)
	}
	return docs, nil
}
