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

// BookshelfRepository implements repository.BookshelfRepository using
// PostgreSQL.
type BookshelfRepository struct {
	pool database.DBTX
}

// NewBookshelfRepository creates a new PostgreSQL-backed bookshelf
// repository.
func NewBookshelfRepository(pool database.DBTX) *BookshelfRepository {
	return &BookshelfRepository{pool: pool}
}

// Create inserts a new bookshelf.
func (r *BookshelfRepository) Create(ctx context.Context, shelf *domain.Bookshelf) error {
	query := `
		INSERT INTO bookshelves (id, user_id, name, slug, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		shelf.ID,
		shelf.UserID,
		shelf.Name,
		shelf.Slug,
		shelf.IsPublic,
		shelf.CreatedAt,
		shelf.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("bookshelf", "slug", shelf.Slug)
		}
		return fmt.Errorf("insert bookshelf: %w", err)
	}
	return nil
}

// GetByID retrieves a bookshelf by its ID.
func (r *BookshelfRepository) GetByID(ctx context.Context, id string) (*domain.Bookshelf, error) {
	query := `SELECT id, user_id, name, slug, is_public, created_at, updated_at FROM bookshelves WHERE id = $1`

	var s domain.Bookshelf
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.Name, &s.Slug, &s.IsPublic, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("bookshelf", id)
		}
		return nil, fmt.Errorf("get bookshelf: %w", err)
	}
	return &s, nil
}

// ListByUserID retrieves all of a user's bookshelves.
func (r *BookshelfRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Bookshelf, error) {
	query := `
		SELECT id, user_id, name, slug, is_public, created_at, updated_at
		FROM bookshelves
		WHERE user_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookshelves: %w", err)
	}
	defer rows.Close()

	var shelves []domain.Bookshelf
	for rows.Next() {
		var s domain.Bookshelf
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Slug, &s.IsPublic, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan bookshelf: %w", err)
		}
		shelves = append(shelves, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookshelves: %w", err)
	}
	return shelves, nil
}

// Update persists changes to a bookshelf.
func (r *BookshelfRepository) Update(ctx context.Context, shelf *domain.Bookshelf) error {
	query := `
		UPDATE bookshelves
		SET name = $2, slug = $3, is_public = $4, updated_at = $5
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		shelf.ID,
		shelf.Name,
		shelf.Slug,
		shelf.IsPublic,
		shelf.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("bookshelf", "slug", shelf.Slug)
		}
		return fmt.Errorf("update bookshelf: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("bookshelf", shelf.ID)
	}
	return nil
}

// Delete removes a bookshelf and its items.
func (r *BookshelfRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookshelves WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bookshelf: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("bookshelf", id)
	}
	return nil
}

// AddItem places a book on a shelf. A book can appear at most once per
// shelf.
func (r *BookshelfRepository) AddItem(ctx context.Context, item *domain.BookshelfItem) error {
	query := `
		INSERT INTO bookshelf_items (id, bookshelf_id, book_id, note, added_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.BookshelfID,
		item.BookID,
		item.Note,
		item.AddedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("bookshelf item", "book", item.BookID)
		}
		return fmt.Errorf("insert bookshelf item: %w", err)
	}
	return nil
}

// RemoveItem takes a book off a shelf.
func (r *BookshelfRepository) RemoveItem(ctx context.Context, shelfID, bookID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookshelf_items WHERE bookshelf_id = $1 AND book_id = $2`, shelfID, bookID)
	if err != nil {
		return fmt.Errorf("delete bookshelf item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("bookshelf item", bookID)
	}
	return nil
}

// ListItems retrieves a page of books on a shelf, oldest first.
func (r *BookshelfRepository) ListItems(ctx context.Context, shelfID string, page, perPage int) ([]domain.BookshelfItem, int, error) {
	limit, offset := normalizePage(page, perPage)

	query := `
		SELECT id, bookshelf_id, book_id, note, added_at, count(*) OVER() AS total_count
		FROM bookshelf_items
		WHERE bookshelf_id = $1
		ORDER BY added_at ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, shelfID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookshelf items: %w", err)
	}
	defer rows.Close()

	var items []domain.BookshelfItem
	var total int
	for rows.Next() {
		var it domain.BookshelfItem
		if err := rows.Scan(&it.ID, &it.BookshelfID, &it.BookID, &it.Note, &it.AddedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan bookshelf item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookshelf items: %w", err)
	}
	return items, total, nil
}
