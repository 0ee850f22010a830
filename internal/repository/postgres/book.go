package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/HadesXChaos/WebBookRate/internal/domain"
	"github.com/HadesXChaos/WebBookRate/internal/repository"
	"github.com/HadesXChaos/WebBookRate/pkg/database"
	apperrors "github.com/HadesXChaos/WebBookRate/pkg/errors"
)

// BookRepository implements repository.BookRepository using PostgreSQL.
type BookRepository struct {
	pool database.DBTX
}

// NewBookRepository creates a new PostgreSQL-backed book repository.
func NewBookRepository(pool database.DBTX) *BookRepository {
	return &BookRepository{pool: pool}
}

const bookColumns = `b.id, b.author_id, b.publisher_id, b.title, b.slug, b.language,
	b.published_year, b.pages, b.isbn10, b.isbn13, b.cover_url, b.description,
	b.avg_rating, b.ratings_count, b.reviews_count, b.created_at, b.updated_at`

// Create inserts a new book and its tags atomically.
func (r *BookRepository) Create(ctx context.Context, book *domain.Book) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO books (id, author_id, publisher_id, title, slug, language, published_year, pages, isbn10, isbn13, cover_url, description, avg_rating, ratings_count, reviews_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, 0, 0, $13, $14)`

	_, err = tx.Exec(ctx, query,
		book.ID,
		book.AuthorID,
		book.PublisherID,
		book.Title,
		book.Slug,
		book.Language,
		book.PublishedYear,
		book.Pages,
		book.ISBN10,
		book.ISBN13,
		book.CoverURL,
		book.Description,
		book.CreatedAt,
		book.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("book", "slug", book.Slug)
		}
		return fmt.Errorf("insert book: %w", err)
	}

	if err := replaceTags(ctx, tx, book.ID, book.Tags); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a book by its identifier, tags included.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	return r.getByField(ctx, "b.id", id)
}

// GetBySlug retrieves a book by its URL-friendly slug.
func (r *BookRepository) GetBySlug(ctx context.Context, slug string) (*domain.Book, error) {
	return r.getByField(ctx, "b.slug", slug)
}

func (r *BookRepository) getByField(ctx context.Context, field, value string) (*domain.Book, error) {
	query := `
		SELECT ` + bookColumns + `,
		       COALESCE(array_agg(t.tag) FILTER (WHERE t.tag IS NOT NULL), '{}')
		FROM books b
		LEFT JOIN book_tags t ON t.book_id = b.id
		WHERE ` + field + ` = $1
		GROUP BY b.id`

	var b domain.Book
	err := r.pool.QueryRow(ctx, query, value).Scan(
		&b.ID, &b.AuthorID, &b.PublisherID, &b.Title, &b.Slug, &b.Language,
		&b.PublishedYear, &b.Pages, &b.ISBN10, &b.ISBN13, &b.CoverURL, &b.Description,
		&b.AvgRating, &b.RatingsCount, &b.ReviewsCount, &b.CreatedAt, &b.UpdatedAt,
		&b.Tags,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("book", value)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return &b, nil
}

// List returns books matching the filter along with the total count.
func (r *BookRepository) List(ctx context.Context, filter repository.BookFilter) (_ []domain.Book, _ int, err error) {
	ctx, end := database.TraceQuery(ctx, "ListBooks", "SELECT FROM books")
	defer func() { end(err) }()

	limit, offset := normalizePage(filter.Page, filter.PerPage)

	query := `
		SELECT ` + bookColumns + `,
		       COALESCE(array_agg(t.tag) FILTER (WHERE t.tag IS NOT NULL), '{}'),
		       count(*) OVER() AS total_count
		FROM books b
		LEFT JOIN book_tags t ON t.book_id = b.id
		WHERE ($1::text IS NULL OR b.author_id = $1)
		  AND ($2::text IS NULL OR b.language = $2)
		  AND ($3::text IS NULL OR EXISTS (SELECT 1 FROM book_tags bt WHERE bt.book_id = b.id AND bt.tag = $3))
		GROUP BY b.id
		ORDER BY b.created_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query, filter.AuthorID, filter.Language, filter.Tag, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var (
		books      []domain.Book
		totalCount int
	)
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(
			&b.ID, &b.AuthorID, &b.PublisherID, &b.Title, &b.Slug, &b.Language,
			&b.PublishedYear, &b.Pages, &b.ISBN10, &b.ISBN13, &b.CoverURL, &b.Description,
			&b.AvgRating, &b.RatingsCount, &b.ReviewsCount, &b.CreatedAt, &b.UpdatedAt,
			&b.Tags, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan book row: %w", err)
		}
		if b.Tags == nil {
			b.Tags = []string{}
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate book rows: %w", err)
	}

	if books == nil {
		books = []domain.Book{}
	}
	return books, totalCount, nil
}

// Update modifies a book and replaces its tags atomically. Aggregate
// rating fields are intentionally not part of the statement.
func (r *BookRepository) Update(ctx context.Context, book *domain.Book) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE books
		SET author_id = $2, publisher_id = $3, title = $4, slug = $5, language = $6,
		    published_year = $7, pages = $8, isbn10 = $9, isbn13 = $10, cover_url = $11,
		    description = $12, updated_at = $13
		WHERE id = $1`

	tag, err := tx.Exec(ctx, query,
		book.ID,
		book.AuthorID,
		book.PublisherID,
		book.Title,
		book.Slug,
		book.Language,
		book.PublishedYear,
		book.Pages,
		book.ISBN10,
		book.ISBN13,
		book.CoverURL,
		book.Description,
		book.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("book", "slug", book.Slug)
		}
		return fmt.Errorf("update book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("book", book.ID)
	}

	if err := replaceTags(ctx, tx, book.ID, book.Tags); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes a book by its identifier. Dependent rows go with it
// via ON DELETE CASCADE.
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("book", id)
	}
	return nil
}

// ListForIndex returns every book joined with author, publisher and
// tags, projected into search documents.
func (r *BookRepository) ListForIndex(ctx context.Context) ([]domain.BookDocument, error) {
	rows, err := r.pool.Query(ctx, indexBookQuery+` ORDER BY b.created_at`)
	if err != nil {
		return nil, fmt.Errorf("list books for index: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.BookDocument, 0)
	for rows.Next() {
		d, err := scanBookDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book documents: %w", err)
	}
	return docs, nil
}

// GetForIndex returns a single book projected into a search document.
func (r *BookRepository) GetForIndex(ctx context.Context, id string) (*domain.BookDocument, error) {
	rows, err := r.pool.Query(ctx, indexBookQuery+` AND b.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get book for index: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get book for index: %w", err)
		}
		return nil, apperrors.NotFound("book", id)
	}
	return scanBookDocument(rows)
}

const indexBookQuery = `
	SELECT b.id, b.title, b.slug, b.description, b.author_id, a.name,
	       COALESCE(p.name, ''), b.language, COALESCE(b.published_year, 0),
	       COALESCE((SELECT array_agg(t.tag) FROM book_tags t WHERE t.book_id = b.id), '{}'),
	       b.avg_rating, b.ratings_count, b.reviews_count
	FROM books b
	JOIN authors a ON a.id = b.author_id
	LEFT JOIN publishers p ON p.id = b.publisher_id
	WHERE true`

func scanBookDocument(rows pgx.Rows) (*domain.BookDocument, error) {
	var d domain.BookDocument
	if err := rows.Scan(
		&d.ID, &d.Title, &d.Slug, &d.Description, &d.AuthorID, &d.AuthorName,
		&d.PublisherName, &d.Language, &d.PublishedYear, &d.Tags,
		&d.AvgRating, &d.RatingsCount, &d.ReviewsCount,
	); err != nil {
		return nil, fmt.Errorf("scan book document: %w", err)
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return &d, nil
}

// replaceTags rewrites the book's tag set inside the caller's
// transaction.
func replaceTags(ctx context.Context, tx pgx.Tx, bookID string, tags []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM book_tags WHERE book_id = $1`, bookID); err != nil {
		return fmt.Errorf("clear book tags: %w", err)
	}
	for _, tag := range tags {
		if _, err := tx.Exec(ctx, `INSERT INTO book_tags (book_id, tag) VALUES ($1, $2)`, bookID, tag); err != nil {
			return fmt.Errorf("insert book tag: %w", err)
		}
	}
	return nil
}
