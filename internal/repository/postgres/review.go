package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HadesXChaos/WebBookRate/internal/domain"
	"github.com/HadesXChaos/WebBookRate/internal/repository"
	"github.com/HadesXChaos/WebBookRate/pkg/database"
	apperrors "github.com/HadesXChaos/WebBookRate/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using
// PostgreSQL.
//
// Every mutation runs in one transaction together with a recompute of
// the owning book's aggregate rating fields from the full set of
// published reviews. Recomputing from ground truth rather than
// applying deltas keeps the aggregate correct under any interleaving
// of concurrent writers, as long as the isolation level is at least
// read committed.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

const reviewColumns = `id, user_id, book_id, edition_id, title, body_md, body_html,
	rating, is_spoiler, status, helpful_count, created_at, updated_at`

// aggregateQuery derives the book aggregate from the published review
// set. COALESCE keeps the average at 0 (not NULL) when the set is
// empty.
const aggregateQuery = `
	SELECT COALESCE(AVG(rating), 0), COUNT(*)
	FROM reviews
	WHERE book_id = $1 AND status = 'published'`

// Create inserts the review, recomputes the owning book's aggregate
// and records an audit entry, all in one transaction. A duplicate
// (user, book, edition) triple is rejected before any aggregate write.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateReview", "INSERT INTO reviews")
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO reviews (id, user_id, book_id, edition_id, title, body_md, body_html, rating, is_spoiler, status, helpful_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = tx.Exec(ctx, query,
		review.ID,
		review.UserID,
		review.BookID,
		review.EditionID,
		review.Title,
		review.BodyMD,
		review.BodyHTML,
		review.Rating,
		review.IsSpoiler,
		review.Status,
		review.HelpfulCount,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "user/book/edition", review.UserID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	if err := r.recomputeBookAggregate(ctx, tx, review.BookID); err != nil {
		return err
	}

	if err := recordAudit(ctx, tx, review.UserID, domain.AuditReviewCreated, domain.Target{Kind: domain.TargetReview, ID: review.ID}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a review by its identifier.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	var rv domain.Review
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rv.ID, &rv.UserID, &rv.BookID, &rv.EditionID, &rv.Title, &rv.BodyMD, &rv.BodyHTML,
		&rv.Rating, &rv.IsSpoiler, &rv.Status, &rv.HelpfulCount, &rv.CreatedAt, &rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &rv, nil
}

// ListByBookID returns paginated reviews for a book along with the
// total count. The filter defaults to published reviews.
func (r *ReviewRepository) ListByBookID(ctx context.Context, bookID string, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	status := domain.ReviewStatusPublished
	if filter.Status != nil {
		status = *filter.Status
	}

	query := `
		SELECT ` + reviewColumns + `,
		       count(*) OVER() AS total_count
		FROM reviews
		WHERE book_id = $1 AND status = $2 AND ($3 OR NOT is_spoiler)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query, bookID, status, filter.IncludeSpoilers, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews    []domain.Review
		totalCount int
	)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID, &rv.UserID, &rv.BookID, &rv.EditionID, &rv.Title, &rv.BodyMD, &rv.BodyHTML,
			&rv.Rating, &rv.IsSpoiler, &rv.Status, &rv.HelpfulCount, &rv.CreatedAt, &rv.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}
	return reviews, totalCount, nil
}

// Update persists the review and, when recompute is true, rewrites the
// book aggregate in the same transaction. Title/body-only edits pass
// recompute=false and leave the aggregate untouched.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review, recompute bool) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateReview", "UPDATE reviews")
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE reviews
		SET title = $2, body_md = $3, body_html = $4, rating = $5, is_spoiler = $6, status = $7, updated_at = $8
		WHERE id = $1`

	tag, err := tx.Exec(ctx, query,
		review.ID,
		review.Title,
		review.BodyMD,
		review.BodyHTML,
		review.Rating,
		review.IsSpoiler,
		review.Status,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("review", review.ID)
	}

	if recompute {
		if err := r.recomputeBookAggregate(ctx, tx, review.BookID); err != nil {
			return err
		}
	}

	if err := recordAudit(ctx, tx, review.UserID, domain.AuditReviewUpdated, domain.Target{Kind: domain.TargetReview, ID: review.ID}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes the review and recomputes the owning book's
// aggregate. The book reference is captured before the delete; the
// recompute query excludes the deleted row naturally.
func (r *ReviewRepository) Delete(ctx context.Context, id, actorID string) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteReview", "DELETE FROM reviews")
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var bookID string
	err = tx.QueryRow(ctx, `SELECT book_id FROM reviews WHERE id = $1`, id).Scan(&bookID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("review", id)
		}
		return fmt.Errorf("get review book: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if err := r.recomputeBookAggregate(ctx, tx, bookID); err != nil {
		return err
	}

	if err := recordAudit(ctx, tx, actorID, domain.AuditReviewDeleted, domain.Target{Kind: domain.TargetReview, ID: id}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetSummary returns the aggregate rating statistics stored on the
// book row.
func (r *ReviewRepository) GetSummary(ctx context.Context, bookID string) (*domain.ReviewSummary, error) {
	query := `SELECT avg_rating, ratings_count, reviews_count FROM books WHERE id = $1`

	var s domain.ReviewSummary
	err := r.pool.QueryRow(ctx, query, bookID).Scan(&s.AvgRating, &s.RatingsCount, &s.ReviewsCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("book", bookID)
		}
		return nil, fmt.Errorf("get review summary: %w", err)
	}
	return &s, nil
}

// ListForIndex returns every published review joined with its book and
// author, projected into search documents.
func (r *ReviewRepository) ListForIndex(ctx context.Context) ([]domain.ReviewDocument, error) {
	query := `
		SELECT r.id, r.book_id, b.title, a.name, r.user_id, r.title, r.body_md,
		       r.rating, r.is_spoiler, r.created_at
		FROM reviews r
		JOIN books b ON b.id = r.book_id
		JOIN authors a ON a.id = b.author_id
		WHERE r.status = 'published'
		ORDER BY r.created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reviews for index: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.ReviewDocument, 0)
	for rows.Next() {
		var d domain.ReviewDocument
		if err := rows.Scan(
			&d.ID, &d.BookID, &d.BookTitle, &d.AuthorName, &d.UserID, &d.Title, &d.Body,
			&d.Rating, &d.IsSpoiler, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review documents: %w", err)
	}
	return docs, nil
}

// GetForIndex returns a single published review as a search document.
func (r *ReviewRepository) GetForIndex(ctx context.Context, id string) (*domain.ReviewDocument, error) {
	query := `
		SELECT r.id, r.book_id, b.title, a.name, r.user_id, r.title, r.body_md,
		       r.rating, r.is_spoiler, r.created_at
		FROM reviews r
		JOIN books b ON b.id = r.book_id
		JOIN authors a ON a.id = b.author_id
		WHERE r.id = $1 AND r.status = 'published'`

	var d domain.ReviewDocument
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.BookID, &d.BookTitle, &d.AuthorName, &d.UserID, &d.Title, &d.Body,
		&d.Rating, &d.IsSpoiler, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review for index: %w", err)
	}
	return &d, nil
}

// recomputeBookAggregate derives avg_rating and the counters from the
// published review set and writes them to the book row. The average is
// rounded half-up to 2 fractional digits before persisting.
func (r *ReviewRepository) recomputeBookAggregate(ctx context.Context, tx pgx.Tx, bookID string) error {
	var (
		avg   float64
		count int
	)
	if err := tx.QueryRow(ctx, aggregateQuery, bookID).Scan(&avg, &count); err != nil {
		return fmt.Errorf("aggregate published reviews: %w", err)
	}

	avg = roundHalfUp(avg)

	query := `
		UPDATE books
		SET avg_rating = $2, ratings_count = $3, reviews_count = $3, updated_at = now()
		WHERE id = $1`

	if _, err := tx.Exec(ctx, query, bookID, avg, count); err != nil {
		return fmt.Errorf("write book aggregate: %w", err)
	}
	return nil
}

// roundHalfUp rounds to 2 fractional digits with ties rounded up, so
// 4.125 persists as 4.13 rather than banker's-rounded 4.12.
func roundHalfUp(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// recordAudit inserts an audit log row inside the caller's
// transaction.
func recordAudit(ctx context.Context, tx pgx.Tx, actorID, action string, target domain.Target) error {
	query := `
		INSERT INTO audit_logs (id, actor_id, action, target_kind, target_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, '{}', now())`

	if _, err := tx.Exec(ctx, query, uuid.New().String(), actorID, action, string(target.Kind), target.ID); err != nil {
		return fmt.Errorf("record audit log: %w", err)
	}
	return nil
}
