package repository

import (
	"context"

	"github.com/HadesXChaos/WebBookRate/internal/domain"
)

// BookFilter defines filter criteria for listing books.
type BookFilter struct {
	AuthorID *string
	Tag      *string
	Language *string
	Page     int
	PerPage  int
}

// ReviewFilter defines filter criteria for listing a book's reviews.
type ReviewFilter struct {
	Status          *string
	IncludeSpoilers bool
	Page            int
	PerPage         int
}

// AuthorRepository defines author persistence operations.
type AuthorRepository interface {
	Create(ctx context.Context, author *domain.Author) error
	GetByID(ctx context.Context, id string) (*domain.Author, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Author, error)
	List(ctx context.Context, page, perPage int) ([]domain.Author, int, error)
	Update(ctx context.Context, author *domain.Author) error
	Delete(ctx context.Context, id string) error

	// ListForIndex returns every author joined with its book count,
	// projected into search documents.
	ListForIndex(ctx context.Context) ([]domain.AuthorDocument, error)
}

// BookRepository defines book persistence operations. Aggregate rating
// fields on books are written only by ReviewRepository.
type BookRepository interface {
	Create(ctx context.Context, book *domain.Book) error
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Book, error)
	List(ctx context.Context, filter BookFilter) ([]domain.Book, int, error)
	Update(ctx context.Context, book *domain.Book) error
	Delete(ctx context.Context, id string) error

	// ListForIndex returns every book joined with author, publisher and
	// tags, projected into search documents.
	ListForIndex(ctx context.Context) ([]domain.BookDocument, error)

	// GetForIndex returns a single book projected into a search
	// document.
	GetForIndex(ctx context.Context, id string) (*domain.BookDocument, error)
}

// ReviewRepository defines review persistence operations.
//
// Create, Update and Delete each run inside a single transaction that
// also recomputes the owning book's aggregate rating fields from the
// set of published reviews, so no partial state is ever visible.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	ListByBookID(ctx context.Context, bookID string, filter ReviewFilter) ([]domain.Review, int, error)

	// Update persists the review. When recompute is true (rating or
	// status changed) the book aggregate is rewritten in the same
	// transaction; otherwise the aggregate is left untouched.
	Update(ctx context.Context, review *domain.Review, recompute bool) error

	// Delete removes the review and recomputes the owning book's
	// aggregate in the same transaction. actorID is recorded in the
	// audit log.
	Delete(ctx context.Context, id, actorID string) error

	// GetSummary returns the aggregate rating statistics currently
	// stored on the book row.
	GetSummary(ctx context.Context, bookID string) (*domain.ReviewSummary, error)

	// ListForIndex returns every published review joined with book and
	// author, projected into search documents.
	ListForIndex(ctx context.Context) ([]domain.ReviewDocument, error)

	// GetForIndex returns a single published review projected into a
	// search document. Returns ErrNotFound for missing or unpublished
	// reviews.
	GetForIndex(ctx context.Context, id string) (*domain.ReviewDocument, error)
}

// CommentRepository defines comment persistence operations.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByReviewID(ctx context.Context, reviewID string, page, perPage int) ([]domain.Comment, int, error)
	Update(ctx context.Context, comment *domain.Comment) error
	Delete(ctx context.Context, id string) error
}

// ReactionRepository defines reaction persistence operations. Set,
// Toggle and Remove recount the review's helpful_count inside the
// same transaction as the reaction write.
type ReactionRepository interface {
	Set(ctx context.Context, reaction *domain.Reaction) error
	// Toggle removes the user's reaction when it already has the given
	// type, otherwise it creates or replaces it. removed reports which
	// branch was taken.
	Toggle(ctx context.Context, reaction *domain.Reaction) (removed bool, err error)
	Remove(ctx context.Context, userID, reviewID string) error
	GetByUserAndReview(ctx context.Context, userID, reviewID string) (*domain.Reaction, error)
}

// BookshelfRepository defines bookshelf persistence operations.
type BookshelfRepository interface {
	Create(ctx context.Context, shelf *domain.Bookshelf) error
	GetByID(ctx context.Context, id string) (*domain.Bookshelf, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.Bookshelf, error)
	Update(ctx context.Context, shelf *domain.Bookshelf) error
	Delete(ctx context.Context, id string) error

	AddItem(ctx context.Context, item *domain.BookshelfItem) error
	RemoveItem(ctx context.Context, shelfID, bookID string) error
	ListItems(ctx context.Context, shelfID string, page, perPage int) ([]domain.BookshelfItem, int, error)
}

// ReadingStatusRepository defines reading status persistence
// operations.
type ReadingStatusRepository interface {
	// Upsert creates or replaces the user's status for a book.
	Upsert(ctx context.Context, status *domain.ReadingStatus) error
	Get(ctx context.Context, userID, bookID string) (*domain.ReadingStatus, error)
	ListByUserID(ctx context.Context, userID string, page, perPage int) ([]domain.ReadingStatus, int, error)
	Delete(ctx context.Context, userID, bookID string) error
}

// ReportRepository defines report persistence operations.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	List(ctx context.Context, status *string, page, perPage int) ([]domain.Report, int, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// AuditLogRepository defines audit log persistence operations.
type AuditLogRepository interface {
	Record(ctx context.Context, entry *domain.AuditLog) error
	ListByTarget(ctx context.Context, target domain.Target, page, perPage int) ([]domain.AuditLog, int, error)
}

// TargetResolver checks that a report target of a given kind exists.
type TargetResolver interface {
	Exists(ctx context.Context, target domain.Target) (bool, error)
}
