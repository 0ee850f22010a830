package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/HadesXChaos/WebBookRate/internal/domain"
	"github.com/HadesXChaos/WebBookRate/internal/repository"
	apperrors "github.com/HadesXChaos/WebBookRate/pkg/errors"
	"github.com/HadesXChaos/WebBookRate/pkg/markdown"
)

// --- Mock Repositories ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListByBookID(ctx context.Context, bookID string, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	args := m.Called(ctx, bookID, filter)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) Update(ctx context.Context, review *domain.Review, recompute bool) error {
	args := m.Called(ctx, review, recompute)
	return args.Error(0)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id, actorID string) error {
	args := m.Called(ctx, id, actorID)
	return args.Error(0)
}

func (m *mockReviewRepository) GetSummary(ctx context.Context, bookID string) (*domain.ReviewSummary, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewSummary), args.Error(1)
}

func (m *mockReviewRepository) ListForIndex(ctx context.Context) ([]domain.ReviewDocument, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.ReviewDocument), args.Error(1)
}

func (m *mockReviewRepository) GetForIndex(ctx context.Context, id string) (*domain.ReviewDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewDocument), args.Error(1)
}

type mockBookRepository struct {
	mock.Mock
}

func (m *mockBookRepository) Create(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *mockBookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *mockBookRepository) GetBySlug(ctx context.Context, slug string) (*domain.Book, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *mockBookRepository) List(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Book), args.Int(1), args.Error(2)
}

func (m *mockBookRepository) Update(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *mockBookRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockBookRepository) ListForIndex(ctx context.Context) ([]domain.BookDocument, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.BookDocument), args.Error(1)
}

func (m *mockBookRepository) GetForIndex(ctx context.Context, id string) (*domain.BookDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookDocument), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newReviewService(reviews *mockReviewRepository, books *mockBookRepository) *ReviewService {
	return NewReviewService(reviews, books, markdown.NewRenderer(), nil, nil, newTestLogger())
}

func publishedReview() *domain.Review {
	return &domain.Review{
		ID:       "review-1",
		UserID:   "user-1",
		BookID:   "book-1",
		Title:    "Worth the hype",
		BodyMD:   "A *great* read.",
		BodyHTML: "<p>A <em>great</em> read.</p>",
		Rating:   4.0,
		Status:   domain.ReviewStatusPublished,
	}
}

// --- CreateReview ---

func TestCreateReview_Success(t *testing.T) {
	reviews := new(mockReviewRepository)
	books := new(mockBookRepository)
	svc := newReviewService(reviews, books)

	books.On("GetByID", mock.Anything, "book-1").Return(&domain.Book{ID: "book-1"}, nil)
	reviews.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Review) bool {
		return r.BookID == "book-1" &&
			r.UserID == "user-1" &&
			r.Rating == 4.5 &&
			r.Status == domain.ReviewStatusPublished &&
			r.BodyHTML != ""
	})).Return(nil)

	review, err := svc.CreateReview(context.Background(), &CreateReviewInput{
		BookID: "book-1",
		UserID: "user-1",
		BodyMD: "A **bold** claim.",
		Rating: 4.5,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, review.ID)
	assert.Contains(t, review.BodyHTML, "<strong>bold</strong>")

	reviews.AssertExpectations(t)
	books.AssertExpectations(t)
}

func TestCreateReview_RejectsOffScaleRating(t *testing.T) {
	svc := newReviewService(new(mockReviewRepository), new(mockBookRepository))

	for _, rating := range []float64{0, 0.4, 4.2, 5.5, -1} {
		_, err := svc.CreateReview(context.Background(), &CreateReviewInput{
			BookID: "book-1",
			UserID: "user-1",
			BodyMD: "text",
			Rating: rating,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "rating %v", rating)
	}
}

func TestCreateReview_RejectsMissingBody(t *testing.T) {
	svc := newReviewService(new(mockReviewRepository), new(mockBookRepository))

	_, err := svc.CreateReview(context.Background(), &CreateReviewInput{
		BookID: "book-1",
		UserID: "user-1",
		Rating: 4.0,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateReview_UnknownBook(t *testing.T) {
	reviews := new(mockReviewRepository)
	books := new(mockBookRepository)
	svc := newReviewService(reviews, books)

	books.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NotFound("book", "missing"))

	_, err := svc.CreateReview(context.Background(), &CreateReviewInput{
		BookID: "missing",
		UserID: "user-1",
		BodyMD: "text",
		Rating: 4.0,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReview_DuplicatePropagates(t *testing.T) {
	reviews := new(mockReviewRepository)
	books := new(mockBookRepository)
	svc := newReviewService(reviews, books)

	books.On("GetByID", mock.Anything, "book-1").Return(&domain.Book{ID: "book-1"}, nil)
	reviews.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.AlreadyExists("review", "user/book/edition", "user-1"))

	_, err := svc.CreateReview(context.Background(), &CreateReviewInput{
		BookID: "book-1",
		UserID: "user-1",
		BodyMD: "text",
		Rating: 3.0,
	})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

// --- UpdateReview ---

// Editing only the title or body must not trigger an aggregate
// recompute.
func TestUpdateReview_TitleOnlySkipsRecompute(t *testing.T) {
	reviews := new(mockReviewRepository)
	svc := newReviewService(reviews, new(mockBookRepository))

	existing := publishedReview()
	reviews.On("GetByID", mock.Anything, "review-1").Return(existing, nil)
	reviews.On("Update", mock.Anything, mock.Anything, false).Return(nil)

	title := "New title"
	_, err := svc.UpdateReview(context.Background(), "review-1", "user-1", false, &UpdateReviewInput{
		Title: &title,
	})
	require.NoError(t, err)

	reviews.AssertExpectations(t)
}

func TestUpdateReview_RatingChangeTriggersRecompute(t *testing.T) {
	reviews := new(mockReviewRepository)
	svc := newReviewService(reviews, new(mockBookRepository))

	existing := publishedReview()
	reviews.On("GetByID", mock.Anything, "review-1").Return(existing, nil)
	reviews.On("Update", mock.Anything, mock.MatchedBy(func(r *domain.Review) bool {
		return r.Rating == 2.5
	}), true).Return(nil)

	rating := 2.5
	_, err := svc.UpdateReview(context.Background(), "review-1", "user-1", false, &UpdateReviewInput{
		Rating: &rating,
	})
	require.NoError(t, err)

	reviews.AssertExpectations(t)
}

// Submitting the same rating again is a no-op for the aggregate.
func TestUpdateReview_SameRatingSkipsRecompute(t *testing.T) {
	reviews := new(mockReviewRepository)
	svc := newReviewService(reviews, new(mockBookRepository))

	existing := publishedReview()
	reviews.On("GetByID", mock.Anything, "review-1").Return(existing, nil)
	reviews.On("Update", mock.Anything, mock.Anything, false).Return(nil)

	rating := existing.Rating
	_, err := svc.UpdateReview(context.Background(), "review-1", "user-1", false, &UpdateReviewInput{
		Rating: &rating,
	})
	require.NoError(t, err)

	reviews.AssertExpectations(t)
}

func TestUpdateReview_StatusChangeRequiresModerator(t *testing.T) {
	reviews := new(mockReviewRepository)
	svc := newReviewService(reviews, new(mockBookRepository))

	reviews.On("GetByID", mock.Anything, "review-1").Return(publishedReview(), nil)

	status := domain.ReviewStatusHidden
	_, err := svc.UpdateReview(context.Background(), "review-1", "user-1", false, &UpdateReviewInput{
		Status: &status,
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	reviews.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateReview_ModeratorHidesReview(t *testing.T) {
	reviews := new(mockReviewRepository)
	svc := newReviewService(reviews, new(mockBookRepository))

	reviews.On("GetByID", mock.Anything, "review-1").Return(publishedReview(), nil)
	reviews.On("Update", mock.Anything, mock.MatchedBy(func(r *domain.Review) bool {
		return r.Status == domain.ReviewStatusHidden
	}), true).Return(nil)

	status := domain.ReviewStatusHidden
	review, err := svc.UpdateReview(context.Background(), "review-1", "moderator-1", true, &UpdateReviewInput{
		Status: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewStatusHidden, review.Status)

	reviews.AssertExpectations(t)
}

func TestUpdateReview_ForbiddenForOtherUser(t *testing.T) {
	reviews := new(mockReviewRepository)
	svc := newReviewService(reviews, new(mockBookRepository))

	reviews.On("GetByID", mock.Anything, "review-1").Return(publishedReview(), nil)

	title := "hijacked"
	_, err := svc.UpdateReview(context.Background(), "review-1", "user-2", false, &UpdateReviewInput{
		Title: &title,
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

// --- DeleteReview ---

func TestDeleteReview_OwnerSucceeds(t *testing.T) {
	reviews := new(mockReviewRepository)
	svc := newReviewService(reviews, new(mockBookRepository))

	reviews.On("GetByID", mock.Anything, "review-1").Return(publishedReview(), nil)
	reviews.On("Delete", mock.Anything, "review-1", "user-1").Return(nil)

	err := svc.DeleteReview(context.Background(), "review-1", "user-1", false)
	assert.NoError(t, err)

	reviews.AssertExpectations(t)
}

func TestDeleteReview_ForbiddenForOtherUser(t *testing.T) {
	reviews := new(mockReviewRepository)
	svc := newReviewService(reviews, new(mockBookRepository))

	reviews.On("GetByID", mock.Anything, "review-1").Return(publishedReview(), nil)

	err := svc.DeleteReview(context.Background(), "review-1", "user-2", false)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	reviews.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

// --- ListReviews ---

func TestListReviews_PaginationAndSummary(t *testing.T) {
	reviews := new(mockReviewRepository)
	svc := newReviewService(reviews, new(mockBookRepository))

	reviews.On("ListByBookID", mock.Anything, "book-1", mock.MatchedBy(func(f repository.ReviewFilter) bool {
		return f.Page == 1 && f.PerPage == 20
	})).Return([]domain.Review{*publishedReview()}, 41, nil)
	reviews.On("GetSummary", mock.Anything, "book-1").
		Return(&domain.ReviewSummary{AvgRating: 4.0, RatingsCount: 41, ReviewsCount: 41}, nil)

	result, err := svc.ListReviews(context.Background(), "book-1", repository.ReviewFilter{})
	require.NoError(t, err)
	assert.Equal(t, 41, result.TotalCount)
	assert.Equal(t, 3, result.TotalPages)
	assert.Equal(t, 4.0, result.Summary.AvgRating)
}
