package domain

import (
	"math"
	"time"
)

// Review statuses.
const (
	ReviewStatusPending   = "pending"
	ReviewStatusPublished = "published"
	ReviewStatusHidden    = "hidden"
)

// IsValidReviewStatus checks whether the given status is recognized.
func IsValidReviewStatus(status string) bool {
	switch status {
	case ReviewStatusPending, ReviewStatusPublished, ReviewStatusHidden:
		return true
	}
	return false
}

// Review represents a user's review of a book, optionally tied to a
// specific edition. At most one review exists per (user, book, edition).
type Review struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	BookID       string    `json:"book_id"`
	EditionID    *string   `json:"edition_id,omitempty"`
	Title        string    `json:"title,omitempty"`
	BodyMD       string    `json:"body_md"`
	BodyHTML     string    `json:"body_html"`
	Rating       float64   `json:"rating"`
	IsSpoiler    bool      `json:"is_spoiler"`
	Status       string    `json:"status"`
	HelpfulCount int       `json:"helpful_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsValidRating checks that the rating lies on the half-star scale
// from 0.5 to 5.0.
func IsValidRating(rating float64) bool {
	if rating < 0.5 || rating > 5.0 {
		return false
	}
	doubled := rating * 2
	return doubled == math.Trunc(doubled)
}

// ReviewSummary contains the aggregate rating statistics for a book,
// derived from its published reviews.
type ReviewSummary struct {
	AvgRating    float64 `json:"avg_rating"`
	RatingsCount int     `json:"ratings_count"`
	ReviewsCount int     `json:"reviews_count"`
}
