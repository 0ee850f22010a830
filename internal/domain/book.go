package domain

import (
	"time"
)

// Book represents a book in the catalog.
//
// AvgRating, RatingsCount and ReviewsCount are derived from the set of
// published reviews and are written only by the review persistence layer,
// never from user input.
type Book struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"author_id"`
	PublisherID   *string   `json:"publisher_id,omitempty"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Language      string    `json:"language,omitempty"`
	PublishedYear *int      `json:"published_year,omitempty"`
	Pages         *int      `json:"pages,omitempty"`
	ISBN10        string    `json:"isbn10,omitempty"`
	ISBN13        string    `json:"isbn13,omitempty"`
	CoverURL      string    `json:"cover_url,omitempty"`
	Description   string    `json:"description,omitempty"`
	Tags          []string  `json:"tags"`
	AvgRating     float64   `json:"avg_rating"`
	RatingsCount  int       `json:"ratings_count"`
	ReviewsCount  int       `json:"reviews_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Edition represents a specific published edition of a book
// (hardcover, paperback, ebook, audiobook and so on).
type Edition struct {
	ID            string    `json:"id"`
	BookID        string    `json:"book_id"`
	Format        string    `json:"format"`
	ISBN10        string    `json:"isbn10,omitempty"`
	ISBN13        string    `json:"isbn13,omitempty"`
	PublishedYear *int      `json:"published_year,omitempty"`
	Pages         *int      `json:"pages,omitempty"`
	CoverURL      string    `json:"cover_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Edition formats.
const (
	EditionFormatHardcover = "hardcover"
	EditionFormatPaperback = "paperback"
	EditionFormatEbook     = "ebook"
	EditionFormatAudiobook = "audiobook"
)

// IsValidEditionFormat checks whether the given format is recognized.
func IsValidEditionFormat(format string) bool {
	switch format {
	case EditionFormatHardcover, EditionFormatPaperback, EditionFormatEbook, EditionFormatAudiobook:
		return true
	}
	return false
}
