package domain

import (
	"time"
)

// BookDocument is the flattened projection of a book stored in the
// search index. Documents are rebuilt from primary-store state and are
// never authoritative.
type BookDocument struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	AuthorID      string   `json:"author_id"`
	AuthorName    string   `json:"author_name"`
	PublisherName string   `json:"publisher_name,omitempty"`
	Language      string   `json:"language,omitempty"`
	PublishedYear int      `json:"published_year,omitempty"`
	Tags          []string `json:"tags"`
	AvgRating     float64  `json:"avg_rating"`
	RatingsCount  int      `json:"ratings_count"`
	ReviewsCount  int      `json:"reviews_count"`
}

// AuthorDocument is the flattened projection of an author.
type AuthorDocument struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Bio        string `json:"bio,omitempty"`
	Country    string `json:"country,omitempty"`
	BooksCount int    `json:"books_count"`
}

// ReviewDocument is the flattened projection of a published review.
type ReviewDocument struct {
	ID         string    `json:"id"`
	BookID     string    `json:"book_id"`
	BookTitle  string    `json:"book_title"`
	AuthorName string    `json:"author_name"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title,omitempty"`
	Body       string    `json:"body"`
	Rating     float64   `json:"rating"`
	IsSpoiler  bool      `json:"is_spoiler"`
	CreatedAt  time.Time `json:"created_at"`
}
