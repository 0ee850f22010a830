package domain

import (
	"time"
)

// Bookshelf is a user-owned, named collection of books.
type Bookshelf struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookshelfItem is a single book on a shelf. A book appears at most
// once per shelf.
type BookshelfItem struct {
	ID          string    `json:"id"`
	BookshelfID string    `json:"bookshelf_id"`
	BookID      string    `json:"book_id"`
	Note        string    `json:"note,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}
