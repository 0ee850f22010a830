package domain

import (
	"time"
)

// Comment represents a user's comment on a review.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ReviewID  string    `json:"review_id"`
	BodyMD    string    `json:"body_md"`
	BodyHTML  string    `json:"body_html"`
	IsSpoiler bool      `json:"is_spoiler"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
