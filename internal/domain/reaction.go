package domain

import (
	"time"
)

// Reaction types. A reaction of type "helpful" contributes to the
// review's helpful_count.
const (
	ReactionHelpful    = "helpful"
	ReactionLike       = "like"
	ReactionInsightful = "insightful"
)

// IsValidReactionType checks whether the given type is recognized.
func IsValidReactionType(t string) bool {
	switch t {
	case ReactionHelpful, ReactionLike, ReactionInsightful:
		return true
	}
	return false
}

// Reaction represents a user's reaction to a review.
// A user has at most one reaction per review.
type Reaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ReviewID  string    `json:"review_id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
