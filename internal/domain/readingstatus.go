package domain

import (
	"time"
)

// Reading statuses.
const (
	ReadingStatusWant      = "want"
	ReadingStatusReading   = "reading"
	ReadingStatusRead      = "read"
	ReadingStatusAbandoned = "abandoned"
)

// IsValidReadingStatus checks whether the given status is recognized.
func IsValidReadingStatus(status string) bool {
	switch status {
	case ReadingStatusWant, ReadingStatusReading, ReadingStatusRead, ReadingStatusAbandoned:
		return true
	}
	return false
}

// ReadingStatus tracks a user's progress through a book.
// A user has at most one status per book.
type ReadingStatus struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	BookID        string     `json:"book_id"`
	Status        string     `json:"status"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	ProgressPages *int       `json:"progress_pages,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
