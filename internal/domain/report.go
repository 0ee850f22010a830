package domain

import (
	"fmt"
	"time"
)

// TargetKind enumerates the closed set of entity kinds a report or
// audit log entry can point at.
type TargetKind string

// Recognized target kinds.
const (
	TargetBook    TargetKind = "book"
	TargetReview  TargetKind = "review"
	TargetComment TargetKind = "comment"
	TargetUser    TargetKind = "user"
)

// IsValid reports whether the kind is a member of the closed set.
func (k TargetKind) IsValid() bool {
	switch k {
	case TargetBook, TargetReview, TargetComment, TargetUser:
		return true
	}
	return false
}

// Target identifies a single entity of a known kind.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

// NewTarget builds a validated target.
func NewTarget(kind TargetKind, id string) (Target, error) {
	if !kind.IsValid() {
		return Target{}, fmt.Errorf("unknown target kind %q", kind)
	}
	if id == "" {
		return Target{}, fmt.Errorf("target id is required")
	}
	return Target{Kind: kind, ID: id}, nil
}

// Report statuses.
const (
	ReportStatusOpen      = "open"
	ReportStatusReviewing = "reviewing"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

// IsValidReportStatus checks whether the given status is recognized.
func IsValidReportStatus(status string) bool {
	switch status {
	case ReportStatusOpen, ReportStatusReviewing, ReportStatusResolved, ReportStatusDismissed:
		return true
	}
	return false
}

// Report is a user's complaint about a book, review, comment or user.
type Report struct {
	ID         string    `json:"id"`
	ReporterID string    `json:"reporter_id"`
	Target     Target    `json:"target"`
	Reason     string    `json:"reason"`
	Note       string    `json:"note,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AuditLog records a moderation-relevant action against a target.
type AuditLog struct {
	ID        string         `json:"id"`
	ActorID   string         `json:"actor_id"`
	Action    string         `json:"action"`
	Target    Target         `json:"target"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Audit actions recorded by the write paths.
const (
	AuditReviewCreated  = "review.created"
	AuditReviewUpdated  = "review.updated"
	AuditReviewDeleted  = "review.deleted"
	AuditReportResolved = "report.resolved"
)
