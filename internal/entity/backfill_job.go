package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Per-candidate classifications.
const (
	ResultSent      = "sent"
	ResultSkipped   = "skipped"
	ResultWouldSend = "would_send"
)

// Skip reasons.
const (
	ReasonRecentRequest     = "recent_request"
	ReasonMissingReviewLink = "missing_review_link"
)

type BackfillFilters struct {
	DryRun bool `json:"dryRun"`
	Limit  int  `json:"limit"`
}

type BackfillResult struct {
	Email  string `json:"email"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// BackfillJob is created running and finalized exactly once.
type BackfillJob struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	BusinessID     string          `json:"business_id"`
	Status         string          `json:"status"`
	RequestedStart *time.Time      `json:"requested_start,omitempty"`
	RequestedEnd   *time.Time      `json:"requested_end,omitempty"`
	Filters        BackfillFilters `json:"filters"`
	Total          int             `json:"total"`
	Sent           int             `json:"sent"`
	Skipped        int             `json:"skipped"`
	Error          *string         `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func NewBackfillJob(userID, businessID string, start, end *time.Time, filters BackfillFilters) *BackfillJob {
	now := time.Now().UTC()
	return &BackfillJob{
		ID:             uuid.New().String(),
		UserID:         userID,
		BusinessID:     businessID,
		Status:         JobStatusRunning,
		RequestedStart: start,
		RequestedEnd:   end,
		Filters:        filters,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (j *BackfillJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

type BackfillJobRepository interface {
	Create(ctx context.Context, job *BackfillJob) error
	MarkCompleted(ctx context.Context, id string, total, sent, skipped int) error
	MarkFailed(ctx context.Context, id, message string) error
	FindLatestByBusiness(ctx context.Context, businessID string) (*BackfillJob, error)
}
