package usecase

import "github.com/xavierca1/ligue-reviews/internal/entity"

type RunBackfillInput struct {
	UserID       string `json:"-"`
	BusinessID   string `json:"businessId"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	DryRun       bool   `json:"dryRun,omitempty"`
	MaxCustomers *int   `json:"maxCustomers,omitempty"`
}

type RunBackfillOutput struct {
	JobID           string                  `json:"jobId"`
	TotalConsidered int                     `json:"totalConsidered"`
	Sent            int                     `json:"sent"`
	Skipped         int                     `json:"skipped"`
	DryRun          bool                    `json:"dryRun"`
	Results         []entity.BackfillResult `json:"results"`
}

// BackfillParams is a validated RunBackfillInput.
type BackfillParams struct {
	BusinessID string
	Window     entity.DateWindow
	DryRun     bool
	Limit      int
}

type GetLatestBackfillInput struct {
	UserID     string
	BusinessID string
}

type GetLatestBackfillOutput struct {
	Job *entity.BackfillJob `json:"job"`
}
