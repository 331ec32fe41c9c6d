package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/xavierca1/ligue-reviews/internal/entity"
)

const (
	MaxBackfillLimit     = 500
	DefaultBackfillLimit = 200
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateBackfillInput parses dates and applies limit defaults. Only the first
// failing field is reported.
func ValidateBackfillInput(input RunBackfillInput) (*BackfillParams, error) {
	businessID := strings.TrimSpace(input.BusinessID)
	if businessID == "" {
		return nil, ValidationError{"businessId", "is required"}
	}

	start, err := parseOptionalDate(input.StartDate, false)
	if err != nil {
		return nil, ValidationError{"startDate", "must be an ISO-8601 date"}
	}
	end, err := parseOptionalDate(input.EndDate, true)
	if err != nil {
		return nil, ValidationError{"endDate", "must be an ISO-8601 date"}
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, ValidationError{"startDate", "must not be after endDate"}
	}

	limit := DefaultBackfillLimit
	if input.MaxCustomers != nil {
		limit = ClampLimit(*input.MaxCustomers)
	}

	return &BackfillParams{
		BusinessID: businessID,
		Window:     entity.DateWindow{Start: start, End: end},
		DryRun:     input.DryRun,
		Limit:      limit,
	}, nil
}

func ClampLimit(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxBackfillLimit {
		return MaxBackfillLimit
	}
	return n
}

const dateOnly = "2006-01-02"

// parseOptionalDate accepts RFC3339 timestamps or a bare UTC date. A bare date is
// midnight, or the last instant of that day when endOfDay is set.
func parseOptionalDate(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	t, err := time.Parse(dateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", s)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}
