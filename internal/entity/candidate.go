package entity

import (
	"context"
	"strings"
	"time"
)

// Candidate is a CRM contact under evaluation for a review request.
type Candidate struct {
	Email      string
	GivenName  string
	FamilyName string
	Phone      string
	CreatedAt  time.Time
}

func (c Candidate) FullName() string {
	return strings.TrimSpace(strings.Join([]string{
		strings.TrimSpace(c.GivenName),
		strings.TrimSpace(c.FamilyName),
	}, " "))
}

// DisplayName falls back to the raw email when no name part is known.
func (c Candidate) DisplayName() string {
	if name := c.FullName(); name != "" {
		return name
	}
	return c.Email
}

// DateWindow is an inclusive creation-date range; nil bounds are open.
type DateWindow struct {
	Start *time.Time
	End   *time.Time
}

func (w DateWindow) IsOpen() bool {
	return w.Start == nil && w.End == nil
}

func (w DateWindow) Contains(t time.Time) bool {
	if w.IsOpen() {
		return true
	}
	if t.IsZero() {
		return false
	}
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

// CandidatePage is one page of a CRM customer listing. Candidates with an empty
// Email had no usable address at the source.
type CandidatePage struct {
	Candidates []Candidate
	Cursor     string
}

type CustomerSource interface {
	ListCustomers(ctx context.Context, cursor string) (*CandidatePage, error)
}
