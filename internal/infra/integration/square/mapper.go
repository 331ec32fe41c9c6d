package square

import (
	"strings"
	"time"

	"github.com/xavierca1/ligue-reviews/internal/entity"
)

// ToCandidate maps a Square customer onto a typed candidate. A missing email
// yields an empty Email; an absent or malformed created_at yields a zero time.
func ToCandidate(c Customer) entity.Candidate {
	var createdAt time.Time
	if ts := strings.TrimSpace(c.CreatedAt); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			createdAt = t.UTC()
		}
	}

	return entity.Candidate{
		Email:      entity.NormalizeEmail(c.EmailAddress),
		GivenName:  strings.TrimSpace(c.GivenName),
		FamilyName: strings.TrimSpace(c.FamilyName),
		Phone:      strings.TrimSpace(c.PhoneNumber),
		CreatedAt:  createdAt,
	}
}

func ToCandidatePage(resp *ListCustomersResponse) *entity.CandidatePage {
	page := &entity.CandidatePage{
		Candidates: make([]entity.Candidate, 0, len(resp.Customers)),
		Cursor:     resp.Cursor,
	}
	for _, c := range resp.Customers {
		page.Candidates = append(page.Candidates, ToCandidate(c))
	}
	return page
}
