package entity

import (
	"context"
	"strings"
	"time"
)

type Business struct {
	ID                   string    `json:"id"`
	OwnerUserID          string    `json:"owner_user_id"`
	Name                 string    `json:"name"`
	ReviewLink           string    `json:"review_link,omitempty"`
	GoogleWriteReviewURI string    `json:"google_write_review_uri,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ResolvedReviewLink prefers the Google write-review URI over the generic link.
func (b *Business) ResolvedReviewLink() string {
	if uri := strings.TrimSpace(b.GoogleWriteReviewURI); uri != "" {
		return uri
	}
	return strings.TrimSpace(b.ReviewLink)
}

func (b *Business) IsOwnedBy(userID string) bool {
	return userID != "" && b.OwnerUserID == userID
}

type BusinessRepository interface {
	FindByID(ctx context.Context, id string) (*Business, error)
}
