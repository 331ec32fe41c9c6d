package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const ReviewRequestStatusSent = "sent"

// ReviewRequest is one outbound review-request email. Rows are never updated.
type ReviewRequest struct {
	ID                string    `json:"id"`
	BusinessID        string    `json:"business_id"`
	CustomerID        string    `json:"customer_id"`
	Status            string    `json:"status"`
	ReviewLink        string    `json:"review_link"`
	ProviderMessageID string    `json:"provider_message_id"`
	CreatedAt         time.Time `json:"created_at"`
}

func NewSentReviewRequest(businessID, customerID, link, messageID string, at time.Time) *ReviewRequest {
	return &ReviewRequest{
		ID:                uuid.New().String(),
		BusinessID:        businessID,
		CustomerID:        customerID,
		Status:            ReviewRequestStatusSent,
		ReviewLink:        link,
		ProviderMessageID: messageID,
		CreatedAt:         at.UTC(),
	}
}

type ReviewRequestRepository interface {
	Create(ctx context.Context, rr *ReviewRequest) error
	// ExistsSince reports whether any request for the pair was created at or after since.
	ExistsSince(ctx context.Context, businessID, customerID string, since time.Time) (bool, error)
}
