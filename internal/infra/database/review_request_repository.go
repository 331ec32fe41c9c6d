package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xavierca1/ligue-reviews/internal/entity"
)

type ReviewRequestRepository struct {
	DB *sql.DB
}

func NewReviewRequestRepository(db *sql.DB) *ReviewRequestRepository {
	return &ReviewRequestRepository{DB: db}
}

func (r *ReviewRequestRepository) Create(ctx context.Context, rr *entity.ReviewRequest) error {
	query := `
		INSERT INTO review_requests (id, business_id, customer_id, status, review_link, provider_message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.DB.ExecContext(ctx, query,
		rr.ID,
		rr.BusinessID,
		rr.CustomerID,
		rr.Status,
		rr.ReviewLink,
		nullString(rr.ProviderMessageID),
		rr.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create review request: %w", err)
	}
	return nil
}

func (r *ReviewRequestRepository) ExistsSince(ctx context.Context, businessID, customerID string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM review_requests
			WHERE business_id = $1 AND customer_id = $2 AND created_at >= $3
		)
	`

	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, businessID, customerID, since.UTC()).Scan(&exists); err != nil {
		return false, fmt.Errorf("check recent review requests: %w", err)
	}
	return exists, nil
}
