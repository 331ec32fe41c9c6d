package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xavierca1/ligue-reviews/internal/entity"
)

// SubscriptionRepository reads the billing mirror table kept up to date by the
// Stripe webhook.
type SubscriptionRepository struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{DB: db, Now: time.Now}
}

func (r *SubscriptionRepository) FindLatestByUserID(ctx context.Context, userID string) (*entity.Subscription, error) {
	query := `
		SELECT id, user_id, plan, status, current_period_end, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var sub entity.Subscription
	var periodEnd sql.NullTime

	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Plan,
		&sub.Status,
		&periodEnd,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if periodEnd.Valid {
		sub.CurrentPeriodEnd = &periodEnd.Time
	}
	return &sub, nil
}

// HasActivePro is the entitlement check; a user without any subscription row is not Pro.
func (r *SubscriptionRepository) HasActivePro(ctx context.Context, userID string) (bool, error) {
	sub, err := r.FindLatestByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find subscription: %w", err)
	}
	return sub.IsActivePro(r.Now()), nil
}
