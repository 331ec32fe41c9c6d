package entity

import (
	"context"
	"strings"
	"time"
)

type SquareConnection struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	AccessToken       string     `json:"-"`
	IsSandbox         bool       `json:"is_sandbox"`
	DefaultLocationID string     `json:"default_location_id,omitempty"`
	LastBackfillAt    *time.Time `json:"last_backfill_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (c *SquareConnection) IsConnected() bool {
	return strings.TrimSpace(c.AccessToken) != ""
}

type SquareConnectionRepository interface {
	FindByUserID(ctx context.Context, userID string) (*SquareConnection, error)
	TouchLastBackfill(ctx context.Context, userID string, at time.Time) error
}
