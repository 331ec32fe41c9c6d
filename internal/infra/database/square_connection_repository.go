package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xavierca1/ligue-reviews/internal/entity"
)

type SquareConnectionRepository struct {
	DB *sql.DB
}

func NewSquareConnectionRepository(db *sql.DB) *SquareConnectionRepository {
	return &SquareConnectionRepository{DB: db}
}

func (r *SquareConnectionRepository) FindByUserID(ctx context.Context, userID string) (*entity.SquareConnection, error) {
	query := `
		SELECT id, user_id, access_token, is_sandbox, default_location_id, last_backfill_at, created_at, updated_at
		FROM square_connections
		WHERE user_id = $1
	`

	var c entity.SquareConnection
	var accessToken, locationID sql.NullString
	var lastBackfill sql.NullTime

	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&c.ID,
		&c.UserID,
		&accessToken,
		&c.IsSandbox,
		&locationID,
		&lastBackfill,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find square connection: %w", err)
	}

	c.AccessToken = accessToken.String
	c.DefaultLocationID = locationID.String
	if lastBackfill.Valid {
		t := lastBackfill.Time
		c.LastBackfillAt = &t
	}
	return &c, nil
}

func (r *SquareConnectionRepository) TouchLastBackfill(ctx context.Context, userID string, at time.Time) error {
	query := `UPDATE square_connections SET last_backfill_at = $2, updated_at = NOW() WHERE user_id = $1`

	res, err := r.DB.ExecContext(ctx, query, userID, at.UTC())
	if err != nil {
		return fmt.Errorf("update last backfill: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrConnectionNotFound
	}
	return nil
}
