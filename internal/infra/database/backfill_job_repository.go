package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xavierca1/ligue-reviews/internal/entity"
)

type BackfillJobRepository struct {
	DB *sql.DB
}

func NewBackfillJobRepository(db *sql.DB) *BackfillJobRepository {
	return &BackfillJobRepository{DB: db}
}

func (r *BackfillJobRepository) Create(ctx context.Context, job *entity.BackfillJob) error {
	filters, err := json.Marshal(job.Filters)
	if err != nil {
		return fmt.Errorf("marshal backfill filters: %w", err)
	}

	query := `
		INSERT INTO square_backfill_jobs (
			id, user_id, business_id, status, requested_start, requested_end,
			filters, total, sent, skipped, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, 0, 0, 0, $8, $9)
	`

	_, err = r.DB.ExecContext(ctx, query,
		job.ID,
		job.UserID,
		job.BusinessID,
		job.Status,
		job.RequestedStart,
		job.RequestedEnd,
		string(filters),
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create backfill job: %w", err)
	}
	return nil
}

// MarkCompleted and MarkFailed only move a running job; a finalized row is never rewritten.
func (r *BackfillJobRepository) MarkCompleted(ctx context.Context, id string, total, sent, skipped int) error {
	query := `
		UPDATE square_backfill_jobs
		SET status = 'completed', total = $2, sent = $3, skipped = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'running'
	`
	return r.finalize(ctx, query, id, total, sent, skipped)
}

func (r *BackfillJobRepository) MarkFailed(ctx context.Context, id, message string) error {
	query := `
		UPDATE square_backfill_jobs
		SET status = 'failed', error = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'running'
	`
	return r.finalize(ctx, query, id, message)
}

func (r *BackfillJobRepository) finalize(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("finalize backfill job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w or already finalized: %v", entity.ErrJobNotFound, args[0])
	}
	return nil
}

func (r *BackfillJobRepository) FindLatestByBusiness(ctx context.Context, businessID string) (*entity.BackfillJob, error) {
	query := `
		SELECT id, user_id, business_id, status, requested_start, requested_end,
		       filters, total, sent, skipped, error, created_at, updated_at
		FROM square_backfill_jobs
		WHERE business_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var job entity.BackfillJob
	var start, end sql.NullTime
	var filters []byte
	var errMsg sql.NullString

	err := r.DB.QueryRowContext(ctx, query, businessID).Scan(
		&job.ID,
		&job.UserID,
		&job.BusinessID,
		&job.Status,
		&start,
		&end,
		&filters,
		&job.Total,
		&job.Sent,
		&job.Skipped,
		&errMsg,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find latest backfill job: %w", err)
	}

	if start.Valid {
		job.RequestedStart = &start.Time
	}
	if end.Valid {
		job.RequestedEnd = &end.Time
	}
	if errMsg.Valid {
		job.Error = &errMsg.String
	}
	if len(filters) > 0 {
		if err := json.Unmarshal(filters, &job.Filters); err != nil {
			return nil, fmt.Errorf("decode backfill filters: %w", err)
		}
	}
	return &job, nil
}

// FailStale fails running jobs created before startedBefore and returns their ids.
func (r *BackfillJobRepository) FailStale(ctx context.Context, startedBefore time.Time, message string) ([]string, error) {
	query := `
		UPDATE square_backfill_jobs
		SET status = 'failed', error = $2, updated_at = NOW()
		WHERE status = 'running' AND created_at < $1
		RETURNING id
	`

	rows, err := r.DB.QueryContext(ctx, query, startedBefore.UTC(), message)
	if err != nil {
		return nil, fmt.Errorf("fail stale backfill jobs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan stale backfill job: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
