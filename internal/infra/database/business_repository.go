package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/xavierca1/ligue-reviews/internal/entity"
)

type BusinessRepository struct {
	DB *sql.DB
}

func NewBusinessRepository(db *sql.DB) *BusinessRepository {
	return &BusinessRepository{DB: db}
}

// FindByID treats a malformed id as not found; the column is a uuid.
func (r *BusinessRepository) FindByID(ctx context.Context, id string) (*entity.Business, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, entity.ErrBusinessNotFound
	}

	query := `
		SELECT id, owner_user_id, name, review_link, google_write_review_uri, created_at, updated_at
		FROM businesses
		WHERE id = $1
	`

	var b entity.Business
	var reviewLink, writeReviewURI sql.NullString

	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&b.ID,
		&b.OwnerUserID,
		&b.Name,
		&reviewLink,
		&writeReviewURI,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrBusinessNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find business: %w", err)
	}

	b.ReviewLink = reviewLink.String
	b.GoogleWriteReviewURI = writeReviewURI.String
	return &b, nil
}
