package usecase

import (
	"context"
	"fmt"

	"github.com/xavierca1/ligue-reviews/internal/entity"
)

// ReadCandidates pages through source and calls visit for every candidate that has
// an email and falls inside window. A repeated email is visited again so its newer
// contact details reach the customer row. It stops once limit candidates were
// visited or the source has no next cursor, and returns the number visited.
func ReadCandidates(
	ctx context.Context,
	source entity.CustomerSource,
	window entity.DateWindow,
	limit int,
	visit func(entity.Candidate) error,
) (int, error) {
	visited := 0
	cursor := ""

	for {
		page, err := source.ListCustomers(ctx, cursor)
		if err != nil {
			return visited, fmt.Errorf("list square customers: %w", err)
		}

		for _, c := range page.Candidates {
			c.Email = entity.NormalizeEmail(c.Email)
			if c.Email == "" {
				continue
			}
			if !window.Contains(c.CreatedAt) {
				continue
			}

			if err := visit(c); err != nil {
				return visited, err
			}
			visited++
			if visited >= limit {
				return visited, nil
			}
		}

		if page.Cursor == "" {
			return visited, nil
		}
		cursor = page.Cursor
	}
}
