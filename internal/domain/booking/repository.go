package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// Repository reads existing booking ranges.
type Repository interface {
	ListActiveRanges(ctx context.Context) ([]DateRange, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates booking repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// ListActiveRanges returns the ranges of every booking that still holds its dates.
func (r *repository) ListActiveRanges(ctx context.Context) ([]DateRange, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT to_char(start_date, 'YYYY-MM-DD') AS start_date,
		       to_char(end_date, 'YYYY-MM-DD') AS end_date
		FROM bookings
		WHERE status <> 'cancelled'
		ORDER BY start_date
	`

	ranges := make([]DateRange, 0)
	if err := r.db.SelectContext(ctx2, &ranges, query); err != nil {
		return nil, fmt.Errorf("booking repository list ranges: %w", err)
	}
	return ranges, nil
}
