package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 2 * time.Second

// Repository reads verification status maintained by the account service.
type Repository interface {
	IsVerified(ctx context.Context, userID uuid.UUID) (bool, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a users table reader
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) IsVerified(ctx context.Context, userID uuid.UUID) (bool, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var verified bool
	err := r.db.GetContext(ctx2, &verified, `SELECT is_verified FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, fmt.Errorf("verification repository is_verified: %w", err)
	}
	return verified, nil
}
