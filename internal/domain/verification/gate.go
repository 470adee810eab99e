// Package verification decides whether a user may move on from cart or package
// selection to scheduling. The result is a storefront hint; the booking backend
// enforces its own rules.
package verification

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mediarent/storefront-api/internal/middleware"
)

// Gate trusts the is_verified claim of the current token and otherwise asks the
// users table, since verification can complete after the token was issued.
type Gate struct {
	repo Repository
}

// NewGate creates the gate. repo may be nil, in which case only the claim counts.
func NewGate(repo Repository) *Gate {
	return &Gate{repo: repo}
}

// IsVerified reports whether userID passed identity verification. Lookup
// failures close the gate.
func (g *Gate) IsVerified(ctx context.Context, userID uuid.UUID) bool {
	if userID == uuid.Nil {
		return false
	}
	if middleware.GetUserID(ctx) == userID && middleware.IsVerified(ctx) {
		return true
	}
	if g.repo == nil {
		return false
	}

	verified, err := g.repo.IsVerified(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("Verification lookup failed, gate closed")
		return false
	}
	return verified
}
