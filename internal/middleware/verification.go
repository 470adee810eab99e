package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/mediarent/storefront-api/internal/pkg/response"
)

// VerificationChecker answers whether a user has completed identity verification.
type VerificationChecker interface {
	IsVerified(ctx context.Context, userID uuid.UUID) bool
}

// RequireVerified blocks anonymous users with a login hint and unverified users
// with a hint to start verification from the dashboard. This is a UX gate only;
// the booking backend enforces its own rules.
func RequireVerified(checker VerificationChecker, loginPath, dashboardPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == uuid.Nil {
				response.LoginRequired(w, loginPath)
				return
			}

			if !checker.IsVerified(r.Context(), userID) {
				response.VerificationRequired(w, dashboardPath)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
