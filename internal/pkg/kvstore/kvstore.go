// Package kvstore holds the per-user session state the storefront keeps between
// requests: cart lines, the active package, the schedule and the snapshots the
// checkout step reads.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Well-known keys read by the confirmation/checkout step.
const (
	KeyCart            = "cart"
	KeySelectedItems   = "selectedItems"
	KeySelectedPackage = "selectedPackage"
	KeyCartTotal       = "cartTotal"
	KeySchedule        = "schedule"
	KeyBookingFormData = "bookingFormData"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("key not found")

// Store is a byte-oriented key/value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// UserKey namespaces name under the user id so state never leaks across accounts
// on a shared device.
func UserKey(userID uuid.UUID, name string) string {
	return fmt.Sprintf("storefront:%s:%s", userID, name)
}

// GetJSON loads key into v. It returns false when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, v interface{}) (bool, error) {
	b, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v under key.
func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, b)
}
