package cart

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthenticated      = errors.New("authentication required")
	ErrOutOfStock           = errors.New("item out of stock")
	ErrInventoryExceeded    = errors.New("inventory exceeded")
	ErrLineNotFound         = errors.New("item is not in the cart")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrCartInvalid          = errors.New("cart has availability problems")
	ErrVerificationRequired = errors.New("identity verification required")
)

// LimitError is returned when a change would push a line above the rentable quantity.
type LimitError struct {
	ItemID string
	Name   string
	Max    int
	Have   int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("Only %d of %s available (you have %d)", e.Max, e.Name, e.Have)
}

func (e *LimitError) Unwrap() error { return ErrInventoryExceeded }

// UnavailableError is returned when an item cannot be rented at all.
type UnavailableError struct {
	ItemID string
	Name   string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s is out of stock", e.Name)
}

func (e *UnavailableError) Unwrap() error { return ErrOutOfStock }

// ViolationsError blocks checkout while the cart does not match the catalog.
type ViolationsError struct {
	Violations []string
}

func (e *ViolationsError) Error() string {
	return strings.Join(e.Violations, "; ")
}

func (e *ViolationsError) Unwrap() error { return ErrCartInvalid }
