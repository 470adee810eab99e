package bundle

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPackageNotFound      = errors.New("package not found")
	ErrPackageUnavailable   = errors.New("package unavailable")
	ErrAvailabilityChanged  = errors.New("package availability changed")
	ErrUnauthenticated      = errors.New("authentication required")
	ErrVerificationRequired = errors.New("identity verification required")
	ErrInvalidDefinition    = errors.New("invalid package definition")
)

// UnavailableError names the members that cannot be rented.
type UnavailableError struct {
	Package string
	Items   []Item
	// Changed is set when availability dropped after the package was shown.
	Changed bool
}

func (e *UnavailableError) Error() string {
	names := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		names = append(names, it.Name)
	}
	if e.Changed {
		return fmt.Sprintf("Availability changed: %s no longer available for %s", strings.Join(names, ", "), e.Package)
	}
	return fmt.Sprintf("%s is unavailable: %s not available in the required quantity", e.Package, strings.Join(names, ", "))
}

func (e *UnavailableError) Unwrap() error {
	if e.Changed {
		return ErrAvailabilityChanged
	}
	return ErrPackageUnavailable
}
