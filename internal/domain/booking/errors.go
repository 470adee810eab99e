package booking

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrInvalidDate     = errors.New("invalid date")
	ErrPastDate        = errors.New("date is in the past")
	ErrDateBooked      = errors.New("date is already booked")
	ErrNoSelection     = errors.New("select items or a package before choosing dates")
	ErrIncompleteRange = errors.New("Please select both a start and an end date")
	ErrInvalidRange    = errors.New("Start date must be on or before end date")
	ErrStartInPast     = errors.New("Start date cannot be in the past")
	ErrDateConflict    = errors.New("date conflict")
)

// ConflictError names the first booked day inside a requested range.
type ConflictError struct {
	Date string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("Selected dates conflict with an existing booking on %s", e.Date)
}

func (e *ConflictError) Unwrap() error { return ErrDateConflict }

// DateError ties a rejected click to its date.
type DateError struct {
	Date string
	Err  error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s: %v", e.Date, e.Err)
}

func (e *DateError) Unwrap() error { return e.Err }
