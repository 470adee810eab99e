package catalog

import "errors"

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrInvalidDocument   = errors.New("invalid rental items document")
	ErrSourceUnavailable = errors.New("catalog source unavailable")
)
