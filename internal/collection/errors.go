package collection

import "errors"

var (
	// ErrInvalidCollection is returned for names outside the whitelist
	ErrInvalidCollection = errors.New("invalid collection")
	// ErrMissingID is returned when an update or delete names no id
	ErrMissingID = errors.New("missing id")
	// ErrNotFound is returned when no record has the requested id
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID is returned when a create names an id that already exists
	ErrDuplicateID = errors.New("duplicate id")
	// ErrInvalidBody is returned when the request body is not a JSON object
	ErrInvalidBody = errors.New("invalid body")
)
