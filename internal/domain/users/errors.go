package users

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrValidation marks a request the caller must fix.
	ErrValidation = errors.New("invalid user request")
	// ErrConflict is returned when the user already exists.
	ErrConflict = errors.New("user already exists")
)
