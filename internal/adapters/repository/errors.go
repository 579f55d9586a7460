package repository

import "errors"

// Sentinel kinds for datastore errors.
var (
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrMissingDSN    = errors.New("missing store dsn")
)
