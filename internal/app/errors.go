package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted  = errors.New("service not started")
	ErrLimitTooBig = errors.New("limit exceeds the configured maximum")
)
