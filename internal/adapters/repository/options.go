package repository

import (
	"time"

	"github.com/okian/skillmatch/pkg/logger"
)

// Option applies a configuration option to Open.
type Option func(*openOptions)

type openOptions struct {
	log          logger.Logger
	now          func() time.Time
	maxOpenConns int
}

// WithLogger sets the logger handed to the adapter.
func WithLogger(l logger.Logger) Option {
	return func(o *openOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock sets the time source for default timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *openOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMaxOpenConns caps the sqlite connection pool.
func WithMaxOpenConns(n int) Option {
	return func(o *openOptions) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}
