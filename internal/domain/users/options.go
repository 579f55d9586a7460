package users

import (
	"time"

	"github.com/okian/skillmatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPublisher sets where enrichment requests are sent. Without one, new
// users with a profile URL get an enrichment record but no hand-off.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDefaultTimezone sets the timezone of users that do not name one.
func WithDefaultTimezone(tz string) Option {
	return func(s *Service) {
		if tz != "" {
			s.defaultTZ = tz
		}
	}
}

// WithMinimumAge sets the youngest age accepted at sign-up.
func WithMinimumAge(years int) Option {
	return func(s *Service) {
		if years > 0 {
			s.minAge = years
		}
	}
}
