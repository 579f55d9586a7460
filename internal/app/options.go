package service

import (
	"time"

	"github.com/okian/skillmatch/internal/adapters/mq/worker"
	"github.com/okian/skillmatch/internal/adapters/repository"
	"github.com/okian/skillmatch/internal/config"
	"github.com/okian/skillmatch/internal/domain/matching"
	"github.com/okian/skillmatch/pkg/logger"
	"go.opentelemetry.io/otel/trace"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration the service is built from.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithStore injects an opened store. The service does not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
			s.ownsStore = false
		}
	}
}

// WithWorkerCount sets the number of enrichment workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the enrichment queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many enrichment record ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracerProvider sets the tracer provider handed to the matching engine.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		if tp != nil {
			s.tracerProvider = tp
		}
	}
}

// WithObserver sets the per-candidate score observer.
func WithObserver(o matching.Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithEnricher replaces the default store-backed enricher.
func WithEnricher(e worker.Enricher) Option {
	return func(s *Service) {
		if e != nil {
			s.enricher = e
		}
	}
}

// WithClock sets the time source of every component.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
