// Package service wires the datastore, the matching engine, onboarding and
// the enrichment pipeline into one process-level service.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/skillmatch/internal/adapters/mq/queue"
	"github.com/okian/skillmatch/internal/adapters/mq/worker"
	"github.com/okian/skillmatch/internal/adapters/repository"
	"github.com/okian/skillmatch/internal/config"
	"github.com/okian/skillmatch/internal/domain/dedupe"
	"github.com/okian/skillmatch/internal/domain/matching"
	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/internal/domain/types"
	"github.com/okian/skillmatch/internal/domain/users"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/okian/skillmatch/pkg/metrics"
	"go.opentelemetry.io/otel/trace"
)

// Service exposes the matching and onboarding entry points.
type Service struct {
	mu sync.RWMutex

	cfg            *config.Config
	store          repository.Store
	ownsStore      bool
	engine         *matching.Engine
	users          *users.Service
	deduper        dedupe.Deduper
	queue          *queue.InMemoryQueue
	pool           *worker.Pool
	enricher       worker.Enricher
	observer       matching.Observer
	tracerProvider trace.TracerProvider
	now            func() time.Time

	workerCount int
	queueSize   int
	dedupeSize  int

	started bool
	logger  logger.Logger
}

// New constructs a Service. Nothing is opened until Start.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:       config.New(),
		ownsStore: true,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workerCount == 0 {
		s.workerCount = s.cfg.EnrichmentWorkers
	}
	if s.queueSize == 0 {
		s.queueSize = s.cfg.EnrichmentQueueSize
	}
	if s.dedupeSize == 0 {
		s.dedupeSize = s.cfg.DedupeSize
	}
	return s
}

// Start opens the store when none was injected, builds the domain services
// and starts the enrichment workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting skillmatch service...")

	if s.store == nil {
		store, err := repository.OpenConfig(ctx, s.cfg,
			repository.WithLogger(s.logger),
			repository.WithClock(s.now))
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
		s.ownsStore = true
	}

	engineOpts := []matching.Option{
		matching.WithLogger(s.logger.Named("matching")),
		matching.WithWeights(s.cfg.ScoringWeights()),
		matching.WithPreferenceMinHistory(s.cfg.PreferenceMinHistory),
		matching.WithPoolSizing(s.cfg.PoolMultiplier, s.cfg.MinPoolSize),
		matching.WithReliabilityWindow(time.Duration(s.cfg.ReliabilityWindowDays) * 24 * time.Hour),
		matching.WithViewerHistorySize(s.cfg.ViewerHistorySize),
		matching.WithClock(s.now),
	}
	if s.observer != nil {
		engineOpts = append(engineOpts, matching.WithObserver(s.observer))
	}
	if s.tracerProvider != nil {
		engineOpts = append(engineOpts, matching.WithTracerProvider(s.tracerProvider))
	}
	engine, err := matching.New(s.store, engineOpts...)
	if err != nil {
		return s.abortStart(err)
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	pub := &publisher{deduper: s.deduper, queue: s.queue, log: s.logger.Named("enrichment")}

	onboarding, err := users.New(s.store,
		users.WithPublisher(pub),
		users.WithLogger(s.logger.Named("users")),
		users.WithClock(s.now),
		users.WithDefaultTimezone(s.cfg.DefaultTimezone))
	if err != nil {
		return s.abortStart(err)
	}

	enricher := s.enricher
	if enricher == nil {
		enricher = &storeEnricher{store: s.store, log: s.logger.Named("enricher")}
	}
	s.pool = worker.NewPool(s.workerCount, s.queue, enricher, worker.WithLogger(s.logger))
	s.pool.Start(context.WithoutCancel(ctx))

	s.engine = engine
	s.users = onboarding
	s.started = true
	s.logger.Info(ctx, "skillmatch service started",
		logger.String("store", s.cfg.StoreDriver),
		logger.Bool("ownsStore", s.ownsStore),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

func (s *Service) abortStart(err error) error {
	if s.ownsStore && s.store != nil {
		_ = s.store.Close()
		s.store = nil
	}
	return err
}

// Stop drains the enrichment queue and closes the store if the service
// opened it. Requests still queued when ctx ends are dropped.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping skillmatch service...")

	var firstErr error
	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close store: %w", err)
		}
		s.store = nil
	}

	s.started = false
	s.logger.Info(ctx, "skillmatch service stopped")
	return firstErr
}

func (s *Service) running() (*matching.Engine, *users.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.engine, s.users, nil
}

// FindMatches ranks candidates for viewerID. A zero limit uses the configured
// default; limit must not exceed the configured maximum.
func (s *Service) FindMatches(ctx context.Context, viewerID string, limit int) (types.MatchingResponse, error) {
	engine, _, err := s.running()
	if err != nil {
		return types.MatchingResponse{}, err
	}
	if limit == 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return types.MatchingResponse{}, fmt.Errorf("%w: %d > %d", ErrLimitTooBig, limit, s.cfg.MaxLimit)
	}
	return engine.FindMatches(ctx, viewerID, limit)
}

// GetCandidateDetails returns the detail projection of candidateID as seen
// by viewerID.
func (s *Service) GetCandidateDetails(ctx context.Context, candidateID, viewerID string) (types.CandidateDetails, error) {
	engine, _, err := s.running()
	if err != nil {
		return types.CandidateDetails{}, err
	}
	return engine.GetCandidateDetails(ctx, candidateID, viewerID)
}

// RecordSwipe appends a swipe of viewerID on candidateID.
func (s *Service) RecordSwipe(ctx context.Context, viewerID, candidateID string, status model.SwipeStatus) error {
	engine, _, err := s.running()
	if err != nil {
		return err
	}
	return engine.RecordSwipe(ctx, viewerID, candidateID, status)
}

// CreateUser runs the sign-up flow.
func (s *Service) CreateUser(ctx context.Context, req users.CreateUserRequest) (model.User, error) {
	_, onboarding, err := s.running()
	if err != nil {
		return model.User{}, err
	}
	return onboarding.CreateUser(ctx, req)
}

// GetProfile returns a user and its onboarding status.
func (s *Service) GetProfile(ctx context.Context, userID string) (types.UserProfile, error) {
	_, onboarding, err := s.running()
	if err != nil {
		return types.UserProfile{}, err
	}
	return onboarding.GetProfile(ctx, userID)
}

// ListSkills returns the skill catalog.
func (s *Service) ListSkills(ctx context.Context) ([]model.Skill, error) {
	_, onboarding, err := s.running()
	if err != nil {
		return nil, err
	}
	return onboarding.ListSkills(ctx)
}

// Store returns the datastore in use, or nil before Start.
func (s *Service) Store() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"store":       s.cfg.StoreDriver,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len()
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		stats["enrichmentsProcessed"] = s.pool.Processed()
		stats["enrichmentsFailed"] = s.pool.Failed()

		w := s.engine.Weights()
		stats["weights"] = map[string]float64{
			"mutual":      w.Mutual,
			"reliability": w.Reliability,
			"timezone":    w.Timezone,
			"age":         w.Age,
			"gender":      w.Gender,
			"embedding":   w.Embedding,
		}

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	return stats
}
