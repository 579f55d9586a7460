// Package matching ranks mutual skill-exchange candidates for a viewer.
//
// A request runs in two phases. Search asks the store for an over-sized
// pool of candidates ordered by raw skill overlap. Rerank then fetches the
// viewer and candidate context in parallel, scores every candidate with the
// scoring model and orders the pool by final score.
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/internal/domain/scoring"
	"github.com/okian/skillmatch/internal/domain/types"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/okian/skillmatch/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/okian/skillmatch/internal/domain/matching"

// Default sizing.
const (
	DefaultPoolMultiplier    = 3
	DefaultMinPoolSize       = 100
	DefaultReliabilityWindow = 30 * 24 * time.Hour
	DefaultViewerHistorySize = 3
)

// Request outcomes reported to metrics.
const (
	outcomeOK    = "ok"
	outcomeEmpty = "empty"
	outcomeError = "error"
)

// Engine runs matching requests against a Store. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	store    Store
	model    *scoring.Model
	observer Observer
	log      logger.Logger
	tracer   trace.Tracer
	now      func() time.Time

	scoringOpts    []scoring.Option
	weights        *scoring.Weights
	poolMultiplier int
	minPoolSize    int
	window         time.Duration
	historySize    int
}

// New creates an Engine reading from store. An injected weight table that
// fails validation is rejected with scoring.ErrInvalidWeights.
func New(store Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("matching: store is required")
	}
	e := &Engine{
		store:          store,
		log:            logger.Nop(),
		tracer:         otel.Tracer(tracerName),
		now:            time.Now,
		poolMultiplier: DefaultPoolMultiplier,
		minPoolSize:    DefaultMinPoolSize,
		window:         DefaultReliabilityWindow,
		historySize:    DefaultViewerHistorySize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.weights != nil {
		if err := e.weights.Validate(); err != nil {
			return nil, fmt.Errorf("matching: %w", err)
		}
	}
	if e.observer == nil {
		e.observer = logObserver{log: e.log}
	}
	e.model = scoring.New(e.scoringOpts...)
	return e, nil
}

// Weights returns the weight table the engine scores with.
func (e *Engine) Weights() scoring.Weights {
	return e.model.Weights()
}

// PoolSize returns how many candidates are requested from search for limit.
func (e *Engine) PoolSize(limit int) int {
	return max(limit*e.poolMultiplier, e.minPoolSize)
}

// FindMatches returns the best limit candidates for viewerID. A viewer with
// no mutual-skill candidates gets an empty response and a nil error.
func (e *Engine) FindMatches(ctx context.Context, viewerID string, limit int) (types.MatchingResponse, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, opFindMatches, trace.WithAttributes(
		attribute.String("viewer_id", viewerID),
		attribute.Int("limit", limit),
	))
	defer span.End()

	resp, err := e.findMatches(ctx, viewerID, limit)
	metrics.RecordMatchLatency(float64(time.Since(start).Milliseconds()))
	switch {
	case err != nil:
		metrics.RecordMatchRequest(outcomeError)
		metrics.RecordErrorByComponent("matching", errorType(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.log.Error(ctx, "find matches failed",
			logger.String("viewer_id", viewerID),
			logger.Int("limit", limit),
			logger.Error(err))
		return types.MatchingResponse{}, err
	case resp.Total == 0:
		metrics.RecordMatchRequest(outcomeEmpty)
	default:
		metrics.RecordMatchRequest(outcomeOK)
	}
	span.SetAttributes(
		attribute.Int("search_pool_size", resp.SearchPoolSize),
		attribute.Int("total", resp.Total),
	)
	return resp, nil
}

func (e *Engine) findMatches(ctx context.Context, viewerID string, limit int) (types.MatchingResponse, error) {
	if limit < 1 {
		return types.MatchingResponse{}, &OpError{Op: opFindMatches, Err: fmt.Errorf("%w: %d", ErrInvalidLimit, limit)}
	}
	if err := validateID(viewerID); err != nil {
		return types.MatchingResponse{}, &OpError{Op: opFindMatches, Err: err}
	}

	pool, err := e.Search(ctx, viewerID, limit)
	if err != nil {
		return types.MatchingResponse{}, err
	}
	if len(pool) == 0 {
		return types.EmptyMatchingResponse(), nil
	}

	ranked, err := e.Rerank(ctx, viewerID, pool)
	if err != nil {
		return types.MatchingResponse{}, err
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]types.MatchedCandidate, len(ranked))
	for i, r := range ranked {
		out[i] = types.MatchedCandidate{
			UserID:       r.UserID,
			TeachesMe:    r.TeachesMe,
			LearnsFromMe: r.LearnsFromMe,
			OverlapScore: r.OverlapScore,
			FinalScore:   r.FinalScore,
			Features:     r.Features,
		}
	}
	return types.MatchingResponse{
		Candidates:     out,
		Total:          len(out),
		SearchPoolSize: len(pool),
	}, nil
}

// Search returns the overlap-ordered candidate pool for viewerID, sized for
// limit. An empty pool is a valid result.
func (e *Engine) Search(ctx context.Context, viewerID string, limit int) ([]model.SearchCandidate, error) {
	poolSize := e.PoolSize(limit)
	ctx, span := e.tracer.Start(ctx, opSearch, trace.WithAttributes(attribute.Int("pool_limit", poolSize)))
	defer span.End()

	pool, err := e.store.SearchMutualSkillCandidates(ctx, viewerID, poolSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &OpError{Op: opSearch, Err: fmt.Errorf("%w: %w", ErrSearchFailed, err)}
	}
	if len(pool) > poolSize {
		pool = pool[:poolSize]
	}
	metrics.RecordSearchPoolSize(len(pool))
	span.SetAttributes(attribute.Int("pool_size", len(pool)))
	return pool, nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	return nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrInvalidLimit), errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidSwipeStatus):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDataConsistency):
		return "data_consistency"
	case errors.Is(err, ErrSearchFailed):
		return "search"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "fetch"
	}
}
