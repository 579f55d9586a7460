package matching

import (
	"time"

	"github.com/okian/skillmatch/internal/domain/scoring"
	"github.com/okian/skillmatch/pkg/logger"
	"go.opentelemetry.io/otel/trace"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithObserver sets the per-candidate score observer. The default writes a
// debug log record.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithTracerProvider sets where spans are sent. The default is the global
// otel provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithWeights sets the rerank weight table. New fails when it is invalid.
func WithWeights(w scoring.Weights) Option {
	return func(e *Engine) {
		e.weights = &w
		e.scoringOpts = append(e.scoringOpts, scoring.WithWeights(w))
	}
}

// WithPreferenceMinHistory sets the viewer history needed for the age and
// gender preferences.
func WithPreferenceMinHistory(n int) Option {
	return func(e *Engine) {
		e.scoringOpts = append(e.scoringOpts, scoring.WithPreferenceMinHistory(n))
	}
}

// WithPoolSizing sets the search pool to max(limit*multiplier, minSize).
func WithPoolSizing(multiplier, minSize int) Option {
	return func(e *Engine) {
		if multiplier > 0 {
			e.poolMultiplier = multiplier
		}
		if minSize > 0 {
			e.minPoolSize = minSize
		}
	}
}

// WithReliabilityWindow sets how far back candidate swipes are counted.
func WithReliabilityWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.window = d
		}
	}
}

// WithViewerHistorySize sets how many recent viewer swipes are read.
func WithViewerHistorySize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.historySize = n
		}
	}
}

// WithClock sets the time source for ages and the reliability window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
			e.scoringOpts = append(e.scoringOpts, scoring.WithClock(now))
		}
	}
}
