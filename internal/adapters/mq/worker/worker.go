// Package worker drains enrichment requests from the queue into an Enricher.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/okian/skillmatch/pkg/metrics"
)

const defaultWorkerCount = 2

// Request is what workers read off the queue.
type Request = model.EnrichmentRequest

// Enricher hands a request to the enrichment pipeline.
type Enricher interface {
	Enrich(ctx context.Context, req Request) error
}

// EnricherFunc adapts a function to Enricher.
type EnricherFunc func(ctx context.Context, req Request) error

// Enrich calls f.
func (f EnricherFunc) Enrich(ctx context.Context, req Request) error {
	return f(ctx, req)
}

// Queue defines how workers receive requests.
type Queue interface {
	Dequeue() <-chan Request
}

type dequeueMarker interface {
	MarkDequeued()
}

type closer interface {
	Close() error
}

// counters are shared by every worker of a pool.
type counters struct {
	processed atomic.Int64
	failed    atomic.Int64
}

// InMemoryWorker processes requests until the queue is closed or it is stopped.
type InMemoryWorker struct {
	queue    Queue
	enricher Enricher
	name     string
	logger   logger.Logger
	counters *counters

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, enricher Enricher, opts ...Option) *InMemoryWorker {
	cfg := newOptions(opts)
	return &InMemoryWorker{
		queue:    q,
		enricher: enricher,
		name:     cfg.name,
		logger:   cfg.logger.Named(cfg.name),
		counters: &counters{},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run processes requests until ctx is done, the worker is stopped, or the
// queue is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			if m, ok := w.queue.(dequeueMarker); ok {
				m.MarkDequeued()
			}
			if err := w.process(ctx, req); err != nil {
				w.logger.Error(ctx, "enrichment hand-off failed",
					logger.String("record_id", req.RecordID),
					logger.String("user_id", req.UserID),
					logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker without draining and waits for it to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.stop) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns the number of requests handed off successfully.
func (w *InMemoryWorker) Processed() int64 {
	return w.counters.processed.Load()
}

// Failed returns the number of requests the enricher rejected.
func (w *InMemoryWorker) Failed() int64 {
	return w.counters.failed.Load()
}

func (w *InMemoryWorker) process(ctx context.Context, req Request) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.enricher.Enrich(ctx, req); err != nil {
		w.counters.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "enrich_error")
		return fmt.Errorf("enrich record %s: %w", req.RecordID, err)
	}
	w.counters.processed.Add(1)
	metrics.RecordWorkerProcessed()
	return nil
}

// Pool manages multiple workers reading the same queue.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	counters *counters
	logger   logger.Logger
}

// NewPool creates a new worker pool. workerCount < 1 uses the default.
func NewPool(workerCount int, q Queue, enricher Enricher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	cfg := newOptions(opts)
	shared := &counters{}
	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		counters: shared,
		logger:   cfg.logger.Named("worker-pool"),
	}
	for i := range p.workers {
		w := NewInMemoryWorker(q, enricher, append(opts, WithName("worker-"+strconv.Itoa(i)))...)
		w.counters = shared
		p.workers[i] = w
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns the number of requests handed off by all workers.
func (p *Pool) Processed() int64 {
	return p.counters.processed.Load()
}

// Failed returns the number of failed hand-offs across all workers.
func (p *Pool) Failed() int64 {
	return p.counters.failed.Load()
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain it. If ctx
// ends first the workers are stopped and the remaining requests are dropped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if c, ok := p.queue.(closer); ok {
		if err := c.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker drain timed out, stopping", logger.Int("worker_id", i))
			for _, w := range p.workers {
				w.stopOnce.Do(func() { close(w.stop) })
			}
			for _, w := range p.workers {
				<-w.done
			}
			metrics.UpdateWorkerCount(0)
			return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
