package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/skillmatch/internal/adapters/mq/queue"
	"github.com/okian/skillmatch/internal/adapters/repository"
	"github.com/okian/skillmatch/internal/domain/dedupe"
	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/okian/skillmatch/pkg/metrics"
)

// publisher hands enrichment requests to the queue at most once per record.
type publisher struct {
	deduper dedupe.Deduper
	queue   queue.Queue
	log     logger.Logger
}

// Publish enqueues req. A record id that was already published is skipped.
// When the queue rejects the request the id is forgotten so it can be
// published again.
func (p *publisher) Publish(ctx context.Context, req model.EnrichmentRequest) error {
	if p.deduper.SeenAndRecord(ctx, req.RecordID) {
		metrics.RecordEnrichmentPublished("duplicate")
		p.log.Debug(ctx, "duplicate enrichment request skipped", logger.String("record_id", req.RecordID))
		return nil
	}
	if err := p.queue.Enqueue(ctx, req); err != nil {
		p.deduper.Unrecord(ctx, req.RecordID)
		return fmt.Errorf("enqueue enrichment %s: %w", req.RecordID, err)
	}
	p.log.Debug(ctx, "enrichment request queued",
		logger.String("record_id", req.RecordID),
		logger.String("user_id", req.UserID))
	return nil
}

// storeEnricher marks records as dispatched. Profile scraping and embedding
// happen outside this process.
type storeEnricher struct {
	store repository.EnrichmentStore
	log   logger.Logger
}

func (e *storeEnricher) Enrich(ctx context.Context, req model.EnrichmentRequest) error {
	err := e.store.UpdateEnrichmentState(ctx, req.RecordID, model.EnrichmentDispatched)
	if err == nil {
		e.log.Info(ctx, "enrichment dispatched",
			logger.String("record_id", req.RecordID),
			logger.String("user_id", req.UserID))
		return nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		if ferr := e.store.UpdateEnrichmentState(ctx, req.RecordID, model.EnrichmentFailed); ferr != nil {
			e.log.Warn(ctx, "could not mark enrichment failed",
				logger.String("record_id", req.RecordID), logger.Error(ferr))
		}
	}
	return fmt.Errorf("dispatch enrichment %s: %w", req.RecordID, err)
}
