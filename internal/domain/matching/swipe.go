package matching

import (
	"context"
	"fmt"

	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/okian/skillmatch/pkg/metrics"
)

// RecordSwipe appends a swipe by viewerID on candidateID. Viewers can only
// decline or offer; accepted is written when the candidate answers an offer.
func (e *Engine) RecordSwipe(ctx context.Context, viewerID, candidateID string, status model.SwipeStatus) error {
	for _, id := range []string{viewerID, candidateID} {
		if err := validateID(id); err != nil {
			return &OpError{Op: opRecordSwipe, Err: err}
		}
	}
	if status != model.SwipeDeclined && status != model.SwipeOffered {
		return &OpError{Op: opRecordSwipe, Err: fmt.Errorf("%w %q: must be declined or offered", ErrInvalidSwipeStatus, status)}
	}

	rec := model.SwipeRecord{
		ViewerID:    viewerID,
		CandidateID: candidateID,
		Status:      status,
		CreatedAt:   e.now().UTC(),
	}
	if err := e.store.InsertSwipe(ctx, rec); err != nil {
		metrics.RecordErrorByComponent("matching", "swipe")
		return fetchError(opRecordSwipe, err)
	}
	metrics.RecordSwipe(string(status))
	e.log.Debug(ctx, "swipe recorded",
		logger.String("viewer_id", viewerID),
		logger.String("candidate_id", candidateID),
		logger.String("status", string(status)))
	return nil
}
