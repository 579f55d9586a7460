package matching

import (
	"context"

	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/pkg/logger"
)

// Observer receives every scored candidate during rerank. It is called from
// the request goroutine, in pool order, before sorting.
type Observer interface {
	ObserveScore(ctx context.Context, viewerID string, c model.RankedCandidate)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, viewerID string, c model.RankedCandidate)

// ObserveScore calls f.
func (f ObserverFunc) ObserveScore(ctx context.Context, viewerID string, c model.RankedCandidate) {
	f(ctx, viewerID, c)
}

type logObserver struct {
	log logger.Logger
}

func (o logObserver) ObserveScore(ctx context.Context, viewerID string, c model.RankedCandidate) {
	o.log.Debug(ctx, "candidate scored",
		logger.String("viewer_id", viewerID),
		logger.String("candidate_id", c.UserID),
		logger.Float64("overlap_norm", c.OverlapNorm),
		logger.Float64("f_reliability", c.Features.Reliability),
		logger.Float64("f_tz", c.Features.Timezone),
		logger.Float64("f_age", c.Features.Age),
		logger.Float64("f_gender", c.Features.Gender),
		logger.Float64("f_embedding", c.Features.Embedding),
		logger.Float64("final_score", c.FinalScore),
	)
}
