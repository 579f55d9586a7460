package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/internal/domain/scoring"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/okian/skillmatch/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Degraded fetch sources.
const (
	sourceCandidateSwipes = "candidate_swipes"
	sourceViewerHistory   = "viewer_history"
	sourceEmbeddings      = "embeddings"
)

// rerankContext is the data fetched for one rerank call.
type rerankContext struct {
	viewer     model.Profile
	profiles   map[string]model.Profile
	swipes     map[string][]model.SwipeRecord
	history    []model.ViewerSwipe
	similarity map[string]float64
}

// Rerank scores pool for viewerID and returns it ordered by final score,
// highest first. Candidates with equal scores keep their pool order.
//
// The viewer and candidate profiles are required. Candidate swipes, viewer
// history and embeddings are optional: a failed fetch is logged and the
// affected features fall back to their defaults.
func (e *Engine) Rerank(ctx context.Context, viewerID string, pool []model.SearchCandidate) ([]model.RankedCandidate, error) {
	if len(pool) == 0 {
		return []model.RankedCandidate{}, nil
	}
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, opRerank, trace.WithAttributes(attribute.Int("pool_size", len(pool))))
	defer span.End()

	rc, err := e.fetch(ctx, viewerID, pool)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	ranked := make([]model.RankedCandidate, 0, len(pool))
	for _, c := range pool {
		profile, ok := rc.profiles[c.UserID]
		if !ok {
			err := &OpError{Op: opRerank, Err: fmt.Errorf("%w: candidate %s is missing from the profile store", ErrDataConsistency, c.UserID)}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		sim, hasSim := rc.similarity[c.UserID]
		r := e.model.Score(scoring.Input{
			Candidate:       c,
			Viewer:          rc.viewer,
			Profile:         profile,
			CandidateSwipes: rc.swipes[c.UserID],
			ViewerHistory:   rc.history,
			Similarity:      sim,
			HasSimilarity:   hasSim,
		})
		e.observer.ObserveScore(ctx, viewerID, r)
		metrics.RecordFinalScore(r.FinalScore)
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})
	metrics.RecordRerankLatency(float64(time.Since(start).Milliseconds()))
	return ranked, nil
}

// fetch loads the rerank context concurrently. It never returns partial
// data: a cancelled ctx fails the whole fetch.
func (e *Engine) fetch(ctx context.Context, viewerID string, pool []model.SearchCandidate) (*rerankContext, error) {
	ids := make([]string, len(pool))
	for i, c := range pool {
		ids[i] = c.UserID
	}
	since := e.now().Add(-e.window)

	var (
		viewer   model.Profile
		profiles map[string]model.Profile
		swipes   []model.SwipeRecord
		history  []model.ViewerSwipe
		sims     []model.EmbeddingSimilarity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := e.store.GetProfile(gctx, viewerID)
		if err != nil {
			return fetchError(opViewerProfile, err)
		}
		viewer = p
		return nil
	})
	g.Go(func() error {
		m, err := e.store.GetProfiles(gctx, ids)
		if err != nil {
			return fetchError(opCandidateProfiles, err)
		}
		profiles = m
		return nil
	})
	g.Go(func() error {
		s, err := e.store.CandidateSwipesSince(gctx, ids, since)
		if err != nil {
			return e.degrade(gctx, sourceCandidateSwipes, viewerID, err)
		}
		swipes = s
		return nil
	})
	g.Go(func() error {
		h, err := e.store.ViewerRecentSwipes(gctx, viewerID, e.historySize)
		if err != nil {
			return e.degrade(gctx, sourceViewerHistory, viewerID, err)
		}
		history = h
		return nil
	})
	g.Go(func() error {
		s, err := e.store.EmbeddingSimilarities(gctx, viewerID, ids)
		if err != nil {
			return e.degrade(gctx, sourceEmbeddings, viewerID, err)
		}
		sims = s
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &OpError{Op: opRerank, Err: err}
	}

	rc := &rerankContext{
		viewer:     viewer,
		profiles:   profiles,
		swipes:     make(map[string][]model.SwipeRecord, len(pool)),
		history:    e.viewerHistory(history),
		similarity: make(map[string]float64, len(sims)),
	}
	for _, s := range swipes {
		rc.swipes[s.CandidateID] = append(rc.swipes[s.CandidateID], s)
	}
	for _, s := range sims {
		rc.similarity[s.CandidateID] = s.Similarity
	}
	return rc, nil
}

// degrade swallows a failed optional fetch. If the group is already being
// torn down the error is returned so the request fails as a whole.
func (e *Engine) degrade(ctx context.Context, source, viewerID string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &OpError{Op: opRerank + "." + source, Err: ctxErr}
	}
	metrics.RecordDegradedFetch(source)
	e.log.Warn(ctx, "optional rerank input unavailable, using defaults",
		logger.String("source", source),
		logger.String("viewer_id", viewerID),
		logger.Error(err))
	return nil
}

// viewerHistory caps the history and fills candidate ages from birthdates.
func (e *Engine) viewerHistory(h []model.ViewerSwipe) []model.ViewerSwipe {
	if len(h) > e.historySize {
		h = h[:e.historySize]
	}
	now := e.now()
	out := make([]model.ViewerSwipe, len(h))
	for i, s := range h {
		if !s.CandidateBirthdate.IsZero() {
			s.CandidateAge = scoring.Age(s.CandidateBirthdate, now)
		}
		out[i] = s
	}
	return out
}
