package matching

import (
	"context"
	"time"

	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/internal/domain/scoring"
	"github.com/okian/skillmatch/internal/domain/types"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/okian/skillmatch/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// GetCandidateDetails returns the public profile of candidateID together with
// the skills it can exchange with viewerID.
func (e *Engine) GetCandidateDetails(ctx context.Context, candidateID, viewerID string) (types.CandidateDetails, error) {
	ctx, span := e.tracer.Start(ctx, opCandidateDetails, trace.WithAttributes(
		attribute.String("candidate_id", candidateID),
		attribute.String("viewer_id", viewerID),
	))
	defer span.End()

	d, err := e.candidateDetails(ctx, candidateID, viewerID)
	if err != nil {
		metrics.RecordCandidateDetailRequest(outcomeError)
		metrics.RecordErrorByComponent("matching", errorType(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.log.Error(ctx, "candidate details failed",
			logger.String("candidate_id", candidateID),
			logger.String("viewer_id", viewerID),
			logger.Error(err))
		return types.CandidateDetails{}, err
	}
	metrics.RecordCandidateDetailRequest(outcomeOK)
	return d, nil
}

func (e *Engine) candidateDetails(ctx context.Context, candidateID, viewerID string) (types.CandidateDetails, error) {
	for _, id := range []string{candidateID, viewerID} {
		if err := validateID(id); err != nil {
			return types.CandidateDetails{}, &OpError{Op: opCandidateDetails, Err: err}
		}
	}

	var (
		candidate       model.User
		candidateSkills []model.UserSkill
		viewerSkills    []model.UserSkill
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := e.store.GetUser(gctx, candidateID)
		if err != nil {
			return fetchError(opCandidateDetails+".candidate", err)
		}
		candidate = u
		return nil
	})
	g.Go(func() error {
		s, err := e.store.GetUserSkills(gctx, candidateID)
		if err != nil {
			return fetchError(opCandidateDetails+".candidate_skills", err)
		}
		candidateSkills = s
		return nil
	})
	g.Go(func() error {
		s, err := e.store.GetUserSkills(gctx, viewerID)
		if err != nil {
			return fetchError(opCandidateDetails+".viewer_skills", err)
		}
		viewerSkills = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return types.CandidateDetails{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.CandidateDetails{}, &OpError{Op: opCandidateDetails, Err: err}
	}

	return types.CandidateDetails{
		Candidate:    summarize(candidate, e.now()),
		MutualSkills: mutualSkills(candidateSkills, viewerSkills),
		AllSkills: types.AllSkills{
			Teaches:      skillsWithRole(candidateSkills, model.RoleTeach, nil),
			WantsToLearn: skillsWithRole(candidateSkills, model.RoleLearn, nil),
		},
	}, nil
}

func summarize(u model.User, now time.Time) types.CandidateSummary {
	s := types.CandidateSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       scoring.Age(u.Birthdate, now),
		Gender:    string(u.Gender),
		Timezone:  u.TZName,
	}
	if !u.CreatedAt.IsZero() {
		created := u.CreatedAt
		s.MemberSince = &created
	}
	return s
}

// mutualSkills intersects by skill id: what the candidate teaches that the
// viewer learns, and what the candidate learns that the viewer teaches.
func mutualSkills(candidate, viewer []model.UserSkill) types.MutualSkills {
	viewerTeaches := make(map[string]struct{})
	viewerLearns := make(map[string]struct{})
	for _, s := range viewer {
		switch s.Role {
		case model.RoleTeach:
			viewerTeaches[s.SkillID] = struct{}{}
		case model.RoleLearn:
			viewerLearns[s.SkillID] = struct{}{}
		}
	}
	return types.MutualSkills{
		TeachesMe:    skillsWithRole(candidate, model.RoleTeach, viewerLearns),
		LearnsFromMe: skillsWithRole(candidate, model.RoleLearn, viewerTeaches),
	}
}

// skillsWithRole keeps skills in role, restricted to ids in filter when it is
// non-nil. The result is never nil.
func skillsWithRole(skills []model.UserSkill, role model.SkillRole, filter map[string]struct{}) []types.SkillInfo {
	out := []types.SkillInfo{}
	for _, s := range skills {
		if s.Role != role {
			continue
		}
		if filter != nil {
			if _, ok := filter[s.SkillID]; !ok {
				continue
			}
		}
		info := types.SkillInfo{SkillName: s.SkillName}
		if s.Level != "" {
			level := s.Level
			info.Level = &level
		}
		out = append(out, info)
	}
	return out
}
