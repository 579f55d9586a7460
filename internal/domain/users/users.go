// Package users implements onboarding: creating users with their skills,
// looking up profiles and listing the skill catalog.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/internal/domain/scoring"
	"github.com/okian/skillmatch/internal/domain/types"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/okian/skillmatch/pkg/metrics"
)

// Defaults.
const (
	DefaultTimezone   = "Asia/Singapore"
	DefaultMinimumAge = 13
)

// Store persists users, skills and enrichment records.
type Store interface {
	CreateUser(ctx context.Context, u model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	// EnsureSkills returns the id of every name, creating missing skills.
	EnsureSkills(ctx context.Context, names []string) (map[string]string, error)
	AddUserSkills(ctx context.Context, skills []model.UserSkill) error
	ListSkills(ctx context.Context) ([]model.Skill, error)
	CreateEnrichmentRecord(ctx context.Context, rec model.EnrichmentRecord) error
}

// Publisher hands an enrichment request to whatever processes it.
type Publisher interface {
	Publish(ctx context.Context, req model.EnrichmentRequest) error
}

// CreateUserRequest is the sign-up payload.
type CreateUserRequest struct {
	// ID is the identity-provider id. Empty generates a new UUID.
	ID            string   `json:"id,omitempty" yaml:"id"`
	FirstName     string   `json:"first_name" yaml:"first_name"`
	LastName      string   `json:"last_name" yaml:"last_name"`
	Birthdate     string   `json:"birthdate" yaml:"birthdate"`
	Gender        string   `json:"gender" yaml:"gender"`
	TZName        string   `json:"tz_name,omitempty" yaml:"tz_name"`
	LinkedInURL   string   `json:"linkedin_url,omitempty" yaml:"linkedin_url"`
	SkillsToTeach []string `json:"skills_to_teach,omitempty" yaml:"skills_to_teach"`
	SkillsToLearn []string `json:"skills_to_learn,omitempty" yaml:"skills_to_learn"`
}

// Service runs the onboarding flows.
type Service struct {
	store     Store
	publisher Publisher
	log       logger.Logger
	now       func() time.Time
	defaultTZ string
	minAge    int
}

// New creates a Service backed by store.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("users: store is required")
	}
	s := &Service{
		store:     store,
		log:       logger.Nop(),
		now:       time.Now,
		defaultTZ: DefaultTimezone,
		minAge:    DefaultMinimumAge,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateUser validates req, stores the user with its skills and, when a
// profile URL is given, requests enrichment. Enrichment problems are logged
// and never fail the sign-up.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (model.User, error) {
	u, err := s.validate(req)
	if err != nil {
		return model.User{}, err
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return model.User{}, fmt.Errorf("%w: %s", ErrConflict, u.ID)
		}
		return model.User{}, fmt.Errorf("create user %s: %w", u.ID, err)
	}

	if err := s.addSkills(ctx, u.ID, req.SkillsToTeach, req.SkillsToLearn); err != nil {
		return model.User{}, err
	}

	metrics.RecordUserCreated()
	s.log.Info(ctx, "user created",
		logger.String("user_id", u.ID),
		logger.Int("teaches", len(req.SkillsToTeach)),
		logger.Int("learns", len(req.SkillsToLearn)))

	if url := strings.TrimSpace(req.LinkedInURL); url != "" {
		s.requestEnrichment(ctx, u.ID, url)
	}
	return u, nil
}

func (s *Service) validate(req CreateUserRequest) (model.User, error) {
	first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
	if first == "" || last == "" || strings.TrimSpace(req.Birthdate) == "" || strings.TrimSpace(req.Gender) == "" {
		return model.User{}, fmt.Errorf("%w: first_name, last_name, birthdate and gender are required", ErrValidation)
	}

	gender, err := model.ParseGender(req.Gender)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	bd, err := time.Parse(model.DateLayout, strings.TrimSpace(req.Birthdate))
	if err != nil {
		return model.User{}, fmt.Errorf("%w: birthdate must be YYYY-MM-DD", ErrValidation)
	}
	now := s.now().UTC()
	if bd.After(now) {
		return model.User{}, fmt.Errorf("%w: birthdate cannot be in the future", ErrValidation)
	}
	if scoring.Age(bd, now) < s.minAge {
		return model.User{}, fmt.Errorf("%w: user must be at least %d years old", ErrValidation, s.minAge)
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return model.User{}, fmt.Errorf("%w: id %q is not a UUID", ErrValidation, id)
	}

	tz := strings.TrimSpace(req.TZName)
	if tz == "" {
		tz = s.defaultTZ
	}

	return model.User{
		ID:        id,
		FirstName: first,
		LastName:  last,
		Birthdate: bd,
		Gender:    gender,
		TZName:    tz,
		CreatedAt: now,
	}, nil
}

func (s *Service) addSkills(ctx context.Context, userID string, teach, learn []string) error {
	teach, learn = normalizeSkills(teach), normalizeSkills(learn)
	if len(teach) == 0 && len(learn) == 0 {
		return nil
	}

	ids, err := s.store.EnsureSkills(ctx, normalizeSkills(append(append([]string{}, teach...), learn...)))
	if err != nil {
		return fmt.Errorf("ensure skills: %w", err)
	}

	byKey := make(map[string]string, len(ids))
	for name, id := range ids {
		byKey[skillKey(name)] = id
	}

	rows := make([]model.UserSkill, 0, len(teach)+len(learn))
	add := func(names []string, role model.SkillRole) error {
		for _, n := range names {
			id, ok := byKey[skillKey(n)]
			if !ok {
				return fmt.Errorf("ensure skills: no id returned for %q", n)
			}
			rows = append(rows, model.UserSkill{UserID: userID, SkillID: id, SkillName: n, Role: role})
		}
		return nil
	}
	if err := add(teach, model.RoleTeach); err != nil {
		return err
	}
	if err := add(learn, model.RoleLearn); err != nil {
		return err
	}
	if err := s.store.AddUserSkills(ctx, rows); err != nil {
		return fmt.Errorf("add user skills: %w", err)
	}
	return nil
}

func (s *Service) requestEnrichment(ctx context.Context, userID, url string) {
	rec := model.EnrichmentRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		LinkedInURL: url,
		State:       model.EnrichmentInQueue,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateEnrichmentRecord(ctx, rec); err != nil {
		metrics.RecordEnrichmentPublished("record_failed")
		s.log.Error(ctx, "create enrichment record failed",
			logger.String("user_id", userID), logger.Error(err))
		return
	}
	if s.publisher == nil {
		metrics.RecordEnrichmentPublished("no_publisher")
		return
	}

	err := s.publisher.Publish(ctx, model.EnrichmentRequest{
		RecordID:    rec.ID,
		UserID:      userID,
		LinkedInURL: url,
		RequestedAt: rec.CreatedAt,
	})
	if err != nil {
		metrics.RecordEnrichmentPublished("failed")
		s.log.Warn(ctx, "enrichment request not published",
			logger.String("user_id", userID),
			logger.String("record_id", rec.ID),
			logger.Error(err))
		return
	}
	metrics.RecordEnrichmentPublished("published")
}

// GetProfile returns userID with its onboarding status. A user that never
// finished sign-up is reported as not onboarded rather than as an error.
func (s *Service) GetProfile(ctx context.Context, userID string) (types.UserProfile, error) {
	u, err := s.store.GetUser(ctx, userID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return types.UserProfile{ID: userID}, nil
	case err != nil:
		return types.UserProfile{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return types.UserProfile{User: &u, ID: u.ID, IsOnboarded: true}, nil
}

// ListSkills returns the skill catalog ordered by name.
func (s *Service) ListSkills(ctx context.Context) ([]model.Skill, error) {
	skills, err := s.store.ListSkills(ctx)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	return skills, nil
}
