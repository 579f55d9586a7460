package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/internal/domain/users"
	"github.com/okian/skillmatch/pkg/logger"
)

// Store is what seeding writes to.
type Store interface {
	CreateUser(ctx context.Context, u model.User) error
	EnsureSkills(ctx context.Context, names []string) (map[string]string, error)
	AddUserSkills(ctx context.Context, skills []model.UserSkill) error
	InsertSwipe(ctx context.Context, rec model.SwipeRecord) error
	PutEmbedding(ctx context.Context, userID string, vec []float32) error
}

// Stats counts what Apply wrote.
type Stats struct {
	Users      int `json:"users"`
	UserSkills int `json:"user_skills"`
	Swipes     int `json:"swipes"`
	Embeddings int `json:"embeddings"`
}

// Apply writes f to store with timestamps relative to now. The fixture is
// validated before anything is written.
func Apply(ctx context.Context, store Store, f *Fixture, now time.Time, log logger.Logger) (Stats, error) {
	if log == nil {
		log = logger.Nop()
	}
	parsed, err := validate(f, now)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for i, u := range parsed {
		if err := store.CreateUser(ctx, u); err != nil {
			return stats, fmt.Errorf("seed user %s: %w", u.ID, err)
		}
		stats.Users++

		n, err := seedSkills(ctx, store, u.ID, f.Users[i])
		if err != nil {
			return stats, err
		}
		stats.UserSkills += n

		if vec := f.Users[i].Embedding; len(vec) > 0 {
			if err := store.PutEmbedding(ctx, u.ID, vec); err != nil {
				return stats, fmt.Errorf("seed embedding %s: %w", u.ID, err)
			}
			stats.Embeddings++
		}
	}

	for _, sw := range f.Swipes {
		status, _ := model.ParseSwipeStatus(sw.Status)
		rec := model.SwipeRecord{
			ViewerID:    sw.Viewer,
			CandidateID: sw.Candidate,
			Status:      status,
			CreatedAt:   now.AddDate(0, 0, -sw.DaysAgo).UTC(),
		}
		if err := store.InsertSwipe(ctx, rec); err != nil {
			return stats, fmt.Errorf("seed swipe %s->%s: %w", sw.Viewer, sw.Candidate, err)
		}
		stats.Swipes++
	}

	log.Info(ctx, "seed applied",
		logger.Int("users", stats.Users),
		logger.Int("user_skills", stats.UserSkills),
		logger.Int("swipes", stats.Swipes),
		logger.Int("embeddings", stats.Embeddings))
	return stats, nil
}

func validate(f *Fixture, now time.Time) ([]model.User, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil fixture", ErrInvalidFixture)
	}
	ids := make(map[string]struct{}, len(f.Users))
	out := make([]model.User, 0, len(f.Users))
	for i, uf := range f.Users {
		id := strings.TrimSpace(uf.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: user %d has no id", ErrInvalidFixture, i)
		}
		if _, dup := ids[id]; dup {
			return nil, fmt.Errorf("%w: duplicate user %s", ErrInvalidFixture, id)
		}
		ids[id] = struct{}{}

		gender, err := model.ParseGender(uf.Gender)
		if err != nil {
			return nil, fmt.Errorf("%w: user %s: %w", ErrInvalidFixture, id, err)
		}
		bd, err := time.Parse(model.DateLayout, uf.Birthdate)
		if err != nil {
			return nil, fmt.Errorf("%w: user %s: birthdate %q", ErrInvalidFixture, id, uf.Birthdate)
		}
		tz := uf.TZName
		if tz == "" {
			tz = users.DefaultTimezone
		}
		out = append(out, model.User{
			ID:        id,
			FirstName: uf.FirstName,
			LastName:  uf.LastName,
			Birthdate: bd,
			Gender:    gender,
			TZName:    tz,
			CreatedAt: now.UTC(),
		})
	}

	for i, sw := range f.Swipes {
		if _, ok := ids[sw.Viewer]; !ok {
			return nil, fmt.Errorf("%w: swipe %d: unknown viewer %q", ErrInvalidFixture, i, sw.Viewer)
		}
		if _, ok := ids[sw.Candidate]; !ok {
			return nil, fmt.Errorf("%w: swipe %d: unknown candidate %q", ErrInvalidFixture, i, sw.Candidate)
		}
		if _, err := model.ParseSwipeStatus(sw.Status); err != nil {
			return nil, fmt.Errorf("%w: swipe %d: %w", ErrInvalidFixture, i, err)
		}
		if sw.DaysAgo < 0 {
			return nil, fmt.Errorf("%w: swipe %d: days_ago must not be negative", ErrInvalidFixture, i)
		}
	}
	return out, nil
}

func seedSkills(ctx context.Context, store Store, userID string, uf UserFixture) (int, error) {
	teach, learn := normalize(uf.Teaches), normalize(uf.Learns)
	all := append(append([]string{}, teach...), learn...)
	if len(all) == 0 {
		return 0, nil
	}
	ids, err := store.EnsureSkills(ctx, all)
	if err != nil {
		return 0, fmt.Errorf("seed skills for %s: %w", userID, err)
	}
	rows := make([]model.UserSkill, 0, len(all))
	for _, n := range teach {
		rows = append(rows, model.UserSkill{UserID: userID, SkillID: ids[n], SkillName: n, Role: model.RoleTeach})
	}
	for _, n := range learn {
		rows = append(rows, model.UserSkill{UserID: userID, SkillID: ids[n], SkillName: n, Role: model.RoleLearn})
	}
	if err := store.AddUserSkills(ctx, rows); err != nil {
		return 0, fmt.Errorf("seed user skills for %s: %w", userID, err)
	}
	return len(rows), nil
}

func normalize(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = users.NormalizeSkillName(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
