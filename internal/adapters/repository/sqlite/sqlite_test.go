package sqlite_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/okian/skillmatch/internal/adapters/repository"
	"github.com/okian/skillmatch/internal/adapters/repository/sqlite"
	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	_ repository.Store = (*sqlite.Store)(nil)
)

func uid(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	ctx := context.Background()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)

	s, err := sqlite.Open(ctx, dsn,
		sqlite.WithMaxOpenConns(1),
		sqlite.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func addUser(t *testing.T, s *sqlite.Store, n int, birthdate string, gender model.Gender) string {
	t.Helper()
	bd, err := time.Parse(model.DateLayout, birthdate)
	require.NoError(t, err)
	u := model.User{
		ID:        uid(n),
		FirstName: fmt.Sprintf("user%d", n),
		LastName:  "Test",
		Birthdate: bd,
		Gender:    gender,
		TZName:    "Asia/Singapore",
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u.ID
}

func link(t *testing.T, s *sqlite.Store, userID string, role model.SkillRole, names ...string) {
	t.Helper()
	ctx := context.Background()
	ids, err := s.EnsureSkills(ctx, names)
	require.NoError(t, err)
	rows := make([]model.UserSkill, 0, len(names))
	for _, n := range names {
		rows = append(rows, model.UserSkill{UserID: userID, SkillID: ids[n], Role: role})
	}
	require.NoError(t, s.AddUserSkills(ctx, rows))
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := setupStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestUsers(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id := addUser(t, s, 1, "1990-06-15", model.GenderFemale)

	got, err := s.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "user1", got.FirstName)
	assert.Equal(t, time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC), got.Birthdate)
	assert.Equal(t, model.GenderFemale, got.Gender)
	assert.Equal(t, testNow, got.CreatedAt)

	err = s.CreateUser(ctx, model.User{ID: id, FirstName: "x", LastName: "y"})
	assert.ErrorIs(t, err, model.ErrDuplicate)

	_, err = s.GetUser(ctx, uid(99))
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.GetProfile(ctx, uid(99))
	assert.ErrorIs(t, err, model.ErrNotFound)

	other := addUser(t, s, 2, "1985-01-01", model.GenderMale)
	profiles, err := s.GetProfiles(ctx, []string{id, other, uid(99)})
	require.NoError(t, err)
	assert.Len(t, profiles, 2)
	assert.Equal(t, "Asia/Singapore", profiles[other].TZName)

	empty, err := s.GetProfiles(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUserWithoutGender(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, model.User{ID: uid(7), FirstName: "no", LastName: "gender"}))

	got, err := s.GetUser(ctx, uid(7))
	require.NoError(t, err)
	assert.Equal(t, model.Gender(""), got.Gender)
	assert.True(t, got.Birthdate.IsZero())

	err = s.CreateUser(ctx, model.User{ID: uid(7), FirstName: "again", LastName: "gender"})
	assert.ErrorIs(t, err, model.ErrDuplicate)
}

func TestSkills(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first, err := s.EnsureSkills(ctx, []string{"Go", "Piano"})
	require.NoError(t, err)
	require.Len(t, first, 2)

	again, err := s.EnsureSkills(ctx, []string{"go", "Chess"})
	require.NoError(t, err)
	assert.Equal(t, first["Go"], again["go"], "lookup is case-insensitive")

	skills, err := s.ListSkills(ctx)
	require.NoError(t, err)
	require.Len(t, skills, 3)
	assert.Equal(t, "Chess", skills[0].Name)
	assert.Equal(t, "Go", skills[1].Name)

	id := addUser(t, s, 1, "1990-01-01", model.GenderOther)
	require.NoError(t, s.AddUserSkills(ctx, []model.UserSkill{
		{UserID: id, SkillID: first["Go"], Role: model.RoleTeach, Level: "expert"},
		{UserID: id, SkillID: first["Piano"], Role: model.RoleLearn},
	}))
	// re-adding the same link is a no-op
	require.NoError(t, s.AddUserSkills(ctx, []model.UserSkill{
		{UserID: id, SkillID: first["Go"], Role: model.RoleTeach},
	}))

	us, err := s.GetUserSkills(ctx, id)
	require.NoError(t, err)
	require.Len(t, us, 2)
	assert.Equal(t, "Go", us[0].SkillName)
	assert.Equal(t, model.RoleTeach, us[0].Role)
	assert.Equal(t, "expert", us[0].Level)
	assert.Equal(t, "Piano", us[1].SkillName)
	assert.Empty(t, us[1].Level)

	none, err := s.GetUserSkills(ctx, uid(99))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSearchMutualSkillCandidates(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	viewer := addUser(t, s, 1, "1990-01-01", model.GenderFemale)
	link(t, s, viewer, model.RoleTeach, "Go", "SQL")
	link(t, s, viewer, model.RoleLearn, "Piano", "Chess", "French")

	// two skills each way
	strong := addUser(t, s, 2, "1990-01-01", model.GenderMale)
	link(t, s, strong, model.RoleTeach, "Piano", "Chess")
	link(t, s, strong, model.RoleLearn, "Go", "SQL")

	// one each way, ties with tie2 on overlap and teaches_me
	tie1 := addUser(t, s, 4, "1990-01-01", model.GenderMale)
	link(t, s, tie1, model.RoleTeach, "French")
	link(t, s, tie1, model.RoleLearn, "Go")
	tie2 := addUser(t, s, 3, "1990-01-01", model.GenderMale)
	link(t, s, tie2, model.RoleTeach, "Piano")
	link(t, s, tie2, model.RoleLearn, "SQL")

	// teaches the viewer but wants nothing the viewer offers
	oneWay := addUser(t, s, 5, "1990-01-01", model.GenderMale)
	link(t, s, oneWay, model.RoleTeach, "Piano")
	link(t, s, oneWay, model.RoleLearn, "Dance")

	got, err := s.SearchMutualSkillCandidates(ctx, viewer, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, model.SearchCandidate{UserID: strong, TeachesMe: 2, LearnsFromMe: 2, OverlapScore: 4}, got[0])
	assert.Equal(t, tie2, got[1].UserID, "ties break on user id")
	assert.Equal(t, tie1, got[2].UserID)

	limited, err := s.SearchMutualSkillCandidates(ctx, viewer, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, strong, limited[0].UserID)

	none, err := s.SearchMutualSkillCandidates(ctx, uid(99), 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSwipes(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	viewer := addUser(t, s, 1, "1990-01-01", model.GenderFemale)
	a := addUser(t, s, 2, "1994-06-01", model.GenderMale)
	b := addUser(t, s, 3, "1980-01-01", model.GenderFemale)

	old := testNow.Add(-40 * 24 * time.Hour)
	require.NoError(t, s.InsertSwipe(ctx, model.SwipeRecord{ViewerID: viewer, CandidateID: a, Status: model.SwipeOffered, CreatedAt: old}))
	require.NoError(t, s.InsertSwipe(ctx, model.SwipeRecord{ViewerID: viewer, CandidateID: b, Status: model.SwipeDeclined, CreatedAt: testNow.Add(-time.Hour)}))
	require.NoError(t, s.InsertSwipe(ctx, model.SwipeRecord{ViewerID: b, CandidateID: a, Status: model.SwipeAccepted}))

	since := testNow.Add(-30 * 24 * time.Hour)
	recent, err := s.CandidateSwipesSince(ctx, []string{a, b}, since)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	onlyA, err := s.CandidateSwipesSince(ctx, []string{a}, since)
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, model.SwipeAccepted, onlyA[0].Status)
	assert.Equal(t, testNow, onlyA[0].CreatedAt)

	history, err := s.ViewerRecentSwipes(ctx, viewer, 3)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, b, history[0].CandidateID, "newest first")
	assert.Equal(t, model.GenderFemale, history[0].CandidateGender)
	assert.Equal(t, time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC), history[0].CandidateBirthdate)
	assert.Equal(t, a, history[1].CandidateID)

	capped, err := s.ViewerRecentSwipes(ctx, viewer, 1)
	require.NoError(t, err)
	assert.Len(t, capped, 1)
}

func TestEmbeddingSimilarities(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	viewer := addUser(t, s, 1, "1990-01-01", model.GenderFemale)
	same := addUser(t, s, 2, "1990-01-01", model.GenderMale)
	opposite := addUser(t, s, 3, "1990-01-01", model.GenderMale)
	orthogonal := addUser(t, s, 4, "1990-01-01", model.GenderMale)
	missing := addUser(t, s, 5, "1990-01-01", model.GenderMale)

	none, err := s.EmbeddingSimilarities(ctx, viewer, []string{same})
	require.NoError(t, err)
	assert.Empty(t, none, "viewer without a vector yields nothing")

	require.NoError(t, s.PutEmbedding(ctx, viewer, []float32{1, 0}))
	require.NoError(t, s.PutEmbedding(ctx, same, []float32{2, 0}))
	require.NoError(t, s.PutEmbedding(ctx, opposite, []float32{-1, 0}))
	require.NoError(t, s.PutEmbedding(ctx, orthogonal, []float32{0, 3}))
	assert.ErrorIs(t, s.PutEmbedding(ctx, missing, nil), sqlite.ErrBadVector)

	sims, err := s.EmbeddingSimilarities(ctx, viewer, []string{same, opposite, orthogonal, missing})
	require.NoError(t, err)
	require.Len(t, sims, 3)

	byID := make(map[string]float64, len(sims))
	for _, sim := range sims {
		byID[sim.CandidateID] = sim.Similarity
	}
	assert.InDelta(t, 1.0, byID[same], 1e-9)
	assert.InDelta(t, 0.0, byID[opposite], 1e-9)
	assert.InDelta(t, 0.5, byID[orthogonal], 1e-9)
	assert.NotContains(t, byID, missing)

	// replacing a vector takes effect
	require.NoError(t, s.PutEmbedding(ctx, opposite, []float32{1, 0}))
	sims, err = s.EmbeddingSimilarities(ctx, viewer, []string{opposite})
	require.NoError(t, err)
	require.Len(t, sims, 1)
	assert.InDelta(t, 1.0, sims[0].Similarity, 1e-9)
}

func TestEnrichmentRecords(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	user := addUser(t, s, 1, "1990-01-01", model.GenderFemale)
	rec := model.EnrichmentRecord{
		ID:          uid(100),
		UserID:      user,
		LinkedInURL: "https://www.linkedin.com/in/test",
		State:       model.EnrichmentInQueue,
	}
	require.NoError(t, s.CreateEnrichmentRecord(ctx, rec))

	dup := rec
	dup.ID = uid(101)
	assert.ErrorIs(t, s.CreateEnrichmentRecord(ctx, dup), model.ErrDuplicate)

	require.NoError(t, s.UpdateEnrichmentState(ctx, rec.ID, model.EnrichmentDispatched))
	got, err := s.GetEnrichmentRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrichmentDispatched, got.State)
	assert.Equal(t, rec.LinkedInURL, got.LinkedInURL)
	assert.Equal(t, testNow, got.CreatedAt)

	assert.ErrorIs(t, s.UpdateEnrichmentState(ctx, uid(102), model.EnrichmentFailed), model.ErrNotFound)
	_, err = s.GetEnrichmentRecord(ctx, uid(102))
	assert.ErrorIs(t, err, model.ErrNotFound)
}
