package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/skillmatch/internal/adapters/repository/postgres"
	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore connects to TEST_POSTGRES_DSN or skips.
func openTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := postgres.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestMutualSearchAgainstPostgres(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mk := func(first string) string {
		id := uuid.NewString()
		require.NoError(t, s.CreateUser(ctx, model.User{
			ID: id, FirstName: first, LastName: "Test",
			Birthdate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
			Gender:    model.GenderOther, TZName: "UTC",
		}))
		return id
	}
	viewer, cand := mk("viewer"), mk("candidate")

	suffix := uuid.NewString()[:8]
	ids, err := s.EnsureSkills(ctx, []string{"go-" + suffix, "rust-" + suffix})
	require.NoError(t, err)
	goID, rustID := ids["go-"+suffix], ids["rust-"+suffix]

	require.NoError(t, s.AddUserSkills(ctx, []model.UserSkill{
		{UserID: viewer, SkillID: goID, Role: model.RoleTeach},
		{UserID: viewer, SkillID: rustID, Role: model.RoleLearn},
		{UserID: cand, SkillID: rustID, Role: model.RoleTeach},
		{UserID: cand, SkillID: goID, Role: model.RoleLearn},
	}))

	got, err := s.SearchMutualSkillCandidates(ctx, viewer, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, cand, got[0].UserID)
	assert.Equal(t, 1, got[0].TeachesMe)
	assert.Equal(t, 1, got[0].LearnsFromMe)
	assert.Equal(t, 2.0, got[0].OverlapScore)

	require.NoError(t, s.PutEmbedding(ctx, viewer, []float32{1, 0}))
	require.NoError(t, s.PutEmbedding(ctx, cand, []float32{1, 0}))
	sims, err := s.EmbeddingSimilarities(ctx, viewer, []string{cand})
	require.NoError(t, err)
	require.Len(t, sims, 1)
	assert.InDelta(t, 1.0, sims[0].Similarity, 1e-6)

	err = s.CreateUser(ctx, model.User{ID: viewer, FirstName: "dup", LastName: "dup"})
	assert.ErrorIs(t, err, model.ErrDuplicate)
}
