package repository_test

import (
	"context"
	"testing"

	"github.com/okian/skillmatch/internal/adapters/repository"
	"github.com/okian/skillmatch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	_, err := repository.Open(ctx, "mongo", "x")
	assert.ErrorIs(t, err, repository.ErrUnknownDriver)

	_, err = repository.Open(ctx, config.DriverSQLite, "")
	assert.ErrorIs(t, err, repository.ErrMissingDSN)

	cfg := config.New()
	cfg.SQLiteDSN = "file:open_test?mode=memory&cache=shared"
	s, err := repository.OpenConfig(ctx, cfg, repository.WithMaxOpenConns(1))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(ctx))

	skills, err := s.ListSkills(ctx)
	require.NoError(t, err)
	assert.Empty(t, skills)
}
