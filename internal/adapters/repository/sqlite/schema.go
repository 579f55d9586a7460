package sqlite

import (
	"context"
	"fmt"

	"github.com/okian/skillmatch/pkg/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		birthdate TEXT,
		gender TEXT CHECK (gender IN ('M', 'F', 'O')),
		tz_name TEXT,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS skills (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE
	)`,
	`CREATE TABLE IF NOT EXISTS user_skills (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		skill_id TEXT NOT NULL REFERENCES skills(id),
		role TEXT NOT NULL CHECK (role IN ('teach', 'learn')),
		level TEXT,
		UNIQUE (user_id, skill_id, role)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_skills_skill_role ON user_skills (skill_id, role)`,
	`CREATE TABLE IF NOT EXISTS swipe_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		viewer_id TEXT NOT NULL REFERENCES users(id),
		candidate_id TEXT NOT NULL REFERENCES users(id),
		status TEXT NOT NULL CHECK (status IN ('declined', 'offered', 'accepted')),
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_swipe_candidate_created ON swipe_history (candidate_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_swipe_viewer_created ON swipe_history (viewer_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS linkedin_data (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		linkedin_url TEXT NOT NULL,
		state TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_embeddings (
		user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		vector BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
}

// Migrate creates every table and index that does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	s.log.Info(ctx, "sqlite schema ready", logger.Int("statements", len(schema)))
	return nil
}
