package postgres

import (
	"context"
	"fmt"

	"github.com/okian/skillmatch/pkg/logger"
)

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		first_name TEXT,
		last_name TEXT,
		birthdate DATE,
		gender TEXT CHECK (gender IN ('M', 'F', 'O')),
		tz_name TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS skills (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_skills_name_lower ON skills (lower(name))`,
	`CREATE TABLE IF NOT EXISTS user_skills (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID REFERENCES users(id) ON DELETE CASCADE,
		skill_id UUID REFERENCES skills(id),
		role TEXT NOT NULL CHECK (role IN ('teach', 'learn')),
		level TEXT,
		UNIQUE (user_id, skill_id, role)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_skills_skill_role ON user_skills (skill_id, role)`,
	`CREATE TABLE IF NOT EXISTS swipe_history (
		id BIGSERIAL PRIMARY KEY,
		viewer_id UUID REFERENCES users(id),
		candidate_id UUID REFERENCES users(id),
		status TEXT NOT NULL CHECK (status IN ('declined', 'offered', 'accepted')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_swipe_candidate_created ON swipe_history (candidate_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_swipe_viewer_created ON swipe_history (viewer_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS linkedin_data (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		linkedin_url TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'in_queue',
		profile_data JSONB,
		profile_summary JSONB,
		embedding vector,
		extraction_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE OR REPLACE FUNCTION find_mutual_skill_candidates(p_viewer UUID, p_limit INT DEFAULT 100)
	RETURNS TABLE (user_id UUID, teaches_me INT, learns_from_me INT, overlap_score INT)
	LANGUAGE sql STABLE AS $$
		WITH t AS (
			SELECT c.user_id, COUNT(DISTINCT c.skill_id)::INT AS n
			FROM user_skills c
			JOIN user_skills v ON v.skill_id = c.skill_id AND v.user_id = p_viewer AND v.role = 'learn'
			WHERE c.role = 'teach' AND c.user_id <> p_viewer
			GROUP BY c.user_id
		), l AS (
			SELECT c.user_id, COUNT(DISTINCT c.skill_id)::INT AS n
			FROM user_skills c
			JOIN user_skills v ON v.skill_id = c.skill_id AND v.user_id = p_viewer AND v.role = 'teach'
			WHERE c.role = 'learn' AND c.user_id <> p_viewer
			GROUP BY c.user_id
		)
		SELECT t.user_id, t.n, l.n, t.n + l.n
		FROM t JOIN l ON l.user_id = t.user_id
		ORDER BY t.n + l.n DESC, t.n DESC, t.user_id ASC
		LIMIT p_limit
	$$`,
	`CREATE OR REPLACE FUNCTION get_linkedin_embedding_similarities(p_viewer_id UUID, p_candidate_ids UUID[])
	RETURNS TABLE (candidate_id UUID, similarity DOUBLE PRECISION)
	LANGUAGE sql STABLE AS $$
		SELECT c.user_id,
		       GREATEST(0, LEAST(1, ((1 - (v.embedding <=> c.embedding)) + 1) / 2))
		FROM linkedin_data v
		JOIN linkedin_data c ON c.user_id = ANY (p_candidate_ids)
		WHERE v.user_id = p_viewer_id
		  AND v.embedding IS NOT NULL
		  AND c.embedding IS NOT NULL
	$$`,
}

// Migrate creates the tables, indexes and ranking functions.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration step %d: %w", i, err)
		}
	}
	s.log.Info(ctx, "postgres schema ready", logger.Int("statements", len(schema)))
	return nil
}
