package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okian/skillmatch/internal/domain/model"
)

// CreateEnrichmentRecord inserts rec. A user has at most one record.
func (s *Store) CreateEnrichmentRecord(ctx context.Context, rec model.EnrichmentRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO linkedin_data (id, user_id, linkedin_url, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.LinkedInURL, rec.State, millis(created), millis(created))
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("enrichment record for %s: %w", rec.UserID, model.ErrDuplicate)
		}
		return fmt.Errorf("insert enrichment record: %w", err)
	}
	return nil
}

// UpdateEnrichmentState moves record id to state.
func (s *Store) UpdateEnrichmentState(ctx context.Context, id, state string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE linkedin_data SET state = ?, updated_at = ? WHERE id = ?`,
		state, millis(s.now()), id)
	if err != nil {
		return fmt.Errorf("update enrichment %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update enrichment %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("enrichment record %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// GetEnrichmentRecord loads record id.
func (s *Store) GetEnrichmentRecord(ctx context.Context, id string) (model.EnrichmentRecord, error) {
	var (
		rec     model.EnrichmentRecord
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, linkedin_url, state, created_at FROM linkedin_data WHERE id = ?`, id).
		Scan(&rec.ID, &rec.UserID, &rec.LinkedInURL, &rec.State, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.EnrichmentRecord{}, fmt.Errorf("enrichment record %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.EnrichmentRecord{}, fmt.Errorf("get enrichment %s: %w", id, err)
	}
	rec.CreatedAt = fromMillis(created)
	return rec, nil
}
