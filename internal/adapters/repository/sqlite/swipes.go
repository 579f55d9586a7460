package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/okian/skillmatch/internal/domain/model"
)

// InsertSwipe appends rec. A zero CreatedAt is stamped with the store clock.
func (s *Store) InsertSwipe(ctx context.Context, rec model.SwipeRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO swipe_history (viewer_id, candidate_id, status, created_at) VALUES (?, ?, ?, ?)`,
		rec.ViewerID, rec.CandidateID, string(rec.Status), millis(created))
	if err != nil {
		return fmt.Errorf("insert swipe %s->%s: %w", rec.ViewerID, rec.CandidateID, err)
	}
	return nil
}

// CandidateSwipesSince returns the swipes received by candidateIDs at or
// after since.
func (s *Store) CandidateSwipesSince(ctx context.Context, candidateIDs []string, since time.Time) ([]model.SwipeRecord, error) {
	if len(candidateIDs) == 0 {
		return []model.SwipeRecord{}, nil
	}
	args := append(stringArgs(candidateIDs), millis(since))
	rows, err := s.db.QueryContext(ctx, `
		SELECT viewer_id, candidate_id, status, created_at
		FROM swipe_history
		WHERE candidate_id IN (`+placeholders(len(candidateIDs))+`) AND created_at >= ?`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("candidate swipes: %w", err)
	}
	defer rows.Close()

	out := []model.SwipeRecord{}
	for rows.Next() {
		var (
			rec     model.SwipeRecord
			status  string
			created int64
		)
		if err := rows.Scan(&rec.ViewerID, &rec.CandidateID, &status, &created); err != nil {
			return nil, fmt.Errorf("scan swipe: %w", err)
		}
		rec.Status = model.SwipeStatus(status)
		rec.CreatedAt = fromMillis(created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ViewerRecentSwipes returns the n most recent swipes made by viewerID,
// joined with the swiped candidate's birthdate and gender.
func (s *Store) ViewerRecentSwipes(ctx context.Context, viewerID string, n int) ([]model.ViewerSwipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sh.candidate_id, sh.status, sh.created_at, u.birthdate, u.gender
		FROM swipe_history sh
		JOIN users u ON u.id = sh.candidate_id
		WHERE sh.viewer_id = ?
		ORDER BY sh.created_at DESC, sh.id DESC
		LIMIT ?`, viewerID, n)
	if err != nil {
		return nil, fmt.Errorf("viewer swipes %s: %w", viewerID, err)
	}
	defer rows.Close()

	out := []model.ViewerSwipe{}
	for rows.Next() {
		var (
			vs        model.ViewerSwipe
			status    string
			created   int64
			birthdate sql.NullString
			gender    sql.NullString
		)
		if err := rows.Scan(&vs.CandidateID, &status, &created, &birthdate, &gender); err != nil {
			return nil, fmt.Errorf("scan viewer swipe: %w", err)
		}
		bd, err := parseDate(birthdate)
		if err != nil {
			return nil, err
		}
		vs.Status = model.SwipeStatus(status)
		vs.CreatedAt = fromMillis(created)
		vs.CandidateBirthdate = bd
		vs.CandidateGender = model.Gender(gender.String)
		out = append(out, vs)
	}
	return out, rows.Err()
}
