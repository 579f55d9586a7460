package sqlite

import (
	"context"
	"fmt"

	"github.com/okian/skillmatch/internal/domain/model"
)

// A candidate qualifies when it teaches something the viewer learns and
// learns something the viewer teaches.
const mutualSkillQuery = `
WITH teaches_me AS (
	SELECT c.user_id, COUNT(DISTINCT c.skill_id) AS n
	FROM user_skills c
	JOIN user_skills v ON v.skill_id = c.skill_id AND v.user_id = ? AND v.role = 'learn'
	WHERE c.role = 'teach' AND c.user_id <> ?
	GROUP BY c.user_id
),
learns_from_me AS (
	SELECT c.user_id, COUNT(DISTINCT c.skill_id) AS n
	FROM user_skills c
	JOIN user_skills v ON v.skill_id = c.skill_id AND v.user_id = ? AND v.role = 'teach'
	WHERE c.role = 'learn' AND c.user_id <> ?
	GROUP BY c.user_id
)
SELECT t.user_id, t.n, l.n
FROM teaches_me t
JOIN learns_from_me l ON l.user_id = t.user_id
ORDER BY t.n + l.n DESC, t.n DESC, t.user_id ASC
LIMIT ?`

// SearchMutualSkillCandidates returns up to poolLimit candidates with
// mutual skill overlap, best overlap first.
func (s *Store) SearchMutualSkillCandidates(ctx context.Context, viewerID string, poolLimit int) ([]model.SearchCandidate, error) {
	rows, err := s.db.QueryContext(ctx, mutualSkillQuery, viewerID, viewerID, viewerID, viewerID, poolLimit)
	if err != nil {
		return nil, fmt.Errorf("search mutual candidates: %w", err)
	}
	defer rows.Close()

	out := make([]model.SearchCandidate, 0, poolLimit)
	for rows.Next() {
		var c model.SearchCandidate
		if err := rows.Scan(&c.UserID, &c.TeachesMe, &c.LearnsFromMe); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.OverlapScore = float64(c.TeachesMe + c.LearnsFromMe)
		out = append(out, c)
	}
	return out, rows.Err()
}
