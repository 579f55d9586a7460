package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/skillmatch/internal/domain/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SearchMutualSkillCandidates calls find_mutual_skill_candidates.
func (s *Store) SearchMutualSkillCandidates(ctx context.Context, viewerID string, poolLimit int) ([]model.SearchCandidate, error) {
	var rows []struct {
		UserID       string
		TeachesMe    int
		LearnsFromMe int
		OverlapScore float64
	}
	err := s.db.WithContext(ctx).
		Raw(`SELECT user_id, teaches_me, learns_from_me, overlap_score FROM find_mutual_skill_candidates(?, ?)`, viewerID, poolLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("search mutual candidates: %w", translate(err))
	}
	out := make([]model.SearchCandidate, len(rows))
	for i, r := range rows {
		out[i] = model.SearchCandidate{
			UserID:       r.UserID,
			TeachesMe:    r.TeachesMe,
			LearnsFromMe: r.LearnsFromMe,
			OverlapScore: r.OverlapScore,
		}
	}
	return out, nil
}

// CreateUser inserts u. An existing id yields model.ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u model.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	row := toUserRow(u)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert user %s: %w", u.ID, translate(err))
	}
	return nil
}

// GetUser loads a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", id, translate(err))
	}
	return row.model(), nil
}

// GetProfile loads the ranking attributes of one user.
func (s *Store) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return model.Profile{}, err
	}
	return u.Profile(), nil
}

// GetProfiles loads the ranking attributes of ids. Unknown ids are absent.
func (s *Store) GetProfiles(ctx context.Context, ids []string) (map[string]model.Profile, error) {
	out := make(map[string]model.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []userRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get profiles: %w", translate(err))
	}
	for _, r := range rows {
		out[r.ID] = r.model().Profile()
	}
	return out, nil
}

// CandidateSwipesSince returns swipes received by candidateIDs since since.
func (s *Store) CandidateSwipesSince(ctx context.Context, candidateIDs []string, since time.Time) ([]model.SwipeRecord, error) {
	out := []model.SwipeRecord{}
	if len(candidateIDs) == 0 {
		return out, nil
	}
	var rows []swipeRow
	err := s.db.WithContext(ctx).
		Where("candidate_id IN ? AND created_at >= ?", candidateIDs, since.UTC()).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("candidate swipes: %w", translate(err))
	}
	for _, r := range rows {
		out = append(out, model.SwipeRecord{
			ViewerID:    r.ViewerID,
			CandidateID: r.CandidateID,
			Status:      model.SwipeStatus(r.Status),
			CreatedAt:   r.CreatedAt.UTC(),
		})
	}
	return out, nil
}

// ViewerRecentSwipes returns the n most recent swipes made by viewerID.
func (s *Store) ViewerRecentSwipes(ctx context.Context, viewerID string, n int) ([]model.ViewerSwipe, error) {
	var rows []struct {
		CandidateID string
		Status      string
		CreatedAt   time.Time
		Birthdate   *time.Time
		Gender      *string
	}
	err := s.db.WithContext(ctx).
		Table("swipe_history AS sh").
		Select("sh.candidate_id, sh.status, sh.created_at, u.birthdate, u.gender").
		Joins("JOIN users u ON u.id = sh.candidate_id").
		Where("sh.viewer_id = ?", viewerID).
		Order("sh.created_at DESC, sh.id DESC").
		Limit(n).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("viewer swipes %s: %w", viewerID, translate(err))
	}
	out := make([]model.ViewerSwipe, 0, len(rows))
	for _, r := range rows {
		vs := model.ViewerSwipe{
			CandidateID: r.CandidateID,
			Status:      model.SwipeStatus(r.Status),
			CreatedAt:   r.CreatedAt.UTC(),
		}
		if r.Birthdate != nil {
			y, m, d := r.Birthdate.Date()
			vs.CandidateBirthdate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
		if r.Gender != nil {
			vs.CandidateGender = model.Gender(*r.Gender)
		}
		out = append(out, vs)
	}
	return out, nil
}

// InsertSwipe appends rec.
func (s *Store) InsertSwipe(ctx context.Context, rec model.SwipeRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	row := swipeRow{
		ViewerID:    rec.ViewerID,
		CandidateID: rec.CandidateID,
		Status:      string(rec.Status),
		CreatedAt:   created.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert swipe %s->%s: %w", rec.ViewerID, rec.CandidateID, translate(err))
	}
	return nil
}

// EmbeddingSimilarities calls get_linkedin_embedding_similarities.
func (s *Store) EmbeddingSimilarities(ctx context.Context, viewerID string, candidateIDs []string) ([]model.EmbeddingSimilarity, error) {
	out := []model.EmbeddingSimilarity{}
	if len(candidateIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		CandidateID string
		Similarity  float64
	}
	err := s.db.WithContext(ctx).
		Raw(`SELECT candidate_id, similarity FROM get_linkedin_embedding_similarities(?, ?::uuid[])`,
			viewerID, uuidArray(candidateIDs)).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("embedding similarities: %w", translate(err))
	}
	for _, r := range rows {
		out = append(out, model.EmbeddingSimilarity{CandidateID: r.CandidateID, Similarity: r.Similarity})
	}
	return out, nil
}

// PutEmbedding stores the profile embedding of userID on its enrichment
// record, creating a placeholder record when none exists.
func (s *Store) PutEmbedding(ctx context.Context, userID string, vec []float32) error {
	if len(vec) == 0 {
		return errors.New("empty embedding vector")
	}
	now := s.now().UTC()
	err := s.db.WithContext(ctx).Exec(`
		INSERT INTO linkedin_data (id, user_id, linkedin_url, state, embedding, created_at, updated_at)
		VALUES (?, ?, '', 'embedded', ?::vector, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET embedding = EXCLUDED.embedding, updated_at = EXCLUDED.updated_at`,
		uuid.NewString(), userID, vectorLiteral(vec), now, now).Error
	if err != nil {
		return fmt.Errorf("put embedding %s: %w", userID, translate(err))
	}
	return nil
}

// GetUserSkills returns every skill of userID with its name and role.
func (s *Store) GetUserSkills(ctx context.Context, userID string) ([]model.UserSkill, error) {
	var rows []struct {
		SkillID string
		Name    string
		Role    string
		Level   *string
	}
	err := s.db.WithContext(ctx).
		Table("user_skills AS us").
		Select("us.skill_id, s.name, us.role, us.level").
		Joins("JOIN skills s ON s.id = us.skill_id").
		Where("us.user_id = ?", userID).
		Order("us.role DESC, s.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get user skills %s: %w", userID, translate(err))
	}
	out := make([]model.UserSkill, 0, len(rows))
	for _, r := range rows {
		us := model.UserSkill{UserID: userID, SkillID: r.SkillID, SkillName: r.Name, Role: model.SkillRole(r.Role)}
		if r.Level != nil {
			us.Level = *r.Level
		}
		out = append(out, us)
	}
	return out, nil
}

// EnsureSkills returns the id of every name, creating missing skills.
func (s *Store) EnsureSkills(ctx context.Context, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	if len(names) == 0 {
		return out, nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			var row skillRow
			err := tx.Where("lower(name) = lower(?)", name).First(&row).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				row = skillRow{ID: uuid.NewString(), Name: name}
				if err := tx.Create(&row).Error; err != nil {
					return fmt.Errorf("insert skill %q: %w", name, translate(err))
				}
			case err != nil:
				return fmt.Errorf("lookup skill %q: %w", name, translate(err))
			}
			out[name] = row.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddUserSkills links users to skills. Existing links are kept.
func (s *Store) AddUserSkills(ctx context.Context, skills []model.UserSkill) error {
	if len(skills) == 0 {
		return nil
	}
	rows := make([]userSkillRow, len(skills))
	for i, us := range skills {
		rows[i] = userSkillRow{UserID: us.UserID, SkillID: us.SkillID, Role: string(us.Role)}
		if us.Level != "" {
			level := us.Level
			rows[i].Level = &level
		}
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("insert user skills: %w", translate(err))
	}
	return nil
}

// ListSkills returns the catalog ordered by name.
func (s *Store) ListSkills(ctx context.Context) ([]model.Skill, error) {
	var rows []skillRow
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list skills: %w", translate(err))
	}
	out := make([]model.Skill, len(rows))
	for i, r := range rows {
		out[i] = model.Skill{ID: r.ID, Name: r.Name}
	}
	return out, nil
}

// CreateEnrichmentRecord inserts rec.
func (s *Store) CreateEnrichmentRecord(ctx context.Context, rec model.EnrichmentRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	row := enrichmentRow{
		ID:          rec.ID,
		UserID:      rec.UserID,
		LinkedInURL: rec.LinkedInURL,
		State:       rec.State,
		CreatedAt:   created.UTC(),
		UpdatedAt:   created.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert enrichment record: %w", translate(err))
	}
	return nil
}

// UpdateEnrichmentState moves record id to state.
func (s *Store) UpdateEnrichmentState(ctx context.Context, id, state string) error {
	res := s.db.WithContext(ctx).
		Model(&enrichmentRow{}).
		Where("id = ?", id).
		Updates(map[string]any{"state": state, "updated_at": s.now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("update enrichment %s: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("enrichment record %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// GetEnrichmentRecord loads record id.
func (s *Store) GetEnrichmentRecord(ctx context.Context, id string) (model.EnrichmentRecord, error) {
	var row enrichmentRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return model.EnrichmentRecord{}, fmt.Errorf("get enrichment %s: %w", id, translate(err))
	}
	return model.EnrichmentRecord{
		ID:          row.ID,
		UserID:      row.UserID,
		LinkedInURL: row.LinkedInURL,
		State:       row.State,
		CreatedAt:   row.CreatedAt.UTC(),
	}, nil
}

// vectorLiteral renders vec in pgvector text form, e.g. [0.1,0.2].
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// uuidArray renders ids as a Postgres array literal.
func uuidArray(ids []string) string {
	return "{" + strings.Join(ids, ",") + "}"
}
