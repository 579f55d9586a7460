package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/okian/skillmatch/internal/domain/model"
)

const userColumns = `id, first_name, last_name, birthdate, gender, tz_name, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(r rowScanner) (model.User, error) {
	var (
		u         model.User
		birthdate sql.NullString
		gender    sql.NullString
		tz        sql.NullString
		created   int64
	)
	if err := r.Scan(&u.ID, &u.FirstName, &u.LastName, &birthdate, &gender, &tz, &created); err != nil {
		return model.User{}, err
	}
	bd, err := parseDate(birthdate)
	if err != nil {
		return model.User{}, err
	}
	u.Birthdate = bd
	u.Gender = model.Gender(gender.String)
	u.TZName = tz.String
	u.CreatedAt = fromMillis(created)
	return u, nil
}

// CreateUser inserts u. An existing id yields model.ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u model.User) error {
	created := u.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	var birthdate any
	if !u.Birthdate.IsZero() {
		birthdate = u.Birthdate.Format(model.DateLayout)
	}
	var gender any
	if u.Gender != "" {
		gender = string(u.Gender)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.FirstName, u.LastName, birthdate, gender, u.TZName, millis(created))
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("user %s: %w", u.ID, model.ErrDuplicate)
		}
		return fmt.Errorf("insert user %s: %w", u.ID, err)
	}
	return nil
}

// GetUser loads a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// GetProfile loads the ranking attributes of one user.
func (s *Store) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return model.Profile{}, err
	}
	return u.Profile(), nil
}

// GetProfiles loads the ranking attributes of ids in one query. Unknown ids
// are absent from the map.
func (s *Store) GetProfiles(ctx context.Context, ids []string) (map[string]model.Profile, error) {
	out := make(map[string]model.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out[u.ID] = u.Profile()
	}
	return out, rows.Err()
}

// EnsureSkills returns the catalog id of every name, creating the missing
// ones. Matching is case-insensitive so "Go" and "go" share an entry.
func (s *Store) EnsureSkills(ctx context.Context, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	if len(names) == 0 {
		return out, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin ensure skills: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, name := range names {
		var id string
		err := tx.QueryRowContext(ctx, `SELECT id FROM skills WHERE name = ?`, name).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			id = uuid.NewString()
			if _, err := tx.ExecContext(ctx, `INSERT INTO skills (id, name) VALUES (?, ?)`, id, name); err != nil {
				return nil, fmt.Errorf("insert skill %q: %w", name, err)
			}
		case err != nil:
			return nil, fmt.Errorf("lookup skill %q: %w", name, err)
		}
		out[name] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ensure skills: %w", err)
	}
	return out, nil
}

// AddUserSkills links users to skills. Existing links are kept.
func (s *Store) AddUserSkills(ctx context.Context, skills []model.UserSkill) error {
	if len(skills) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add user skills: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, us := range skills {
		var level any
		if us.Level != "" {
			level = us.Level
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_skills (user_id, skill_id, role, level) VALUES (?, ?, ?, ?)`,
			us.UserID, us.SkillID, string(us.Role), level)
		if err != nil {
			return fmt.Errorf("insert user skill %s/%s: %w", us.UserID, us.SkillID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit user skills: %w", err)
	}
	return nil
}

// GetUserSkills returns every skill of userID with its name and role.
func (s *Store) GetUserSkills(ctx context.Context, userID string) ([]model.UserSkill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT us.skill_id, s.name, us.role, us.level
		FROM user_skills us
		JOIN skills s ON s.id = us.skill_id
		WHERE us.user_id = ?
		ORDER BY us.role DESC, s.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("get user skills %s: %w", userID, err)
	}
	defer rows.Close()

	out := []model.UserSkill{}
	for rows.Next() {
		var (
			us    = model.UserSkill{UserID: userID}
			role  string
			level sql.NullString
		)
		if err := rows.Scan(&us.SkillID, &us.SkillName, &role, &level); err != nil {
			return nil, fmt.Errorf("scan user skill: %w", err)
		}
		us.Role = model.SkillRole(role)
		us.Level = level.String
		out = append(out, us)
	}
	return out, rows.Err()
}

// ListSkills returns the catalog ordered by name.
func (s *Store) ListSkills(ctx context.Context) ([]model.Skill, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM skills ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	out := []model.Skill{}
	for rows.Next() {
		var sk model.Skill
		if err := rows.Scan(&sk.ID, &sk.Name); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		out = append(out, sk)
	}
	return out, rows.Err()
}
