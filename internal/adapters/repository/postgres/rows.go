package postgres

import (
	"time"

	"github.com/okian/skillmatch/internal/domain/model"
)

type userRow struct {
	ID        string     `gorm:"column:id;primaryKey"`
	FirstName string     `gorm:"column:first_name"`
	LastName  string     `gorm:"column:last_name"`
	Birthdate *time.Time `gorm:"column:birthdate;type:date"`
	Gender    *string    `gorm:"column:gender"`
	TZName    string     `gorm:"column:tz_name"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

func (userRow) TableName() string { return "users" }

func toUserRow(u model.User) userRow {
	r := userRow{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		TZName:    u.TZName,
		CreatedAt: u.CreatedAt,
	}
	if !u.Birthdate.IsZero() {
		bd := u.Birthdate
		r.Birthdate = &bd
	}
	if u.Gender != "" {
		g := string(u.Gender)
		r.Gender = &g
	}
	return r
}

func (r userRow) model() model.User {
	u := model.User{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		TZName:    r.TZName,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.Birthdate != nil {
		y, m, d := r.Birthdate.Date()
		u.Birthdate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	if r.Gender != nil {
		u.Gender = model.Gender(*r.Gender)
	}
	return u
}

type skillRow struct {
	ID   string `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name"`
}

func (skillRow) TableName() string { return "skills" }

type userSkillRow struct {
	ID      int64   `gorm:"column:id;primaryKey;autoIncrement"`
	UserID  string  `gorm:"column:user_id"`
	SkillID string  `gorm:"column:skill_id"`
	Role    string  `gorm:"column:role"`
	Level   *string `gorm:"column:level"`
}

func (userSkillRow) TableName() string { return "user_skills" }

type swipeRow struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ViewerID    string    `gorm:"column:viewer_id"`
	CandidateID string    `gorm:"column:candidate_id"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (swipeRow) TableName() string { return "swipe_history" }

type enrichmentRow struct {
	ID          string    `gorm:"column:id;primaryKey"`
	UserID      string    `gorm:"column:user_id"`
	LinkedInURL string    `gorm:"column:linkedin_url"`
	State       string    `gorm:"column:state"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (enrichmentRow) TableName() string { return "linkedin_data" }
