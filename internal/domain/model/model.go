// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of birthdates.
const DateLayout = "2006-01-02"

// Store-level error kinds. Adapters translate driver errors into these.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate record")

	// ErrUnknownSwipeStatus is returned for statuses outside declined,
	// offered and accepted.
	ErrUnknownSwipeStatus = errors.New("unknown swipe status")
)

// Gender is the self-reported gender of a user.
type Gender string

// Gender values.
const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

// ParseGender validates s as one of M, F or O.
func ParseGender(s string) (Gender, error) {
	switch g := Gender(strings.ToUpper(strings.TrimSpace(s))); g {
	case GenderMale, GenderFemale, GenderOther:
		return g, nil
	default:
		return "", fmt.Errorf("invalid gender %q: must be M, F, or O", s)
	}
}

// SwipeStatus is the state recorded by a swipe.
type SwipeStatus string

// Swipe statuses. Viewers record declined and offered; accepted is written
// out-of-band when a candidate accepts an offer.
const (
	SwipeDeclined SwipeStatus = "declined"
	SwipeOffered  SwipeStatus = "offered"
	SwipeAccepted SwipeStatus = "accepted"
)

// ParseSwipeStatus validates s as a known swipe status.
func ParseSwipeStatus(s string) (SwipeStatus, error) {
	switch st := SwipeStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case SwipeDeclined, SwipeOffered, SwipeAccepted:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSwipeStatus, s)
	}
}

// SkillRole tells whether a user teaches or learns a skill.
type SkillRole string

// Skill roles.
const (
	RoleTeach SkillRole = "teach"
	RoleLearn SkillRole = "learn"
)

// Profile holds the attributes ranking reads for a viewer or a candidate.
type Profile struct {
	UserID    string
	Birthdate time.Time
	Gender    Gender
	TZName    string
}

// User is a full user record.
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Birthdate time.Time `json:"-"`
	Gender    Gender    `json:"gender"`
	TZName    string    `json:"tz_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile projects the ranking attributes of u.
func (u User) Profile() Profile {
	return Profile{UserID: u.ID, Birthdate: u.Birthdate, Gender: u.Gender, TZName: u.TZName}
}

// SearchCandidate is a row of the mutual-skill search.
type SearchCandidate struct {
	UserID       string  `json:"user_id"`
	TeachesMe    int     `json:"teaches_me"`
	LearnsFromMe int     `json:"learns_from_me"`
	OverlapScore float64 `json:"overlap_score"`
}

// SwipeRecord is an append-only swipe fact.
type SwipeRecord struct {
	ViewerID    string
	CandidateID string
	Status      SwipeStatus
	CreatedAt   time.Time
}

// ViewerSwipe is one of the viewer's own recent swipes, joined with the
// swiped candidate's age and gender. Stores that know the birthdate set
// CandidateBirthdate and leave the age to the ranking clock.
type ViewerSwipe struct {
	CandidateID        string
	Status             SwipeStatus
	CreatedAt          time.Time
	CandidateBirthdate time.Time
	CandidateAge       int
	CandidateGender    Gender
}

// EmbeddingSimilarity is a precomputed similarity in [0,1] between the viewer
// and a candidate.
type EmbeddingSimilarity struct {
	CandidateID string
	Similarity  float64
}

// Features is the per-candidate feature vector computed by the reranker.
type Features struct {
	Reliability float64 `json:"f_reliability"`
	Timezone    float64 `json:"f_tz"`
	Age         float64 `json:"f_age"`
	Gender      float64 `json:"f_gender"`
	Embedding   float64 `json:"f_embedding"`
}

// RankedCandidate is a search candidate with its features and final score.
type RankedCandidate struct {
	SearchCandidate
	OverlapNorm float64
	FinalScore  float64
	Features    Features
}

// Skill is a catalog entry.
type Skill struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserSkill associates a user with a skill in a role.
type UserSkill struct {
	UserID    string
	SkillID   string
	SkillName string
	Role      SkillRole
	Level     string
}

// Enrichment record states.
const (
	EnrichmentInQueue    = "in_queue"
	EnrichmentDispatched = "dispatched"
	EnrichmentFailed     = "failed"
)

// EnrichmentRecord tracks the out-of-band profile enrichment of a user.
type EnrichmentRecord struct {
	ID          string
	UserID      string
	LinkedInURL string
	State       string
	CreatedAt   time.Time
}

// EnrichmentRequest is the event emitted when a new user supplies a profile URL.
type EnrichmentRequest struct {
	RecordID    string
	UserID      string
	LinkedInURL string
	RequestedAt time.Time
}
