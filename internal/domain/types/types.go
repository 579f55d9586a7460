// Package types contains the read shapes returned to callers of the service.
package types

import (
	"time"

	"github.com/okian/skillmatch/internal/domain/model"
)

// MatchedCandidate is one entry of a match response.
type MatchedCandidate struct {
	UserID       string         `json:"user_id"`
	TeachesMe    int            `json:"teaches_me"`
	LearnsFromMe int            `json:"learns_from_me"`
	OverlapScore float64        `json:"overlap_score"`
	FinalScore   float64        `json:"final_score"`
	Features     model.Features `json:"features"`
}

// MatchingResponse is the result of a match request.
type MatchingResponse struct {
	Candidates     []MatchedCandidate `json:"candidates"`
	Total          int                `json:"total"`
	SearchPoolSize int                `json:"search_pool_size"`
}

// EmptyMatchingResponse is the valid zero-result outcome.
func EmptyMatchingResponse() MatchingResponse {
	return MatchingResponse{Candidates: []MatchedCandidate{}}
}

// SkillInfo names a skill and the proficiency level a user declared.
type SkillInfo struct {
	SkillName string  `json:"skill_name"`
	Level     *string `json:"level"`
}

// CandidateSummary is the public view of a candidate.
type CandidateSummary struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Age         int        `json:"age"`
	Gender      string     `json:"gender"`
	Timezone    string     `json:"timezone"`
	MemberSince *time.Time `json:"member_since"`
}

// MutualSkills lists the skills the candidate and the viewer can exchange.
type MutualSkills struct {
	TeachesMe    []SkillInfo `json:"teaches_me"`
	LearnsFromMe []SkillInfo `json:"learns_from_me"`
}

// AllSkills lists every skill of the candidate by role.
type AllSkills struct {
	Teaches      []SkillInfo `json:"teaches"`
	WantsToLearn []SkillInfo `json:"wants_to_learn"`
}

// CandidateDetails is the candidate detail projection.
type CandidateDetails struct {
	Candidate    CandidateSummary `json:"candidate"`
	MutualSkills MutualSkills     `json:"mutual_skills"`
	AllSkills    AllSkills        `json:"all_skills"`
}

// UserProfile is a user together with its onboarding status. A user that
// was never created is reported with only ID set and IsOnboarded false.
type UserProfile struct {
	User        *model.User `json:"user,omitempty"`
	ID          string      `json:"id"`
	IsOnboarded bool        `json:"is_onboarded"`
}
