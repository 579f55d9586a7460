package matching

import (
	"context"
	"time"

	"github.com/okian/skillmatch/internal/domain/model"
)

// Searcher runs the mutual-skill candidate search.
type Searcher interface {
	SearchMutualSkillCandidates(ctx context.Context, viewerID string, poolLimit int) ([]model.SearchCandidate, error)
}

// ProfileReader loads ranking profiles. GetProfile returns model.ErrNotFound
// for unknown users; GetProfiles omits them from the map.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (model.Profile, error)
	GetProfiles(ctx context.Context, userIDs []string) (map[string]model.Profile, error)
}

// SwipeStore reads and appends swipe facts.
type SwipeStore interface {
	CandidateSwipesSince(ctx context.Context, candidateIDs []string, since time.Time) ([]model.SwipeRecord, error)
	ViewerRecentSwipes(ctx context.Context, viewerID string, n int) ([]model.ViewerSwipe, error)
	InsertSwipe(ctx context.Context, rec model.SwipeRecord) error
}

// EmbeddingReader returns precomputed viewer/candidate similarities. Missing
// pairs are simply absent from the result.
type EmbeddingReader interface {
	EmbeddingSimilarities(ctx context.Context, viewerID string, candidateIDs []string) ([]model.EmbeddingSimilarity, error)
}

// UserReader loads user records and their skills for the detail projection.
type UserReader interface {
	GetUser(ctx context.Context, id string) (model.User, error)
	GetUserSkills(ctx context.Context, userID string) ([]model.UserSkill, error)
}

// Store is everything the engine reads and writes.
type Store interface {
	Searcher
	ProfileReader
	SwipeStore
	EmbeddingReader
	UserReader
}
