package matching_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/skillmatch/internal/domain/model"
)

func uid(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

// fakeStore is an in-memory matching.Store. Every read honours ctx.
type fakeStore struct {
	mu sync.Mutex

	pool          []model.SearchCandidate
	searchErr     error
	lastPoolLimit int

	profiles      map[string]model.Profile
	viewerErr     error
	profilesErr   error
	profilesCalls int

	swipes    []model.SwipeRecord
	swipesErr error
	lastSince time.Time

	history    []model.ViewerSwipe
	historyErr error

	sims    []model.EmbeddingSimilarity
	simsErr error
	// simsStarted is closed when EmbeddingSimilarities is entered and, when
	// set, the call blocks until ctx is done.
	simsStarted chan struct{}

	users    map[string]model.User
	skills   map[string][]model.UserSkill
	usersErr error

	inserted  []model.SwipeRecord
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: map[string]model.Profile{},
		users:    map[string]model.User{},
		skills:   map[string][]model.UserSkill{},
	}
}

func (f *fakeStore) SearchMutualSkillCandidates(ctx context.Context, _ string, poolLimit int) ([]model.SearchCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPoolLimit = poolLimit
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return append([]model.SearchCandidate(nil), f.pool...), nil
}

func (f *fakeStore) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return model.Profile{}, err
	}
	if f.viewerErr != nil {
		return model.Profile{}, f.viewerErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return model.Profile{}, model.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) GetProfiles(ctx context.Context, userIDs []string) (map[string]model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profilesCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.profilesErr != nil {
		return nil, f.profilesErr
	}
	out := make(map[string]model.Profile, len(userIDs))
	for _, id := range userIDs {
		if p, ok := f.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeStore) CandidateSwipesSince(ctx context.Context, _ []string, since time.Time) ([]model.SwipeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSince = since
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.swipesErr != nil {
		return nil, f.swipesErr
	}
	return f.swipes, nil
}

func (f *fakeStore) ViewerRecentSwipes(ctx context.Context, _ string, n int) ([]model.ViewerSwipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	h := f.history
	if len(h) > n {
		h = h[:n]
	}
	return h, nil
}

func (f *fakeStore) EmbeddingSimilarities(ctx context.Context, _ string, _ []string) ([]model.EmbeddingSimilarity, error) {
	if f.simsStarted != nil {
		close(f.simsStarted)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.simsErr != nil {
		return nil, f.simsErr
	}
	return f.sims, nil
}

func (f *fakeStore) InsertSwipe(ctx context.Context, rec model.SwipeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, rec)
	return nil
}

func (f *fakeStore) GetUser(ctx context.Context, id string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	if f.usersErr != nil {
		return model.User{}, f.usersErr
	}
	u, ok := f.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserSkills(ctx context.Context, userID string) ([]model.UserSkill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.skills[userID], nil
}
