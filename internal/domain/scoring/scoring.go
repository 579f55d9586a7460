// Package scoring computes the ranking features of a search candidate and
// combines them into a final score.
package scoring

import (
	"time"

	"github.com/okian/skillmatch/internal/domain/model"
)

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithWeights sets the weight table. Invalid tables are ignored.
func WithWeights(w Weights) Option {
	return func(m *Model) {
		if w.Validate() == nil {
			m.weights = w
		}
	}
}

// WithPreferenceMinHistory sets how many viewer swipes are needed before the
// age and gender preferences produce a signal.
func WithPreferenceMinHistory(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.minHistory = n
		}
	}
}

// WithClock sets the time source used to compute ages.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// Input is everything needed to score one candidate for one viewer.
type Input struct {
	Candidate model.SearchCandidate
	Viewer    model.Profile
	Profile   model.Profile
	// CandidateSwipes are swipes received by the candidate in the
	// reliability window.
	CandidateSwipes []model.SwipeRecord
	// ViewerHistory are the viewer's most recent swipes.
	ViewerHistory []model.ViewerSwipe
	Similarity    float64
	HasSimilarity bool
}

// Model scores candidates with a fixed weight table.
type Model struct {
	weights    Weights
	minHistory int
	now        func() time.Time
}

// New creates a Model with the default weights.
func New(opts ...Option) *Model {
	m := &Model{
		weights:    DefaultWeights(),
		minHistory: DefaultMinHistory,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Weights returns the weight table in use.
func (m *Model) Weights() Weights {
	return m.weights
}

// Features computes the feature vector of in.
func (m *Model) Features(in Input) model.Features {
	age := Age(in.Profile.Birthdate, m.now())
	return model.Features{
		Reliability: Reliability(in.CandidateSwipes),
		Timezone:    TimezoneAffinity(in.Viewer.TZName, in.Profile.TZName),
		Age:         AgeAffinity(age, in.ViewerHistory, m.minHistory),
		Gender:      GenderAffinity(in.Profile.Gender, in.ViewerHistory, m.minHistory),
		Embedding:   EmbeddingAffinity(in.Similarity, in.HasSimilarity),
	}
}

// Score computes the features and final score of in.
func (m *Model) Score(in Input) model.RankedCandidate {
	f := m.Features(in)
	norm := NormalizeOverlap(in.Candidate.OverlapScore)
	return model.RankedCandidate{
		SearchCandidate: in.Candidate,
		OverlapNorm:     norm,
		FinalScore:      m.weights.Combine(norm, f),
		Features:        f,
	}
}
