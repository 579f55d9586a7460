package scoring

import (
	"fmt"
	"math"

	"github.com/okian/skillmatch/internal/domain/model"
)

// Weights is the linear combination applied to the normalized overlap and
// the feature vector.
type Weights struct {
	Mutual      float64
	Reliability float64
	Timezone    float64
	Age         float64
	Gender      float64
	Embedding   float64
}

// DefaultWeights returns the production weight table. It sums to 1.
func DefaultWeights() Weights {
	return Weights{
		Mutual:      0.35,
		Reliability: 0.25,
		Timezone:    0.15,
		Age:         0.10,
		Gender:      0.05,
		Embedding:   0.10,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Mutual + w.Reliability + w.Timezone + w.Age + w.Gender + w.Embedding
}

// Validate rejects negative, non-finite or all-zero tables. Tables that do
// not sum to 1 are accepted; scores are then no longer bounded by 1.
func (w Weights) Validate() error {
	named := []struct {
		name string
		v    float64
	}{
		{"mutual", w.Mutual},
		{"reliability", w.Reliability},
		{"timezone", w.Timezone},
		{"age", w.Age},
		{"gender", w.Gender},
		{"embedding", w.Embedding},
	}
	for _, n := range named {
		if n.v < 0 || math.IsNaN(n.v) || math.IsInf(n.v, 0) {
			return fmt.Errorf("%w: %s weight %v", ErrInvalidWeights, n.name, n.v)
		}
	}
	if w.Sum() == 0 {
		return fmt.Errorf("%w: all weights are zero", ErrInvalidWeights)
	}
	return nil
}

// Combine returns the weighted sum of overlapNorm and f.
func (w Weights) Combine(overlapNorm float64, f model.Features) float64 {
	return w.Mutual*overlapNorm +
		w.Reliability*f.Reliability +
		w.Timezone*f.Timezone +
		w.Age*f.Age +
		w.Gender*f.Gender +
		w.Embedding*f.Embedding
}
