package scoring

import (
	"math"

	"github.com/okian/skillmatch/internal/domain/model"
)

// Neutral and no-signal defaults.
const (
	// Neutral is used when a signal is structurally absent but says nothing
	// about preference.
	Neutral = 0.5
	// NoSignal is used by the preference features before enough viewer
	// history exists. It is deliberately distinct from Neutral.
	NoSignal = 0.0

	// DefaultMinHistory is the number of viewer swipes required before age
	// and gender preferences produce a signal.
	DefaultMinHistory = 3

	overlapSaturation = 10.0
)

// NormalizeOverlap maps a raw overlap score onto [0,1], saturating at 10.
func NormalizeOverlap(overlapScore float64) float64 {
	if math.IsNaN(overlapScore) {
		return 0
	}
	return clamp01(overlapScore / overlapSaturation)
}

// Reliability is the Laplace-smoothed acceptance rate of a candidate over
// their recent swipe history: (accepted+1) / (accepted+offered+2).
// Declined swipes are not counted. An empty history yields exactly 0.5.
func Reliability(swipes []model.SwipeRecord) float64 {
	var accepted, offered int
	for _, s := range swipes {
		switch s.Status {
		case model.SwipeAccepted:
			accepted++
		case model.SwipeOffered:
			offered++
		case model.SwipeDeclined:
		}
	}
	return float64(accepted+1) / float64(accepted+offered+2)
}

// TimezoneAffinity scores the absolute difference between the fixed UTC
// offsets of two zones, in hours. Equal offsets score 1.0, more than 12h
// apart scores 0.05.
func TimezoneAffinity(viewerTZ, candidateTZ string) float64 {
	diff := math.Abs(OffsetHours(viewerTZ) - OffsetHours(candidateTZ))
	switch {
	case math.IsNaN(diff) || math.IsInf(diff, 0):
		return Neutral
	case diff == 0:
		return 1.0
	case diff <= 3:
		return 0.8
	case diff <= 6:
		return 0.6
	case diff <= 9:
		return 0.3
	case diff <= 12:
		return 0.1
	default:
		return 0.05
	}
}

// AgeAffinity scores how close candidateAge is to the mean age of the
// candidates in the viewer's recent history. With fewer than minHistory
// swipes it returns NoSignal.
func AgeAffinity(candidateAge int, history []model.ViewerSwipe, minHistory int) float64 {
	if len(history) == 0 || len(history) < minHistory {
		return NoSignal
	}
	var sum float64
	for _, h := range history {
		sum += float64(h.CandidateAge)
	}
	mean := sum / float64(len(history))
	diff := math.Abs(float64(candidateAge) - mean)
	switch {
	case diff <= 2:
		return 1.0
	case diff <= 5:
		return 0.8
	case diff <= 10:
		return 0.5
	case diff <= 15:
		return 0.2
	default:
		return 0.1
	}
}

// GenderAffinity is 1 when candidateGender is the single most frequent
// gender in the viewer's recent history, 0 otherwise. Ties, missing genders
// and histories shorter than minHistory all yield NoSignal.
func GenderAffinity(candidateGender model.Gender, history []model.ViewerSwipe, minHistory int) float64 {
	if len(history) == 0 || len(history) < minHistory {
		return NoSignal
	}
	counts := make(map[model.Gender]int, 3)
	for _, h := range history {
		if h.CandidateGender == "" {
			continue
		}
		counts[h.CandidateGender]++
	}
	var (
		mode     model.Gender
		maxCount int
		tied     bool
	)
	for g, c := range counts {
		switch {
		case c > maxCount:
			mode, maxCount, tied = g, c, false
		case c == maxCount:
			tied = true
		}
	}
	if maxCount == 0 || tied {
		return NoSignal
	}
	if candidateGender == mode {
		return 1
	}
	return 0
}

// EmbeddingAffinity passes a precomputed similarity through, defaulting to
// Neutral when none is available.
func EmbeddingAffinity(similarity float64, ok bool) float64 {
	if !ok || math.IsNaN(similarity) {
		return Neutral
	}
	return clamp01(similarity)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
