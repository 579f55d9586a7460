package matching

import (
	"errors"
	"fmt"

	"github.com/okian/skillmatch/internal/domain/model"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidLimit       = errors.New("limit must be positive")
	ErrInvalidID          = errors.New("invalid identifier")
	ErrInvalidSwipeStatus = errors.New("invalid swipe status")
	ErrNotFound           = errors.New("not found")
	ErrDataConsistency    = errors.New("data consistency violation")
	ErrSearchFailed       = errors.New("candidate search failed")
	ErrFetchFailed        = errors.New("fetch failed")
)

// Operation names carried by OpError.
const (
	opFindMatches       = "matching.find_matches"
	opSearch            = "matching.search"
	opRerank            = "matching.rerank"
	opViewerProfile     = "matching.rerank.viewer_profile"
	opCandidateProfiles = "matching.rerank.candidate_profiles"
	opCandidateDetails  = "matching.candidate_details"
	opRecordSwipe       = "matching.record_swipe"
)

// OpError reports the operation that failed together with its cause.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// fetchError classifies a store error: missing records become ErrNotFound,
// everything else ErrFetchFailed. The cause stays in the chain.
func fetchError(op string, err error) error {
	kind := ErrFetchFailed
	if errors.Is(err, model.ErrNotFound) {
		kind = ErrNotFound
	}
	return &OpError{Op: op, Err: fmt.Errorf("%w: %w", kind, err)}
}
