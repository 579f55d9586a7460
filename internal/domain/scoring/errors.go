package scoring

import "errors"

// ErrInvalidWeights is returned when a weight table is negative or sums to zero.
var ErrInvalidWeights = errors.New("invalid scoring weights")
