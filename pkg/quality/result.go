package quality

import (
	"errors"
)

var errEmptySequence = errors.New("empty result sequence")

// Result is the raw value returned by a Scorer. Libraries hand back either a
// bare number or a small fixed-size vector (e.g. an OpenCV Scalar); both are
// resolved to a single float64 by Float64.
type Result struct {
	seq   []float64
	value float64
	isSeq bool
}

// Scalar wraps a bare numeric result.
func Scalar(v float64) Result {
	return Result{value: v}
}

// Sequence wraps a vector result. The score is its first element.
func Sequence(v ...float64) Result {
	return Result{seq: v, isSeq: true}
}

// Float64 normalizes the result to a single score.
func (r Result) Float64() (float64, error) {
	if !r.isSeq {
		return r.value, nil
	}
	if len(r.seq) == 0 {
		return 0, errEmptySequence
	}
	return r.seq[0], nil
}
