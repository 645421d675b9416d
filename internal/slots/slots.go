// Package slots computes equal-frequency slot partitions over an integer
// attribute column. The resulting ranges are consumed by the index engine to
// bucket points for range-filtered search.
package slots

import (
	"sort"

	"github.com/fannsbench/unify/internal/errors"
)

// Range is a closed interval [Low, High] of the attribute domain.
type Range struct {
	Low  int64
	High int64
}

// Contains reports whether attr falls inside the range.
func (r Range) Contains(attr int64) bool {
	return attr >= r.Low && attr <= r.High
}

// Overlaps reports whether [low, high] intersects the range.
func (r Range) Overlaps(low, high int64) bool {
	return low <= r.High && high >= r.Low
}

// Partition splits the observed attribute domain into numSlots contiguous
// ranges using equal-frequency binning: interior boundaries sit at evenly
// spaced percentiles of the sorted distribution, so skewed columns still
// yield slots holding roughly equal point counts.
//
// Interior boundary values are linearly interpolated between neighboring
// sorted elements and truncated toward zero. Truncation (not rounding) is a
// fixed contract: slot boundaries must be bit-identical across runs and
// implementations. Adjacent ranges share their boundary value, range[0].Low
// is the global minimum and range[numSlots-1].High the global maximum.
//
// Duplicate-heavy input collapses boundaries naturally; some slots may be
// zero-width. numSlots == 1 returns a single [min, max] range.
func Partition(values []int64, numSlots int) ([]Range, error) {
	if len(values) == 0 {
		return nil, errors.NewComputationError("slots.partition", "attribute column is empty")
	}
	if numSlots < 1 {
		return nil, errors.NewValidationError("slots.partition", "num_slots must be >= 1").
			WithContext("num_slots", numSlots)
	}

	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	step := 100.0 / float64(numSlots)

	boundaries := make([]int64, 0, numSlots-1)
	for i := 1; i < numSlots; i++ {
		percentile := step * float64(i)
		pos := percentile / 100.0 * float64(n-1)
		lo := int(pos)
		hi := lo
		if float64(lo) != pos {
			hi = lo + 1
		}

		var value int64
		if lo == hi {
			value = sorted[lo]
		} else {
			frac := pos - float64(lo)
			value = int64(float64(sorted[lo])*(1-frac) + float64(sorted[hi])*frac)
		}
		boundaries = append(boundaries, value)
	}

	ranges := make([]Range, numSlots)
	for i := range ranges {
		if i == 0 {
			ranges[i].Low = sorted[0]
		} else {
			ranges[i].Low = boundaries[i-1]
		}
		if i == numSlots-1 {
			ranges[i].High = sorted[n-1]
		} else {
			ranges[i].High = boundaries[i]
		}
	}
	return ranges, nil
}
