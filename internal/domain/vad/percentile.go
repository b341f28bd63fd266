package vad

import (
	"math"
	"sort"
)

// Percentile returns the given percentile (0..1) of values, interpolating
// linearly between the two nearest ranks when the index is not integral.
func Percentile(values []int, percent float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)

	index := float64(len(sorted)-1) * percent
	lo := math.Floor(index)
	hi := math.Ceil(index)
	if lo == hi {
		return float64(sorted[int(index)])
	}
	low := float64(sorted[int(lo)]) * (hi - index)
	high := float64(sorted[int(hi)]) * (index - lo)
	return low + high
}
