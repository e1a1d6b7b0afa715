package core

import (
	"fmt"
	"math"
	"sort"
)

// Apportion converts non-negative reals into integers summing to target
// using the largest-remainder method.
//
// Every slot first receives the floor of its value. The leftover units are
// then handed out one each, in order of descending fractional remainder;
// equal remainders keep input order, so callers control tie-breaks through
// the order of raw. Slots whose raw value is not positive are reported as 0
// and never receive a leftover unit.
//
// ErrInternalInconsistency is returned when the floors already exceed the
// target or when there are more leftover units than eligible slots.
func Apportion(raw []float64, target int64) ([]int64, error) {
	if target < 0 {
		return nil, fmt.Errorf("%w: negative target %d", ErrInternalInconsistency, target)
	}

	out := make([]int64, len(raw))
	remainders := make([]float64, len(raw))
	eligible := make([]int, 0, len(raw))
	var floored int64
	for i, v := range raw {
		if !(v > 0) || math.IsInf(v, 1) {
			continue
		}
		f := math.Floor(v)
		out[i] = int64(f)
		remainders[i] = v - f
		floored += out[i]
		eligible = append(eligible, i)
	}

	leftover := target - floored
	if leftover < 0 {
		return nil, fmt.Errorf("%w: floored sum %d exceeds target %d", ErrInternalInconsistency, floored, target)
	}
	if leftover == 0 {
		return out, nil
	}
	if leftover > int64(len(eligible)) {
		return nil, fmt.Errorf("%w: %d leftover units for %d slots", ErrInternalInconsistency, leftover, len(eligible))
	}

	sort.SliceStable(eligible, func(a, b int) bool {
		return remainders[eligible[a]] > remainders[eligible[b]]
	})
	for _, i := range eligible[:leftover] {
		out[i]++
	}
	return out, nil
}
