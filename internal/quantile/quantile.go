package quantile

import (
	"math"
	"sort"
)

// Quantile is a collection of durations.
type Quantile struct {
	Xs []int64

	// Sorted indicates that Xs is sorted in ascending order.
	Sorted bool
}

// New copies xs and sorts them.
func New(xs []int64) Quantile {
	q := Quantile{Xs: append([]int64(nil), xs...), Sorted: true}
	sort.Slice(q.Xs, func(i, j int) bool { return q.Xs[i] < q.Xs[j] })
	return q
}

// Bounds returns the minimum and maximum values of the Quantile.
func (q Quantile) Bounds() (min int64, max int64) {
	if len(q.Xs) == 0 {
		return 0, 0
	}
	if q.Sorted {
		return q.Xs[0], q.Xs[len(q.Xs)-1]
	}
	min, max = q.Xs[0], q.Xs[0]
	for _, x := range q.Xs {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return min, max
}

// Percentile returns the pctileth value from the Quantile. This uses
// interpolation method R8 from Hyndman and Fan (1996).
//
// pctile will be capped to the range [0, 1]. If there are no values, returns
// 0.
func (q Quantile) Percentile(pctile float64) float64 {
	if len(q.Xs) == 0 {
		return 0
	} else if pctile <= 0 {
		min, _ := q.Bounds()
		return float64(min)
	} else if pctile >= 1 {
		_, max := q.Bounds()
		return float64(max)
	}

	if !q.Sorted {
		q = New(q.Xs)
	}

	N := float64(len(q.Xs))
	n := 1/3.0 + pctile*(N+1/3.0) // R8
	kf, frac := math.Modf(n)
	k := int(kf)
	if k <= 0 {
		return float64(q.Xs[0])
	} else if k >= len(q.Xs) {
		return float64(q.Xs[len(q.Xs)-1])
	}
	return float64(q.Xs[k-1]) + frac*float64(q.Xs[k]-q.Xs[k-1])
}
