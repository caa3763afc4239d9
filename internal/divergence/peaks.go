package divergence

import "github.com/moznion/go-optional"

// FindPeaks returns the indices of the local maxima of values. A maximum must
// be strictly greater than both neighbours, so the first and last index never
// qualify. A flat top counts once, at the middle of the plateau. None values
// break the neighbourhood.
func FindPeaks(values []optional.Option[float64]) []int {
	return findExtrema(values, func(a, b float64) bool { return a > b })
}

// FindTroughs returns the indices of the local minima of values, with the same
// rules as FindPeaks.
func FindTroughs(values []optional.Option[float64]) []int {
	return findExtrema(values, func(a, b float64) bool { return a < b })
}

// findExtrema scans for plateaus [left, right] whose value beats both the
// value before left and the value after right.
func findExtrema(values []optional.Option[float64], beats func(a, b float64) bool) []int {
	var out []int

	n := len(values)

	for i := 1; i < n-1; i++ {
		if values[i].IsNone() || values[i-1].IsNone() {
			continue
		}

		v := values[i].Unwrap()
		if !beats(v, values[i-1].Unwrap()) {
			continue
		}

		// extend across a plateau of equal values
		right := i
		for right+1 < n && values[right+1].IsSome() && values[right+1].Unwrap() == v {
			right++
		}

		if right+1 < n && values[right+1].IsSome() && beats(v, values[right+1].Unwrap()) {
			out = append(out, (i+right)/2)
		}

		i = right
	}

	return out
}
