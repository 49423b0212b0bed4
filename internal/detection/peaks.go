package detection

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Threshold returns the derivative level a peak must reach to count as a
// confident curve crossing. Sensitivity is clamped to [0,1]; the result never
// increases as sensitivity increases.
func Threshold(maxDiff, sensitivity float64) float64 {
	s := clamp01(sensitivity)
	return maxDiff * (0.15 + 0.7*(1-s))
}

// localMaxima returns rows whose derivative is positive and not smaller than
// either neighbour. Missing neighbours at the ends do not disqualify a row.
func localMaxima(diff []float64) []int {
	var peaks []int
	for y, v := range diff {
		if v <= 0 {
			continue
		}
		if y > 0 && diff[y-1] > v {
			continue
		}
		if y < len(diff)-1 && diff[y+1] > v {
			continue
		}
		peaks = append(peaks, y)
	}
	return peaks
}

// byStrength orders rows by descending derivative, breaking ties by row.
func byStrength(diff []float64, rows []int) []int {
	out := append([]int(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		if diff[out[i]] != diff[out[j]] {
			return diff[out[i]] > diff[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// strongestRows returns every row with a non-zero derivative, strongest first.
func strongestRows(diff []float64) []int {
	if len(diff) == 0 {
		return nil
	}
	vals := append([]float64(nil), diff...)
	inds := make([]int, len(vals))
	floats.Argsort(vals, inds)

	out := make([]int, 0, len(inds))
	for i := len(inds) - 1; i >= 0; i-- {
		if vals[i] <= 0 {
			break
		}
		out = append(out, inds[i])
	}
	return out
}

// refineDarkest moves row to the darkest profile value within radius,
// approximating the centre of a drawn stroke rather than its edge. Ties keep
// the row closest to the original.
func refineDarkest(values []float64, row, radius int) int {
	if radius <= 0 || len(values) == 0 {
		return row
	}
	best := clampInt(row, 0, len(values)-1)
	for d := 1; d <= radius; d++ {
		for _, y := range [2]int{row - d, row + d} {
			if y < 0 || y >= len(values) {
				continue
			}
			if values[y] < values[best] {
				best = y
			}
		}
	}
	return best
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
