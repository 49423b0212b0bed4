package detection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Tier records which fallback stage produced a candidate.
type Tier int

const (
	// TierNone marks an unset candidate.
	TierNone Tier = iota
	// TierStrongPeak is a local derivative maximum at or above the threshold.
	TierStrongPeak
	// TierWeakPeak is a local maximum below the threshold.
	TierWeakPeak
	// TierStrongest is any non-zero derivative row, strongest first.
	TierStrongest
	// TierMaskTarget is the masked row closest to the label's even-spacing target.
	TierMaskTarget
	// TierTarget is the row closest to the target, ignoring the mask.
	TierTarget
	// TierLastResort is any remaining row, or the span midpoint.
	TierLastResort
)

var tierNames = [...]string{"none", "strong_peak", "weak_peak", "strongest", "mask_target", "target", "last_resort"}

func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Candidate is the row chosen for one label, in span coordinates (row 0 is
// the first sampled row).
type Candidate struct {
	Row  int  `json:"row"`
	Tier Tier `json:"tier"`
}

// PickOptions tunes candidate selection.
type PickOptions struct {
	// Sensitivity in [0,1]; higher accepts weaker peaks in the first tier.
	Sensitivity float64

	// MinSeparation is the minimum row distance between any two labels'
	// picks, honoured whenever the span leaves room for it.
	MinSeparation int
}

// Pick assigns one row to each of labelCount labels. Labels are served in
// order, so earlier labels get first choice of the strongest rows. masks[i]
// constrains label i; missing or nil entries are unconstrained. The result
// always has labelCount entries when segH > 0.
func Pick(diff []float64, segH int, masks []RowMask, labelCount int, opts PickOptions) []Candidate {
	if labelCount <= 0 || segH <= 0 {
		return nil
	}

	var maxDiff float64
	if len(diff) > 0 {
		maxDiff = floats.Max(diff)
	}
	thr := Threshold(maxDiff, opts.Sensitivity)

	peaks := byStrength(diff, localMaxima(diff))
	strong := make([]int, 0, len(peaks))
	for _, r := range peaks {
		if diff[r] >= thr {
			strong = append(strong, r)
		}
	}
	ranked := strongestRows(diff)

	s := selector{segH: segH, minSep: max(opts.MinSeparation, 0)}
	out := make([]Candidate, labelCount)
	for i := range out {
		var m RowMask
		if i < len(masks) {
			m = masks[i]
		}
		target := targetRow(i, labelCount, segH)

		c := s.firstOf(strong, m, TierStrongPeak)
		if c.Tier == TierNone {
			c = s.firstOf(peaks, m, TierWeakPeak)
		}
		if c.Tier == TierNone {
			c = s.firstOf(ranked, m, TierStrongest)
		}
		if c.Tier == TierNone && m.Constrained() {
			c = s.nearestMasked(target, m)
		}
		if c.Tier == TierNone {
			if r, ok := s.nearest(target, s.separated); ok {
				c = Candidate{Row: r, Tier: TierTarget}
			}
		}
		if c.Tier == TierNone {
			c = s.lastResort(target)
		}

		out[i] = c
		s.taken = append(s.taken, c.Row)
	}
	return out
}

// targetRow is the evenly spaced fallback position for label i of n.
func targetRow(i, n, segH int) int {
	t := int(math.Round((float64(i) + 0.5) * float64(segH) / float64(n)))
	return clampInt(t, 0, segH-1)
}

// selector tracks rows already assigned during one Pick call.
type selector struct {
	segH   int
	minSep int
	taken  []int
}

func (s *selector) separated(row int) bool {
	for _, t := range s.taken {
		if abs(row-t) < s.minSep {
			return false
		}
	}
	return true
}

func (s *selector) free(row int) bool {
	for _, t := range s.taken {
		if t == row {
			return false
		}
	}
	return true
}

func (s *selector) firstOf(rows []int, m RowMask, tier Tier) Candidate {
	for _, r := range rows {
		if m.Allows(r) && s.separated(r) {
			return Candidate{Row: r, Tier: tier}
		}
	}
	return Candidate{}
}

func (s *selector) nearestMasked(target int, m RowMask) Candidate {
	if r, ok := s.nearest(target, func(r int) bool { return m.Allows(r) && s.separated(r) }); ok {
		return Candidate{Row: r, Tier: TierMaskTarget}
	}
	if r, ok := s.nearest(target, m.Allows); ok {
		return Candidate{Row: r, Tier: TierMaskTarget}
	}
	return Candidate{}
}

func (s *selector) lastResort(target int) Candidate {
	if r, ok := s.nearest(target, s.free); ok {
		return Candidate{Row: r, Tier: TierLastResort}
	}
	return Candidate{Row: s.segH / 2, Tier: TierLastResort}
}

// nearest walks outward from target and returns the first row accepted by
// ok. On equal distance the upper (smaller) row wins.
func (s *selector) nearest(target int, ok func(int) bool) (int, bool) {
	for d := 0; d < s.segH; d++ {
		if r := target - d; r >= 0 && ok(r) {
			return r, true
		}
		if r := target + d; d > 0 && r < s.segH && ok(r) {
			return r, true
		}
	}
	return 0, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
