package detection

import "sort"

// PickSimple is the single-pass alternative to Pick. It takes the strongest
// separated peaks above the threshold, nudges each to the darkest nearby row,
// and hands them out top to bottom: the topmost row goes to label 0. Labels
// left over are placed at their even-spacing targets. Masks are not
// consulted.
func PickSimple(p *Profile, labelCount int, opts PickOptions, refineRadius int) []Candidate {
	segH := p.Height()
	if labelCount <= 0 || segH <= 0 {
		return nil
	}

	thr := Threshold(p.MaxDiff(), opts.Sensitivity)
	s := selector{segH: segH, minSep: max(opts.MinSeparation, 0)}

	var rows []int
	for _, r := range byStrength(p.Diff, localMaxima(p.Diff)) {
		if len(rows) == labelCount {
			break
		}
		if p.Diff[r] < thr {
			break
		}
		r = refineDarkest(p.Values, r, refineRadius)
		if !s.separated(r) {
			continue
		}
		rows = append(rows, r)
		s.taken = append(s.taken, r)
	}
	sort.Ints(rows)

	out := make([]Candidate, labelCount)
	for i, r := range rows {
		out[i] = Candidate{Row: r, Tier: TierStrongPeak}
	}
	for i := len(rows); i < labelCount; i++ {
		target := targetRow(i, labelCount, segH)
		c := s.lastResort(target)
		if r, ok := s.nearest(target, s.separated); ok {
			c = Candidate{Row: r, Tier: TierTarget}
		}
		out[i] = c
		s.taken = append(s.taken, c.Row)
	}
	return out
}
