package detection

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/RBFZ/CurveQuant/internal/imaging"
)

// RowMask marks which rows of the sampled span a label may occupy. A nil
// RowMask places no constraint on the label.
type RowMask []bool

// Allows reports whether row is permitted.
func (m RowMask) Allows(row int) bool {
	if m == nil {
		return true
	}
	return row >= 0 && row < len(m) && m[row]
}

// Constrained reports whether the mask restricts anything.
func (m RowMask) Constrained() bool {
	return m != nil
}

// RowMasks derives one RowMask per label from a highlight layer. Labels with
// no color, an unparsable color, or no painted pixels anywhere come back
// unconstrained (nil). A nil mask yields all-nil results.
func RowMasks(mask imaging.Mask, labels []string, colors map[string]string, px, band, startY, segH int, tolerance float64) []RowMask {
	out := make([]RowMask, len(labels))
	if mask == nil || segH <= 0 {
		return out
	}
	for i, label := range labels {
		hex, ok := colors[label]
		if !ok {
			continue
		}
		target, err := imaging.ParseColor(hex)
		if err != nil {
			continue
		}
		out[i] = labelRowMask(mask, target, px, band, startY, segH, tolerance)
	}
	return out
}

// labelRowMask scans the band around px first and widens to the full mask
// width when the band holds no paint for this label. A mask that panics on
// read is treated as absent.
func labelRowMask(mask imaging.Mask, target colorful.Color, px, band, startY, segH int, tolerance float64) (rows RowMask) {
	defer func() {
		if recover() != nil {
			rows = nil
		}
	}()

	b := mask.Bounds()
	if rows = scanRows(mask, target, px-band, px+band, startY, segH, tolerance); rows != nil {
		return rows
	}
	return scanRows(mask, target, b.Min.X, b.Max.X-1, startY, segH, tolerance)
}

// scanRows marks rows with at least one matching pixel in columns
// [x0, x1]. It returns nil when nothing matched.
func scanRows(mask imaging.Mask, target colorful.Color, x0, x1, startY, segH int, tolerance float64) RowMask {
	b := mask.Bounds()
	x0 = max(x0, b.Min.X)
	x1 = min(x1, b.Max.X-1)
	if x0 > x1 {
		return nil
	}

	rows := make(RowMask, segH)
	found := false
	for r := 0; r < segH; r++ {
		y := startY + r
		if y < b.Min.Y || y >= b.Max.Y {
			continue
		}
		for x := x0; x <= x1; x++ {
			if imaging.MatchesColor(mask.ColorAt(x, y), target, tolerance) {
				rows[r] = true
				found = true
				break
			}
		}
	}
	if !found {
		return nil
	}
	return rows
}
