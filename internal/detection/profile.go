package detection

import (
	"image"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/RBFZ/CurveQuant/internal/imaging"
)

// Profile is the brightness signal sampled down a probe column.
type Profile struct {
	// Column is the rounded probe column in pixels.
	Column int `json:"column"`

	// StartY and EndY are the inclusive pixel rows the profile covers.
	StartY int `json:"start_y"`
	EndY   int `json:"end_y"`

	// Columns is the number of image columns that were averaged. It is less
	// than 2*band+1 when the band runs off the image edge.
	Columns int `json:"columns"`

	// Values holds one averaged luma value (0-255) per row.
	Values []float64 `json:"values"`

	// Diff holds |Values[y+1] - Values[y]|; it has one element fewer than
	// Values.
	Diff []float64 `json:"diff"`
}

// Height is the number of sampled rows.
func (p *Profile) Height() int {
	return len(p.Values)
}

// MaxDiff returns the largest derivative value, or 0 for an empty signal.
func (p *Profile) MaxDiff() float64 {
	if len(p.Diff) == 0 {
		return 0
	}
	return floats.Max(p.Diff)
}

// BuildProfile samples the band [px-band, px+band] over rows [startY, endY].
//
// Columns outside the image are skipped and each row is divided by the number
// of columns actually read. When smooth is positive the band is Gaussian
// blurred before sampling. If endY < startY the returned profile is empty.
func BuildProfile(img image.Image, px, startY, endY, band int, smooth float64) *Profile {
	p := &Profile{Column: px, StartY: startY, EndY: endY}
	segH := endY - startY + 1
	if segH <= 0 {
		return p
	}

	strip := imaging.Smooth(imaging.CropBand(img, px, band, startY, endY), smooth)
	cols := strip.Rect.Dx()
	rows := min(strip.Rect.Dy(), segH)

	p.Columns = cols
	p.Values = make([]float64, segH)
	if cols > 0 {
		for y := 0; y < rows; y++ {
			var sum float64
			for x := 0; x < cols; x++ {
				i := strip.PixOffset(strip.Rect.Min.X+x, strip.Rect.Min.Y+y)
				sum += imaging.Luma(strip.Pix[i], strip.Pix[i+1], strip.Pix[i+2])
			}
			p.Values[y] = sum / float64(cols)
		}
	}

	p.Diff = make([]float64, segH-1)
	for y := range p.Diff {
		p.Diff[y] = math.Abs(p.Values[y+1] - p.Values[y])
	}
	return p
}
