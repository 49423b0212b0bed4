package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Mask is a read-only snapshot of a highlight layer painted over the chart.
// It is aligned 1:1 with the source image. The detector only ever reads it.
type Mask interface {
	// Bounds returns the mask extent, normally identical to the image bounds.
	Bounds() image.Rectangle

	// ColorAt returns the non-premultiplied color at (x, y). Points outside
	// Bounds return the zero (fully transparent) color.
	ColorAt(x, y int) color.NRGBA
}

// ImageMask adapts a decoded image to the Mask interface.
type ImageMask struct {
	pix *image.NRGBA
}

// NewImageMask snapshots img into an NRGBA buffer. Later changes to img are
// not visible through the returned mask.
func NewImageMask(img image.Image) *ImageMask {
	// imaging.Clone rebases bounds to (0,0); keep the original origin so
	// mask coordinates line up with the source image.
	clone := imaging.Clone(img)
	clone.Rect = clone.Rect.Add(img.Bounds().Min)
	return &ImageMask{pix: clone}
}

// Bounds implements Mask.
func (m *ImageMask) Bounds() image.Rectangle {
	return m.pix.Bounds()
}

// ColorAt implements Mask.
func (m *ImageMask) ColorAt(x, y int) color.NRGBA {
	return m.pix.NRGBAAt(x, y)
}

// LabelCoverage counts, for each label color, how many mask pixels it owns.
// Labels whose color cannot be parsed are reported with a count of -1.
func LabelCoverage(m Mask, colors map[string]string, tolerance float64) map[string]int {
	out := make(map[string]int, len(colors))
	targets := make(map[string]colorful.Color, len(colors))
	for label, hex := range colors {
		c, err := ParseColor(hex)
		if err != nil {
			out[label] = -1
			continue
		}
		targets[label] = c
		out[label] = 0
	}
	if len(targets) == 0 {
		return out
	}

	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := m.ColorAt(x, y)
			if c.A == 0 {
				continue
			}
			for label, t := range targets {
				if MatchesColor(c, t, tolerance) {
					out[label]++
				}
			}
		}
	}
	return out
}
