package workspace

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/RBFZ/CurveQuant/internal/calibration"
	"github.com/RBFZ/CurveQuant/internal/imaging"
)

var (
	axisColor   = color.NRGBA{255, 0, 255, 255}
	probeColor  = color.NRGBA{0, 160, 255, 255}
	markerColor = color.NRGBA{255, 64, 0, 255}
	labelFg     = color.NRGBA{255, 255, 255, 255}
	labelBg     = color.NRGBA{0, 0, 0, 200}
)

// PreviewOptions selects what Preview draws.
type PreviewOptions struct {
	Region image.Rectangle
	Scale  float64
	Values bool // annotate markers with their y value
}

// Preview renders the image with the calibration axes, probe columns and
// merged per-label values drawn on top. Label colors are used for markers
// when set.
func (w *Workspace) Preview(opts PreviewOptions) (*imaging.RenderResult, error) {
	w.mu.RLock()
	if w.image == nil {
		w.mu.RUnlock()
		return nil, ErrNoImage
	}
	canvas := imaging.NewCanvas(w.image)
	cal := w.cal
	labels := w.probes.Labels()
	colors := w.probes.Colors()
	probes := w.probes.Probes()
	w.mu.RUnlock()

	for _, pair := range [][2]calibration.AxisPoint{{cal.X1, cal.X2}, {cal.Y1, cal.Y2}} {
		a, b := pair[0].Pixel, pair[1].Pixel
		if a != nil && b != nil {
			canvas.Line(a.X, a.Y, b.X, b.Y, axisColor)
		}
	}

	markers := make([]color.Color, len(labels))
	for i, l := range labels {
		markers[i] = markerColor
		if hex, ok := colors[l]; ok {
			if c, err := imaging.ParseColor(hex); err == nil {
				markers[i] = imaging.NRGBA(c)
			}
		}
	}

	for _, p := range probes {
		canvas.VLine(int(p.PixelX+0.5), probeColor)
		if !cal.Calibrated() {
			continue
		}
		for i, v := range p.Merged(labels) {
			if v == nil {
				continue
			}
			at := cal.DataToPixel(calibration.Point{X: p.XData, Y: *v})
			canvas.Cross(at.X, at.Y, 3, markers[i])
			if opts.Values {
				canvas.Label(int(at.X)+5, int(at.Y)-3, strconv.FormatFloat(*v, 'f', 2, 64), labelFg, labelBg)
			}
		}
	}

	res, err := canvas.Render(opts.Region, opts.Scale)
	if err != nil {
		return nil, fmt.Errorf("render preview: %w", err)
	}
	return res, nil
}
