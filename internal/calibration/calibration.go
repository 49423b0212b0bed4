// Package calibration maps between image pixels and chart data coordinates.
//
// A chart is calibrated by four reference points: two on the x-axis (X1, X2)
// and two on the y-axis (Y1, Y2), each with a pixel position and the data value
// it represents. The two axis lines define an oblique coordinate frame whose
// origin is their intersection. The axes need not be perpendicular or aligned
// with the image grid; skew between them is preserved. A point is split into
// components along the two axis directions by solving a 2x2 system, so on a
// skewed frame its data value differs from a plain dot-product projection onto
// each axis, and the pixel round trip stays exact.
//
// # Coordinate System
//
// Pixel coordinates follow the image convention: (0,0) is the top-left corner,
// X increases rightward and Y increases downward. Data coordinates follow
// whatever direction the calibration values imply.
//
// # Error Handling
//
// Nothing in this package returns an error. An incomplete calibration maps
// every point to {0,0}, and degenerate geometry (parallel axes, zero-length
// axes) falls back to finite defaults instead of producing NaN or Inf.
package calibration

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// parallelEpsilon is the determinant magnitude below which the two axis
// lines are treated as parallel.
const parallelEpsilon = 1e-9

// Point is a 2D coordinate, either in pixel space or data space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AxisPoint is one calibration reference: a pixel position and the data
// value at that position. Either half may be absent.
type AxisPoint struct {
	Pixel *Point   `json:"pixel,omitempty"`
	Value *float64 `json:"value,omitempty"`
}

// Set reports whether both the pixel and the value are present.
func (a AxisPoint) Set() bool {
	return a.Pixel != nil && a.Value != nil
}

// Calibration holds the four axis reference points.
type Calibration struct {
	X1 AxisPoint `json:"x1"`
	X2 AxisPoint `json:"x2"`
	Y1 AxisPoint `json:"y1"`
	Y2 AxisPoint `json:"y2"`
}

// Frame is the oblique coordinate frame derived from a complete calibration.
type Frame struct {
	// Origin is the intersection of the two axis lines, or X1's pixel when
	// the lines are parallel.
	Origin r2.Vec `json:"origin"`

	// UX and UY are unit directions of the x and y axes in pixel space.
	UX r2.Vec `json:"ux"`
	UY r2.Vec `json:"uy"`

	// Alpha1 and Alpha2 are the offsets of X1 and X2 along UX from Origin.
	Alpha1 float64 `json:"alpha1"`
	Alpha2 float64 `json:"alpha2"`

	// Beta1 and Beta2 are the offsets of Y1 and Y2 along UY from Origin.
	Beta1 float64 `json:"beta1"`
	Beta2 float64 `json:"beta2"`

	// Parallel is true when the axis lines did not intersect.
	Parallel bool `json:"parallel"`
}

// Calibrated reports whether all four pixels and all four values are set.
func (c Calibration) Calibrated() bool {
	return c.X1.Set() && c.X2.Set() && c.Y1.Set() && c.Y2.Set()
}

// Frame derives the oblique coordinate frame. The second result is false if
// the calibration is incomplete.
func (c Calibration) Frame() (Frame, bool) {
	if !c.Calibrated() {
		return Frame{}, false
	}

	x1, x2 := vec(*c.X1.Pixel), vec(*c.X2.Pixel)
	y1, y2 := vec(*c.Y1.Pixel), vec(*c.Y2.Pixel)
	dx := r2.Sub(x2, x1)
	dy := r2.Sub(y2, y1)

	var f Frame
	det := r2.Cross(dx, dy)
	if math.Abs(det) < parallelEpsilon {
		f.Origin = x1
		f.Parallel = true
	} else {
		t := r2.Cross(r2.Sub(y1, x1), dy) / det
		f.Origin = r2.Add(x1, r2.Scale(t, dx))
	}

	f.UX = unit(dx)
	f.UY = unit(dy)
	f.Alpha1, _ = f.decompose(x1)
	f.Alpha2, _ = f.decompose(x2)
	_, f.Beta1 = f.decompose(y1)
	_, f.Beta2 = f.decompose(y2)
	return f, true
}

// decompose expresses p - Origin as a*UX + b*UY. When the axes are skewed
// the components are taken along the other axis direction, not
// perpendicular to it, so that Origin + a*UX + b*UY reproduces p. If the
// directions are parallel or zero, plain dot-product projection is used.
func (f Frame) decompose(p r2.Vec) (a, b float64) {
	v := r2.Sub(p, f.Origin)
	cross := r2.Cross(f.UX, f.UY)
	if math.Abs(cross) < parallelEpsilon {
		return r2.Dot(v, f.UX), r2.Dot(v, f.UY)
	}
	return r2.Cross(v, f.UY) / cross, r2.Cross(f.UX, v) / cross
}

// PixelToData converts a pixel position to data coordinates. An incomplete
// calibration yields {0,0}; non-finite components are replaced with 0.
func (c Calibration) PixelToData(p Point) Point {
	f, ok := c.Frame()
	if !ok {
		return Point{}
	}

	projX, projY := f.decompose(vec(p))
	x := *c.X1.Value + (projX-f.Alpha1)/(f.Alpha2-f.Alpha1)*(*c.X2.Value-*c.X1.Value)
	y := *c.Y1.Value + (projY-f.Beta1)/(f.Beta2-f.Beta1)*(*c.Y2.Value-*c.Y1.Value)
	return Point{X: finite(x), Y: finite(y)}
}

// DataToPixel converts data coordinates to a pixel position. It is the
// inverse of PixelToData. An incomplete calibration yields {0,0}.
func (c Calibration) DataToPixel(d Point) Point {
	f, ok := c.Frame()
	if !ok {
		return Point{}
	}

	alpha := finite(f.Alpha1 + (d.X-*c.X1.Value)/(*c.X2.Value-*c.X1.Value)*(f.Alpha2-f.Alpha1))
	beta := finite(f.Beta1 + (d.Y-*c.Y1.Value)/(*c.Y2.Value-*c.Y1.Value)*(f.Beta2-f.Beta1))
	p := r2.Add(f.Origin, r2.Add(r2.Scale(alpha, f.UX), r2.Scale(beta, f.UY)))
	return Point{X: finite(p.X), Y: finite(p.Y)}
}

// YSpan returns the inclusive pixel rows [startY, endY] spanned by the two
// y-axis calibration pixels, clamped to bounds. The third result is false if
// the calibration is incomplete; endY < startY means the span is empty.
func (c Calibration) YSpan(bounds image.Rectangle) (startY, endY int, ok bool) {
	if !c.Calibrated() {
		return 0, -1, false
	}
	a := int(math.Round(c.Y1.Pixel.Y))
	b := int(math.Round(c.Y2.Pixel.Y))
	if a > b {
		a, b = b, a
	}
	startY = max(a, bounds.Min.Y)
	endY = min(b, bounds.Max.Y-1)
	return startY, endY, true
}

// XRange returns the data values of the two x-axis calibration points in
// ascending order.
func (c Calibration) XRange() (lo, hi float64, ok bool) {
	if c.X1.Value == nil || c.X2.Value == nil {
		return 0, 0, false
	}
	lo, hi = *c.X1.Value, *c.X2.Value
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, true
}

func vec(p Point) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// unit normalizes v, returning the zero vector for zero-length input.
func unit(v r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n == 0 || math.IsNaN(n) {
		return r2.Vec{}
	}
	return r2.Scale(1/n, v)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Ref builds a complete AxisPoint from a pixel position and a data value.
func Ref(px, py, value float64) AxisPoint {
	return AxisPoint{Pixel: &Point{X: px, Y: py}, Value: &value}
}
