package probe

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/RBFZ/CurveQuant/internal/calibration"
)

// MaxGenerated caps the number of probes one GenerateAtInterval call may
// create.
const MaxGenerated = 10000

var (
	ErrUnknownProbe  = errors.New("unknown probe")
	ErrUnknownLabel  = errors.New("unknown label")
	ErrDuplicate     = errors.New("label already exists")
	ErrEmptyLabel    = errors.New("label must not be empty")
	ErrUncalibrated  = errors.New("calibration incomplete")
	ErrBadInterval   = errors.New("interval must be positive")
	ErrTooManyProbes = errors.New("too many probes")
)

// Set is the probe list together with the ordered label list and the
// optional label colors. It is not safe for concurrent use.
type Set struct {
	labels []string
	colors map[string]string
	probes []*Probe
}

// NewSet creates a set tracking the given labels.
func NewSet(labels ...string) *Set {
	s := &Set{colors: make(map[string]string)}
	for _, l := range labels {
		_ = s.AddLabel(l, "")
	}
	return s
}

// Labels returns a copy of the ordered label list.
func (s *Set) Labels() []string {
	return append([]string(nil), s.labels...)
}

// Colors returns a copy of the label color map.
func (s *Set) Colors() map[string]string {
	out := make(map[string]string, len(s.colors))
	for k, v := range s.colors {
		out[k] = v
	}
	return out
}

// Index returns the position of label, or -1.
func (s *Set) Index(label string) int {
	for i, l := range s.labels {
		if l == label {
			return i
		}
	}
	return -1
}

// AddLabel appends a label. color may be empty.
func (s *Set) AddLabel(label, color string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return ErrEmptyLabel
	}
	if s.Index(label) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicate, label)
	}
	s.labels = append(s.labels, label)
	if color != "" {
		s.colors[label] = color
	}
	for _, p := range s.probes {
		if p.AutomaticY != nil {
			p.AutomaticY = append(p.AutomaticY, nil)
		}
	}
	return nil
}

// SetColor assigns a mask color to label; an empty color removes it.
func (s *Set) SetColor(label, color string) error {
	if s.Index(label) < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	if color == "" {
		delete(s.colors, label)
		return nil
	}
	s.colors[label] = color
	return nil
}

// RenameLabel renames a label, carrying its color and manual values along.
func (s *Set) RenameLabel(from, to string) error {
	to = strings.TrimSpace(to)
	i := s.Index(from)
	switch {
	case i < 0:
		return fmt.Errorf("%w: %q", ErrUnknownLabel, from)
	case to == "":
		return ErrEmptyLabel
	case to == from:
		return nil
	case s.Index(to) >= 0:
		return fmt.Errorf("%w: %q", ErrDuplicate, to)
	}

	s.labels[i] = to
	if c, ok := s.colors[from]; ok {
		delete(s.colors, from)
		s.colors[to] = c
	}
	for _, p := range s.probes {
		if y, ok := p.Manual[from]; ok {
			delete(p.Manual, from)
			p.Manual[to] = y
		}
	}
	return nil
}

// RemoveLabel drops a label and its slot in every probe.
func (s *Set) RemoveLabel(label string) error {
	i := s.Index(label)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	s.labels = append(s.labels[:i], s.labels[i+1:]...)
	delete(s.colors, label)
	for _, p := range s.probes {
		if i < len(p.AutomaticY) {
			p.AutomaticY = append(p.AutomaticY[:i], p.AutomaticY[i+1:]...)
		}
		p.ClearManual(label)
	}
	return nil
}

// SetLabels replaces the label list. Automatic values follow their label
// by name; new labels start empty and manual values for dropped labels are
// discarded.
func (s *Set) SetLabels(labels []string) error {
	seen := make(map[string]bool, len(labels))
	next := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			return ErrEmptyLabel
		}
		if seen[l] {
			return fmt.Errorf("%w: %q", ErrDuplicate, l)
		}
		seen[l] = true
		next = append(next, l)
	}

	for _, p := range s.probes {
		if p.AutomaticY != nil {
			auto := make([]*float64, len(next))
			for j, l := range next {
				if i := s.Index(l); i >= 0 && i < len(p.AutomaticY) {
					auto[j] = p.AutomaticY[i]
				}
			}
			p.AutomaticY = auto
		}
		for l := range p.Manual {
			if !seen[l] {
				p.ClearManual(l)
			}
		}
	}
	for l := range s.colors {
		if !seen[l] {
			delete(s.colors, l)
		}
	}
	s.labels = next
	return nil
}

// Add creates a probe at the given data x and pixel column.
func (s *Set) Add(xData, pixelX float64) *Probe {
	p := &Probe{ID: uuid.New().String(), XData: xData, PixelX: pixelX}
	s.probes = append(s.probes, p)
	return p
}

// Get returns the probe with id.
func (s *Set) Get(id string) (*Probe, bool) {
	for _, p := range s.probes {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Remove deletes the probe with id and reports whether it existed.
func (s *Set) Remove(id string) bool {
	for i, p := range s.probes {
		if p.ID == id {
			s.probes = append(s.probes[:i], s.probes[i+1:]...)
			return true
		}
	}
	return false
}

// Reset removes every probe. Labels and colors are kept.
func (s *Set) Reset() {
	s.probes = nil
}

// Len returns the number of probes.
func (s *Set) Len() int {
	return len(s.probes)
}

// Probes returns deep copies of all probes in insertion order.
func (s *Set) Probes() []*Probe {
	out := make([]*Probe, len(s.probes))
	for i, p := range s.probes {
		out[i] = p.Clone()
	}
	return out
}

// IDs returns the probe ids in insertion order.
func (s *Set) IDs() []string {
	out := make([]string, len(s.probes))
	for i, p := range s.probes {
		out[i] = p.ID
	}
	return out
}

// SetManual records a manual value for label on probe id.
func (s *Set) SetManual(id, label string, y float64) error {
	p, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProbe, id)
	}
	i := s.Index(label)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	p.SetManual(label, i, y)
	return nil
}

// GenerateAtInterval places a probe every interval data units across the
// calibrated x range, both ends included. Pixel columns come from the
// calibration's inverse transform along the x-axis line.
func (s *Set) GenerateAtInterval(cal calibration.Calibration, interval float64) ([]*Probe, error) {
	if !(interval > 0) || math.IsInf(interval, 0) {
		return nil, ErrBadInterval
	}
	lo, hi, ok := cal.XRange()
	if !ok || !cal.Calibrated() {
		return nil, ErrUncalibrated
	}
	n := int(math.Floor((hi-lo)/interval+1e-9)) + 1
	if n > MaxGenerated {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyProbes, n, MaxGenerated)
	}

	axisY := cal.PixelToData(*cal.X1.Pixel).Y
	out := make([]*Probe, 0, n)
	for i := 0; i < n; i++ {
		x := lo + float64(i)*interval
		px := cal.DataToPixel(calibration.Point{X: x, Y: axisY}).X
		out = append(out, s.Add(x, px))
	}
	return out, nil
}

// ManualEntry is one imported (x, label, y) reading.
type ManualEntry struct {
	X     float64 `json:"x"`
	Label string  `json:"label"`
	Y     float64 `json:"y"`
}

// ImportManual turns manual readings into probes. Entries sharing an x value
// land on the same probe, and an existing probe at that x is reused. Unknown
// labels are appended to the label list. It returns the probes touched.
func (s *Set) ImportManual(cal calibration.Calibration, entries []ManualEntry) ([]*Probe, error) {
	var axisY float64
	calibrated := cal.Calibrated()
	if calibrated {
		axisY = cal.PixelToData(*cal.X1.Pixel).Y
	}

	var touched []*Probe
	seen := make(map[string]bool)
	for _, e := range entries {
		if s.Index(strings.TrimSpace(e.Label)) < 0 {
			if err := s.AddLabel(e.Label, ""); err != nil {
				return touched, err
			}
		}
		label := strings.TrimSpace(e.Label)

		p := s.atX(e.X)
		if p == nil {
			var px float64
			if calibrated {
				px = cal.DataToPixel(calibration.Point{X: e.X, Y: axisY}).X
			}
			p = s.Add(e.X, px)
		}
		p.SetManual(label, s.Index(label), e.Y)
		if !seen[p.ID] {
			seen[p.ID] = true
			touched = append(touched, p)
		}
	}
	return touched, nil
}

func (s *Set) atX(x float64) *Probe {
	for _, p := range s.probes {
		if math.Abs(p.XData-x) <= 1e-9*math.Max(1, math.Abs(x)) {
			return p
		}
	}
	return nil
}

// Point is one (x, y) sample of a series.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is the merged data for one label.
type Series struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// Series returns the merged values per label, in label order, each sorted
// by x. Probes without a value for a label are skipped for that label.
func (s *Set) Series() []Series {
	out := make([]Series, len(s.labels))
	for i, l := range s.labels {
		out[i] = Series{Label: l, Points: []Point{}}
	}
	for _, p := range s.probes {
		for i, v := range p.Merged(s.labels) {
			if v != nil {
				out[i].Points = append(out[i].Points, Point{X: p.XData, Y: *v})
			}
		}
	}
	for i := range out {
		pts := out[i].Points
		sort.SliceStable(pts, func(a, b int) bool { return pts[a].X < pts[b].X })
	}
	return out
}
