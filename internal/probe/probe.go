// Package probe holds the bookkeeping around detection: probes, the ordered
// label list, manual overrides and the merged per-label view.
package probe

import (
	"github.com/RBFZ/CurveQuant/internal/detection"
)

// Probe is a vertical sampling position on the chart.
type Probe struct {
	ID     string  `json:"id"`
	XData  float64 `json:"x_data"`
	PixelX float64 `json:"pixel_x"`

	// AutomaticY holds the last detection result, aligned with the label
	// list. It is nil until the probe has been detected once.
	AutomaticY []*float64 `json:"automatic_y"`

	// Manual values per label; they always win over AutomaticY.
	Manual map[string]float64 `json:"manual,omitempty"`

	// Per-probe overrides of the global settings.
	Sensitivity *float64 `json:"sensitivity,omitempty"`
	BandPx      *int     `json:"band_px,omitempty"`
}

// Detected reports whether a detection result has been stored.
func (p *Probe) Detected() bool {
	return p.AutomaticY != nil
}

// ApplyDetection replaces the whole automatic result.
func (p *Probe) ApplyDetection(values []*float64) {
	out := make([]*float64, len(values))
	for i, v := range values {
		if v != nil {
			y := *v
			out[i] = &y
		}
	}
	p.AutomaticY = out
}

// SetManual records a manual value for the label at index and clears that
// label's automatic slot. Other labels are untouched.
func (p *Probe) SetManual(label string, index int, y float64) {
	if p.Manual == nil {
		p.Manual = make(map[string]float64)
	}
	p.Manual[label] = y
	if index >= 0 && index < len(p.AutomaticY) {
		p.AutomaticY[index] = nil
	}
}

// ClearManual removes the manual value for label. It reports whether one
// was set.
func (p *Probe) ClearManual(label string) bool {
	if _, ok := p.Manual[label]; !ok {
		return false
	}
	delete(p.Manual, label)
	if len(p.Manual) == 0 {
		p.Manual = nil
	}
	return true
}

// Merged returns one value per label: the manual value when present,
// otherwise the automatic one. Slots with neither are nil.
func (p *Probe) Merged(labels []string) []*float64 {
	out := make([]*float64, len(labels))
	for i, label := range labels {
		if y, ok := p.Manual[label]; ok {
			out[i] = &y
			continue
		}
		if i < len(p.AutomaticY) && p.AutomaticY[i] != nil {
			y := *p.AutomaticY[i]
			out[i] = &y
		}
	}
	return out
}

// Resolve applies the probe's overrides on top of the global settings.
func (p *Probe) Resolve(s detection.Settings) detection.Settings {
	if p.Sensitivity != nil {
		s.Sensitivity = *p.Sensitivity
	}
	if p.BandPx != nil {
		s.BandPx = *p.BandPx
	}
	return s
}

// Clone returns a deep copy.
func (p *Probe) Clone() *Probe {
	c := *p
	if p.AutomaticY != nil {
		c.AutomaticY = make([]*float64, len(p.AutomaticY))
		for i, v := range p.AutomaticY {
			if v != nil {
				y := *v
				c.AutomaticY[i] = &y
			}
		}
	}
	if p.Manual != nil {
		c.Manual = make(map[string]float64, len(p.Manual))
		for k, v := range p.Manual {
			c.Manual[k] = v
		}
	}
	if p.Sensitivity != nil {
		s := *p.Sensitivity
		c.Sensitivity = &s
	}
	if p.BandPx != nil {
		b := *p.BandPx
		c.BandPx = &b
	}
	return &c
}
