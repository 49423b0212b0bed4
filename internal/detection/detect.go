package detection

import (
	"image"
	"math"

	"github.com/RBFZ/CurveQuant/internal/calibration"
	"github.com/RBFZ/CurveQuant/internal/imaging"
)

// Strategy selects the candidate picker.
type Strategy string

const (
	// StrategyLabels picks label by label with cross-label exclusion.
	StrategyLabels Strategy = "labels"
	// StrategySimple picks peaks independently and assigns them top to bottom.
	StrategySimple Strategy = "simple"
)

// Settings are the tunable detection parameters.
type Settings struct {
	Sensitivity   float64  `json:"sensitivity"`    // 0-1, higher is more permissive
	BandPx        int      `json:"band_px"`        // half-width of the sampled band
	MinSeparation int      `json:"min_separation"` // rows between picks
	MaskTolerance float64  `json:"mask_tolerance"` // RGB distance in (0, sqrt(3)]; 0 selects the default
	SmoothSigma   float64  `json:"smooth_sigma"`   // Gaussian pre-blur radius, 0 = off
	RefineRadius  int      `json:"refine_radius"`  // darkest-row search radius (simple strategy)
	Strategy      Strategy `json:"strategy"`
}

// Default detection parameters.
const (
	DefaultSensitivity   = 0.6
	DefaultBandPx        = 2
	DefaultMinSeparation = 3
	DefaultMaskTolerance = 0.15
	DefaultRefineRadius  = 3
)

// DefaultSettings returns the stock detection parameters.
func DefaultSettings() Settings {
	return Settings{
		Sensitivity:   DefaultSensitivity,
		BandPx:        DefaultBandPx,
		MinSeparation: DefaultMinSeparation,
		MaskTolerance: DefaultMaskTolerance,
		RefineRadius:  DefaultRefineRadius,
		Strategy:      StrategyLabels,
	}
}

// normalized clamps out-of-range values into something the pickers accept.
func (s Settings) normalized() Settings {
	if math.IsNaN(s.Sensitivity) {
		s.Sensitivity = DefaultSensitivity
	}
	s.Sensitivity = clamp01(s.Sensitivity)
	s.BandPx = max(s.BandPx, 0)
	s.MinSeparation = max(s.MinSeparation, 0)
	if !(s.MaskTolerance > 0) {
		s.MaskTolerance = DefaultMaskTolerance
	}
	if !(s.SmoothSigma > 0) {
		s.SmoothSigma = 0
	}
	s.RefineRadius = max(s.RefineRadius, 0)
	if s.Strategy != StrategySimple {
		s.Strategy = StrategyLabels
	}
	return s
}

// Input is everything one detection run reads. It is a snapshot: the
// detector keeps nothing between calls.
type Input struct {
	Image       image.Image
	Calibration calibration.Calibration

	// PixelX is the probe column; it is rounded to the nearest pixel.
	PixelX float64

	// Labels are the tracked curves in expected order, least value first.
	Labels []string

	// Colors maps labels to hex colors used on the highlight layer.
	Colors map[string]string

	// Mask is the highlight layer, or nil when highlighting is off.
	Mask imaging.Mask

	Settings Settings
}

// Result is the outcome of one detection run.
type Result struct {
	// Values holds one data y value per label, in label order. A nil entry
	// means no confident value.
	Values []*float64 `json:"values"`

	// Rows are the chosen pixel rows, in label order; -1 where no row was
	// chosen.
	Rows []int `json:"rows"`

	// Tiers records which fallback stage produced each row.
	Tiers []Tier `json:"tiers"`

	Column    int     `json:"column"`
	StartY    int     `json:"start_y"`
	EndY      int     `json:"end_y"`
	MaxDiff   float64 `json:"max_diff"`
	Threshold float64 `json:"threshold"`
}

// Span resolves the probe column and the calibrated row span for in. It
// reports false when the image is missing, the calibration is incomplete, or
// the span is empty.
func Span(in Input) (px, startY, endY int, ok bool) {
	if in.Image == nil {
		return 0, 0, -1, false
	}
	startY, endY, ok = in.Calibration.YSpan(in.Image.Bounds())
	if !ok || endY < startY {
		return 0, startY, endY, false
	}
	return int(math.Round(in.PixelX)), startY, endY, true
}

// ProfileFor builds the brightness profile Detect would use for in.
func ProfileFor(in Input) (*Profile, bool) {
	px, startY, endY, ok := Span(in)
	if !ok {
		return nil, false
	}
	s := in.Settings.normalized()
	return BuildProfile(in.Image, px, startY, endY, s.BandPx, s.SmoothSigma), true
}

// Detect runs curve detection for one probe. It reports ok=false, and the
// caller should leave the probe untouched, when there is nothing to sample.
// Otherwise the result holds exactly len(in.Labels) values; they are all nil
// when the probe band lies entirely outside the image.
func Detect(in Input) (*Result, bool) {
	px, startY, endY, ok := Span(in)
	if !ok {
		return nil, false
	}
	s := in.Settings.normalized()
	p := BuildProfile(in.Image, px, startY, endY, s.BandPx, s.SmoothSigma)
	segH := p.Height()

	r := &Result{
		Values: make([]*float64, len(in.Labels)),
		Rows:   make([]int, len(in.Labels)),
		Tiers:  make([]Tier, len(in.Labels)),
		Column: px,
		StartY: startY,
		EndY:   endY,
	}
	// A band entirely off the image has no signal; every label stays empty.
	if p.Columns == 0 {
		for i := range r.Rows {
			r.Rows[i] = -1
		}
		return r, true
	}

	opts := PickOptions{Sensitivity: s.Sensitivity, MinSeparation: s.MinSeparation}
	var picks []Candidate
	switch s.Strategy {
	case StrategySimple:
		picks = PickSimple(p, len(in.Labels), opts, s.RefineRadius)
	default:
		masks := RowMasks(in.Mask, in.Labels, in.Colors, px, s.BandPx, startY, segH, s.MaskTolerance)
		picks = Pick(p.Diff, segH, masks, len(in.Labels), opts)
	}

	r.MaxDiff = p.MaxDiff()
	r.Threshold = Threshold(r.MaxDiff, s.Sensitivity)
	for i, c := range picks {
		row := startY + c.Row
		d := in.Calibration.PixelToData(calibration.Point{X: float64(px), Y: float64(row)})
		y := d.Y
		r.Values[i] = &y
		r.Rows[i] = row
		r.Tiers[i] = c.Tier
	}
	return r, true
}
