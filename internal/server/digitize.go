package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/RBFZ/CurveQuant/internal/calibration"
	"github.com/RBFZ/CurveQuant/internal/config"
	"github.com/RBFZ/CurveQuant/internal/detection"
	"github.com/RBFZ/CurveQuant/internal/probe"
	"github.com/RBFZ/CurveQuant/internal/workspace"
)

// === Calibration Handlers ===

type axisPointArgs struct {
	PixelX *float64 `json:"pixel_x"`
	PixelY *float64 `json:"pixel_y"`
	Value  *float64 `json:"value"`
}

func (a *axisPointArgs) axisPoint() calibration.AxisPoint {
	var p calibration.AxisPoint
	if a == nil {
		return p
	}
	if a.PixelX != nil && a.PixelY != nil {
		p.Pixel = &calibration.Point{X: *a.PixelX, Y: *a.PixelY}
	}
	if a.Value != nil {
		v := *a.Value
		p.Value = &v
	}
	return p
}

type calibrateArgs struct {
	X1 *axisPointArgs `json:"x1"`
	X2 *axisPointArgs `json:"x2"`
	Y1 *axisPointArgs `json:"y1"`
	Y2 *axisPointArgs `json:"y2"`
}

type calibrateResult struct {
	Calibrated  bool                    `json:"calibrated"`
	Calibration calibration.Calibration `json:"calibration"`
	Frame       *calibration.Frame      `json:"frame,omitempty"`
	XRange      []float64               `json:"x_range,omitempty"`
	SpanRows    []int                   `json:"span_rows,omitempty"`
}

// handleCalibrate updates any of the four reference points. Points not named
// in the call keep their current value.
func (s *Server) handleCalibrate(args json.RawMessage) (interface{}, error) {
	var a calibrateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	cal := s.ws.Calibration()
	for _, u := range []struct {
		in  *axisPointArgs
		dst *calibration.AxisPoint
	}{{a.X1, &cal.X1}, {a.X2, &cal.X2}, {a.Y1, &cal.Y1}, {a.Y2, &cal.Y2}} {
		if u.in == nil {
			continue
		}
		next := u.in.axisPoint()
		if next.Pixel != nil {
			u.dst.Pixel = next.Pixel
		}
		if next.Value != nil {
			u.dst.Value = next.Value
		}
	}
	s.ws.SetCalibration(cal)
	return s.calibrationResult(cal), nil
}

func (s *Server) calibrationResult(cal calibration.Calibration) *calibrateResult {
	res := &calibrateResult{Calibrated: cal.Calibrated(), Calibration: cal}
	if f, ok := cal.Frame(); ok {
		res.Frame = &f
	}
	if lo, hi, ok := cal.XRange(); ok {
		res.XRange = []float64{lo, hi}
	}
	if img, _ := s.ws.Image(); img != nil {
		if start, end, ok := cal.YSpan(img.Bounds()); ok && end >= start {
			res.SpanRows = []int{start, end}
		}
	}
	return res
}

type transformArgs struct {
	Direction string              `json:"direction"`
	Points    []calibration.Point `json:"points"`
}

type transformResult struct {
	Direction  string              `json:"direction"`
	Calibrated bool                `json:"calibrated"`
	Points     []calibration.Point `json:"points"`
}

func (s *Server) handleTransform(args json.RawMessage) (interface{}, error) {
	var a transformArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cal := s.ws.Calibration()

	var fn func(calibration.Point) calibration.Point
	switch a.Direction {
	case "", "to_data":
		a.Direction = "to_data"
		fn = cal.PixelToData
	case "to_pixel":
		fn = cal.DataToPixel
	default:
		return nil, fmt.Errorf("direction must be to_data or to_pixel, got %q", a.Direction)
	}

	out := make([]calibration.Point, len(a.Points))
	for i, p := range a.Points {
		out[i] = fn(p)
	}
	return &transformResult{Direction: a.Direction, Calibrated: cal.Calibrated(), Points: out}, nil
}

// === Label and Settings Handlers ===

type labelsArgs struct {
	Action string            `json:"action"`
	Labels []string          `json:"labels"`
	Colors map[string]string `json:"colors"`
	Label  string            `json:"label"`
	To     string            `json:"to"`
	Color  string            `json:"color"`
}

type labelsResult struct {
	Labels []string          `json:"labels"`
	Colors map[string]string `json:"colors"`
}

// handleLabels edits the ordered label list. Actions: set (replace the list
// and colors), add, rename, remove, color, list.
func (s *Server) handleLabels(args json.RawMessage) (interface{}, error) {
	var a labelsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var edit func(*probe.Set) error
	switch a.Action {
	case "", "list":
	case "set":
		edit = func(ps *probe.Set) error {
			if err := ps.SetLabels(a.Labels); err != nil {
				return err
			}
			for label, hex := range a.Colors {
				if err := ps.SetColor(label, hex); err != nil {
					return err
				}
			}
			return nil
		}
	case "add":
		edit = func(ps *probe.Set) error { return ps.AddLabel(a.Label, a.Color) }
	case "rename":
		edit = func(ps *probe.Set) error { return ps.RenameLabel(a.Label, a.To) }
	case "remove":
		edit = func(ps *probe.Set) error { return ps.RemoveLabel(a.Label) }
	case "color":
		edit = func(ps *probe.Set) error { return ps.SetColor(a.Label, a.Color) }
	default:
		return nil, fmt.Errorf("unknown label action: %s", a.Action)
	}

	if edit != nil {
		if err := s.ws.EditLabels(edit); err != nil {
			return nil, err
		}
	}
	return &labelsResult{Labels: s.ws.Labels(), Colors: s.ws.Colors()}, nil
}

// handleSettings merges the given fields into the global settings. The
// arguments use the same schema as the settings file.
func (s *Server) handleSettings(args json.RawMessage) (interface{}, error) {
	update, err := config.Parse(args)
	if err != nil {
		return nil, err
	}
	s.settings.Merge(update)
	s.ws.SetSettings(s.settings.Detection())
	return s.settings.Detection(), nil
}

// === Probe Handlers ===

type probeArgs struct {
	ID               string   `json:"id"`
	X                *float64 `json:"x"`
	PixelX           *float64 `json:"pixel_x"`
	Sensitivity      *float64 `json:"sensitivity"`
	BandPx           *int     `json:"band_px"`
	ClearSensitivity bool     `json:"clear_sensitivity"`
	ClearBandPx      bool     `json:"clear_band_px"`
	All              bool     `json:"all"`
}

func (a *probeArgs) options() (workspace.ProbeOptions, error) {
	if a.Sensitivity != nil && (*a.Sensitivity < 0 || *a.Sensitivity > 1) {
		return workspace.ProbeOptions{}, fmt.Errorf("sensitivity must be between 0 and 1, got %f", *a.Sensitivity)
	}
	if a.BandPx != nil && *a.BandPx < 0 {
		return workspace.ProbeOptions{}, fmt.Errorf("band_px must be non-negative, got %d", *a.BandPx)
	}
	return workspace.ProbeOptions{
		Sensitivity:      a.Sensitivity,
		BandPx:           a.BandPx,
		ClearSensitivity: a.ClearSensitivity,
		ClearBandPx:      a.ClearBandPx,
	}, nil
}

func (s *Server) handleProbeAdd(args json.RawMessage) (interface{}, error) {
	var a probeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	switch {
	case a.X != nil:
		return s.ws.AddProbe(*a.X, opts)
	case a.PixelX != nil:
		return s.ws.AddProbeAtPixel(*a.PixelX, opts), nil
	default:
		return nil, errors.New("either x or pixel_x is required")
	}
}

type generateArgs struct {
	Interval float64 `json:"interval"`
}

func (s *Server) handleProbeGenerate(args json.RawMessage) (interface{}, error) {
	var a generateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	ps, err := s.ws.GenerateProbes(a.Interval)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"created": len(ps), "probes": ps}, nil
}

func (s *Server) handleProbeUpdate(args json.RawMessage) (interface{}, error) {
	var a probeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	return s.ws.UpdateProbe(a.ID, opts)
}

func (s *Server) handleProbeRemove(args json.RawMessage) (interface{}, error) {
	var a probeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.All {
		n, _ := s.ws.ProbeCount()
		s.ws.Reset()
		return map[string]interface{}{"removed": n}, nil
	}
	if !s.ws.RemoveProbe(a.ID) {
		return nil, fmt.Errorf("%w: %s", probe.ErrUnknownProbe, a.ID)
	}
	return map[string]interface{}{"removed": 1}, nil
}

type manualArgs struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Y     *float64 `json:"y"`
	Clear bool     `json:"clear"`
}

// handleManual sets or clears one manual value.
func (s *Server) handleManual(args json.RawMessage) (interface{}, error) {
	var a manualArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	switch {
	case a.Clear:
		cleared, err := s.ws.ClearManual(a.ID, a.Label)
		if err != nil {
			return nil, err
		}
		if cleared {
			s.ws.Flush()
		}
	case a.Y != nil:
		if err := s.ws.SetManual(a.ID, a.Label, *a.Y); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("either y or clear is required")
	}
	return s.probeView(a.ID)
}

type manualImportArgs struct {
	Entries []probe.ManualEntry `json:"entries"`
}

func (s *Server) handleManualImport(args json.RawMessage) (interface{}, error) {
	var a manualImportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	ps, err := s.ws.ImportManual(a.Entries)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"touched": len(ps), "labels": s.ws.Labels()}, nil
}

// === Detection Handlers ===

type profileArgs struct {
	ID     string   `json:"id"`
	PixelX *float64 `json:"pixel_x"`
}

type profileResult struct {
	*detection.Profile
	MaxDiff   float64 `json:"max_diff"`
	Threshold float64 `json:"threshold"`
}

// handleProfile returns the brightness profile and derivative a probe (or an
// arbitrary column) would be detected from.
func (s *Server) handleProfile(args json.RawMessage) (interface{}, error) {
	var a profileArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var in detection.Input
	switch {
	case a.ID != "":
		var ok bool
		if in, ok = s.ws.Input(a.ID); !ok {
			return nil, fmt.Errorf("%w: %s", probe.ErrUnknownProbe, a.ID)
		}
	case a.PixelX != nil:
		in = s.ws.InputAt(*a.PixelX)
	default:
		return nil, errors.New("either id or pixel_x is required")
	}

	p, ok := detection.ProfileFor(in)
	if !ok {
		return nil, errors.New("nothing to sample: load an image and complete the calibration")
	}
	return &profileResult{
		Profile:   p,
		MaxDiff:   p.MaxDiff(),
		Threshold: detection.Threshold(p.MaxDiff(), in.Settings.Sensitivity),
	}, nil
}

type detectArgs struct {
	ID string `json:"id"`
}

type probeView struct {
	*probe.Probe
	Merged []*float64        `json:"merged"`
	Result *detection.Result `json:"result,omitempty"`
}

// handleDetect queues detection for one probe or all of them and runs the
// batch before answering.
func (s *Server) handleDetect(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if _, err := s.activeImage(); err != nil {
		return nil, err
	}
	if !s.ws.Calibration().Calibrated() {
		return nil, probe.ErrUncalibrated
	}

	if a.ID != "" {
		if _, ok := s.ws.Probe(a.ID); !ok {
			return nil, fmt.Errorf("%w: %s", probe.ErrUnknownProbe, a.ID)
		}
		s.ws.Request(a.ID)
		s.ws.Flush()
		return s.probeView(a.ID)
	}
	s.ws.RequestAll()
	s.ws.Flush()
	return s.resultsView(), nil
}

type resultsView struct {
	Labels []string       `json:"labels"`
	Probes []*probeView   `json:"probes"`
	Series []probe.Series `json:"series"`
}

func (s *Server) handleResults(args json.RawMessage) (interface{}, error) {
	s.ws.Flush()
	return s.resultsView(), nil
}

func (s *Server) resultsView() *resultsView {
	labels := s.ws.Labels()
	ps := s.ws.Probes()
	out := &resultsView{Labels: labels, Probes: make([]*probeView, len(ps)), Series: s.ws.Series()}
	for i, p := range ps {
		out.Probes[i] = s.view(p, labels)
	}
	return out
}

func (s *Server) probeView(id string) (*probeView, error) {
	p, ok := s.ws.Probe(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", probe.ErrUnknownProbe, id)
	}
	return s.view(p, s.ws.Labels()), nil
}

func (s *Server) view(p *probe.Probe, labels []string) *probeView {
	v := &probeView{Probe: p, Merged: p.Merged(labels)}
	if r, ok := s.ws.Result(p.ID); ok {
		v.Result = r
	}
	return v
}

type previewArgs struct {
	X1     int     `json:"x1"`
	Y1     int     `json:"y1"`
	X2     int     `json:"x2"`
	Y2     int     `json:"y2"`
	Scale  float64 `json:"scale"`
	Values bool    `json:"values"`
}

func (s *Server) handlePreview(args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.ws.Flush()
	return s.ws.Preview(workspace.PreviewOptions{
		Region: image.Rect(a.X1, a.Y1, a.X2, a.Y2),
		Scale:  a.Scale,
		Values: a.Values,
	})
}

func (s *Server) handleStatus(args json.RawMessage) (interface{}, error) {
	img, path := s.ws.Image()
	total, detected := s.ws.ProbeCount()
	status := map[string]interface{}{
		"image_loaded":    img != nil,
		"image_path":      path,
		"mask_enabled":    s.ws.Mask() != nil,
		"labels":          s.ws.Labels(),
		"probes":          total,
		"probes_detected": detected,
		"settings":        s.ws.Settings(),
		"scheduler":       s.ws.SchedulerStats(),
		"calibration":     s.calibrationResult(s.ws.Calibration()),
	}
	return status, nil
}
