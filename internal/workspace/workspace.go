// Package workspace ties the engine together: one image, its calibration,
// the probe and label state, an optional highlight mask, and a scheduler
// that re-detects probes whenever their inputs change.
//
// Every mutation that can change a detection result queues a request on the
// scheduler rather than detecting inline. Requests are drained by Flush or
// by Run, and each task reads the workspace state at the moment it executes.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/RBFZ/CurveQuant/internal/calibration"
	"github.com/RBFZ/CurveQuant/internal/detection"
	"github.com/RBFZ/CurveQuant/internal/imaging"
	"github.com/RBFZ/CurveQuant/internal/probe"
	"github.com/RBFZ/CurveQuant/internal/schedule"
)

// ErrNoImage is returned by operations that need a loaded image.
var ErrNoImage = errors.New("no image loaded")

// Workspace is safe for concurrent use.
type Workspace struct {
	mu        sync.RWMutex
	image     image.Image
	imagePath string
	mask      imaging.Mask
	cal       calibration.Calibration
	settings  detection.Settings
	probes    *probe.Set
	results   map[string]*detection.Result

	sched *schedule.Scheduler
}

// New creates an empty workspace using the given global settings.
func New(settings detection.Settings) *Workspace {
	return &Workspace{
		settings: settings,
		probes:   probe.NewSet(),
		results:  make(map[string]*detection.Result),
		sched:    schedule.New(),
	}
}

// SetImage replaces the chart image. path is informational.
func (w *Workspace) SetImage(img image.Image, path string) {
	w.mu.Lock()
	w.image = img
	w.imagePath = path
	w.mu.Unlock()
	w.RequestAll()
}

// Image returns the current image and the path it was loaded from.
func (w *Workspace) Image() (image.Image, string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.image, w.imagePath
}

// SetMask installs a highlight layer; nil disables mask constraints.
func (w *Workspace) SetMask(m imaging.Mask) {
	w.mu.Lock()
	w.mask = m
	w.mu.Unlock()
	w.RequestAll()
}

// Mask returns the current highlight layer, which may be nil.
func (w *Workspace) Mask() imaging.Mask {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.mask
}

// SetCalibration replaces the axis calibration.
func (w *Workspace) SetCalibration(c calibration.Calibration) {
	w.mu.Lock()
	w.cal = c
	w.mu.Unlock()
	w.RequestAll()
}

// Calibration returns the current calibration.
func (w *Workspace) Calibration() calibration.Calibration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cal
}

// SetSettings replaces the global detection settings.
func (w *Workspace) SetSettings(s detection.Settings) {
	w.mu.Lock()
	w.settings = s
	w.mu.Unlock()
	w.RequestAll()
}

// Settings returns the global detection settings.
func (w *Workspace) Settings() detection.Settings {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.settings
}

// Labels returns the ordered label list.
func (w *Workspace) Labels() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.probes.Labels()
}

// Colors returns the label color map.
func (w *Workspace) Colors() map[string]string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.probes.Colors()
}

// EditLabels applies fn to the probe set and schedules a full re-detection
// when it succeeds. Label edits change every probe's result layout.
func (w *Workspace) EditLabels(fn func(*probe.Set) error) error {
	w.mu.Lock()
	err := fn(w.probes)
	w.mu.Unlock()
	if err != nil {
		return err
	}
	w.RequestAll()
	return nil
}

// ProbeOptions are the per-probe overrides. Nil fields are left alone
// unless the matching Clear flag is set.
type ProbeOptions struct {
	Sensitivity      *float64
	BandPx           *int
	ClearSensitivity bool
	ClearBandPx      bool
}

// AddProbe places a probe at data x. The pixel column is derived from the
// calibration along the x-axis line.
func (w *Workspace) AddProbe(xData float64, opts ProbeOptions) (*probe.Probe, error) {
	w.mu.Lock()
	if !w.cal.Calibrated() {
		w.mu.Unlock()
		return nil, probe.ErrUncalibrated
	}
	axisY := w.cal.PixelToData(*w.cal.X1.Pixel).Y
	px := w.cal.DataToPixel(calibration.Point{X: xData, Y: axisY}).X
	p := w.probes.Add(xData, px)
	applyOptions(p, opts)
	out := p.Clone()
	w.mu.Unlock()

	w.Request(out.ID)
	return out, nil
}

// AddProbeAtPixel places a probe at pixel column px. The data x is taken
// where the column crosses the x-axis line; without a calibration it is 0.
func (w *Workspace) AddProbeAtPixel(px float64, opts ProbeOptions) *probe.Probe {
	w.mu.Lock()
	var xData float64
	if w.cal.Calibrated() {
		xData = w.cal.PixelToData(calibration.Point{X: px, Y: w.cal.X1.Pixel.Y}).X
	}
	p := w.probes.Add(xData, px)
	applyOptions(p, opts)
	out := p.Clone()
	w.mu.Unlock()

	w.Request(out.ID)
	return out
}

// GenerateProbes places probes every interval data units across the x range.
func (w *Workspace) GenerateProbes(interval float64) ([]*probe.Probe, error) {
	w.mu.Lock()
	created, err := w.probes.GenerateAtInterval(w.cal, interval)
	out := clones(created)
	w.mu.Unlock()
	if err != nil {
		return nil, err
	}
	for _, p := range out {
		w.Request(p.ID)
	}
	return out, nil
}

// ImportManual creates or updates probes from manual readings. Touched
// probes are re-detected so labels without a manual value get one; a new
// label re-detects everything.
func (w *Workspace) ImportManual(entries []probe.ManualEntry) ([]*probe.Probe, error) {
	w.mu.Lock()
	before := len(w.probes.Labels())
	touched, err := w.probes.ImportManual(w.cal, entries)
	grew := len(w.probes.Labels()) != before
	out := clones(touched)
	w.mu.Unlock()

	if grew {
		w.RequestAll()
		return out, err
	}
	for _, p := range out {
		w.Request(p.ID)
	}
	return out, err
}

// UpdateProbe changes a probe's overrides and re-detects it.
func (w *Workspace) UpdateProbe(id string, opts ProbeOptions) (*probe.Probe, error) {
	w.mu.Lock()
	p, ok := w.probes.Get(id)
	if !ok {
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", probe.ErrUnknownProbe, id)
	}
	applyOptions(p, opts)
	out := p.Clone()
	w.mu.Unlock()

	w.Request(id)
	return out, nil
}

// RemoveProbe deletes a probe and drops any pending detection for it.
func (w *Workspace) RemoveProbe(id string) bool {
	w.mu.Lock()
	ok := w.probes.Remove(id)
	delete(w.results, id)
	w.mu.Unlock()

	w.sched.Cancel(id)
	return ok
}

// Reset removes every probe. Labels, calibration and image are kept.
func (w *Workspace) Reset() {
	w.mu.Lock()
	for _, id := range w.probes.IDs() {
		w.sched.Cancel(id)
	}
	w.probes.Reset()
	w.results = make(map[string]*detection.Result)
	w.mu.Unlock()
}

// SetManual records a manual value for label on a probe.
func (w *Workspace) SetManual(id, label string, y float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.probes.SetManual(id, label, y)
}

// ClearManual removes a manual value and re-detects the probe so the
// automatic value for that label comes back.
func (w *Workspace) ClearManual(id, label string) (bool, error) {
	w.mu.Lock()
	p, ok := w.probes.Get(id)
	if !ok {
		w.mu.Unlock()
		return false, fmt.Errorf("%w: %s", probe.ErrUnknownProbe, id)
	}
	cleared := p.ClearManual(label)
	w.mu.Unlock()

	if cleared {
		w.Request(id)
	}
	return cleared, nil
}

// Probe returns a copy of one probe.
func (w *Workspace) Probe(id string) (*probe.Probe, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.probes.Get(id)
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Probes returns copies of all probes.
func (w *Workspace) Probes() []*probe.Probe {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.probes.Probes()
}

// ProbeCount returns the number of probes and how many of them have been
// detected at least once.
func (w *Workspace) ProbeCount() (total, detected int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, p := range w.probes.Probes() {
		if p.Detected() {
			detected++
		}
	}
	return w.probes.Len(), detected
}

// Series returns the merged data per label.
func (w *Workspace) Series() []probe.Series {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.probes.Series()
}

// Result returns the diagnostics of the last detection run for a probe.
func (w *Workspace) Result(id string) (*detection.Result, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	r, ok := w.results[id]
	return r, ok
}

// Request schedules detection for one probe, replacing any pending request
// for it.
func (w *Workspace) Request(id string) {
	w.sched.Schedule(id, func() { w.detect(id) })
}

// RequestAll schedules one coalesced detection of every probe.
func (w *Workspace) RequestAll() {
	w.sched.ScheduleAll(w.detectAll)
}

// Flush runs the pending detection batch now. It returns the number of
// tasks run.
func (w *Workspace) Flush() int {
	return w.sched.Frame()
}

// Run drains detection requests once per interval until ctx is done.
func (w *Workspace) Run(ctx context.Context, interval time.Duration) error {
	return w.sched.Run(ctx, interval)
}

// SchedulerStats reports scheduler activity.
func (w *Workspace) SchedulerStats() schedule.Stats {
	return w.sched.Stats()
}

// Input builds the detection input for a probe from the current state.
func (w *Workspace) Input(id string) (detection.Input, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.probes.Get(id)
	if !ok {
		return detection.Input{}, false
	}
	return w.inputLocked(p), true
}

// InputAt builds a detection input for an arbitrary column using the global
// settings.
func (w *Workspace) InputAt(px float64) detection.Input {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return detection.Input{
		Image:       w.image,
		Calibration: w.cal,
		PixelX:      px,
		Labels:      w.probes.Labels(),
		Colors:      w.probes.Colors(),
		Mask:        w.mask,
		Settings:    w.settings,
	}
}

func (w *Workspace) inputLocked(p *probe.Probe) detection.Input {
	return detection.Input{
		Image:       w.image,
		Calibration: w.cal,
		PixelX:      p.PixelX,
		Labels:      w.probes.Labels(),
		Colors:      w.probes.Colors(),
		Mask:        w.mask,
		Settings:    p.Resolve(w.settings),
	}
}

func (w *Workspace) detect(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.detectLocked(id)
}

func (w *Workspace) detectAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range w.probes.IDs() {
		w.detectLocked(id)
	}
}

func (w *Workspace) detectLocked(id string) {
	p, ok := w.probes.Get(id)
	if !ok {
		return
	}
	res, ok := detection.Detect(w.inputLocked(p))
	if !ok {
		return
	}
	p.ApplyDetection(res.Values)
	w.results[id] = res
}

func applyOptions(p *probe.Probe, o ProbeOptions) {
	if o.ClearSensitivity {
		p.Sensitivity = nil
	} else if o.Sensitivity != nil {
		s := *o.Sensitivity
		p.Sensitivity = &s
	}
	if o.ClearBandPx {
		p.BandPx = nil
	} else if o.BandPx != nil {
		b := *o.BandPx
		p.BandPx = &b
	}
}

func clones(ps []*probe.Probe) []*probe.Probe {
	out := make([]*probe.Probe, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}
