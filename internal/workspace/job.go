package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RBFZ/CurveQuant/internal/calibration"
	"github.com/RBFZ/CurveQuant/internal/config"
	"github.com/RBFZ/CurveQuant/internal/imaging"
	"github.com/RBFZ/CurveQuant/internal/probe"
)

const maxJobSize = 1 * 1024 * 1024 // 1MB

// Job describes a complete digitizing run: the chart, its calibration, the
// curve labels and where to probe.
type Job struct {
	Image       string                  `json:"image"`
	Mask        string                  `json:"mask,omitempty"`
	Calibration calibration.Calibration `json:"calibration"`
	Labels      []string                `json:"labels"`
	Colors      map[string]string       `json:"colors,omitempty"`

	// Probes lists data x values to probe. Interval, when positive, adds a
	// probe every Interval units across the x range as well.
	Probes   []float64           `json:"probes,omitempty"`
	Interval float64             `json:"interval,omitempty"`
	Manual   []probe.ManualEntry `json:"manual,omitempty"`

	Settings *config.Settings `json:"settings,omitempty"`
}

// LoadJob reads a job file. Relative image and mask paths are resolved
// against the job file's directory.
func LoadJob(path string) (*Job, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("job file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat job file: %w", err)
	}
	if info.Size() > maxJobSize {
		return nil, fmt.Errorf("job file too large: %d bytes (max %d)", info.Size(), maxJobSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("failed to parse job JSON: %w", err)
	}

	dir := filepath.Dir(cleanPath)
	for _, p := range []*string{&j.Image, &j.Mask} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return &j, nil
}

// Build loads the job's images through cache and returns a workspace with
// every probe queued for detection. Call Flush to run it.
func (j *Job) Build(cache *imaging.ImageCache) (*Workspace, error) {
	settings := j.Settings
	if settings == nil {
		settings = &config.Settings{}
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if j.Image == "" {
		return nil, ErrNoImage
	}
	if !j.Calibration.Calibrated() {
		return nil, probe.ErrUncalibrated
	}

	img, err := cache.Load(j.Image)
	if err != nil {
		return nil, err
	}
	w := New(settings.Detection())
	w.SetImage(img, j.Image)
	w.SetCalibration(j.Calibration)

	if j.Mask != "" {
		m, err := cache.Load(j.Mask)
		if err != nil {
			return nil, fmt.Errorf("failed to load mask: %w", err)
		}
		if m.Bounds().Size() != img.Bounds().Size() {
			return nil, fmt.Errorf("mask size %v does not match image size %v", m.Bounds().Size(), img.Bounds().Size())
		}
		w.SetMask(imaging.NewImageMask(m))
	}

	err = w.EditLabels(func(s *probe.Set) error {
		if err := s.SetLabels(j.Labels); err != nil {
			return err
		}
		for label, hex := range j.Colors {
			if err := s.SetColor(label, hex); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, x := range j.Probes {
		if _, err := w.AddProbe(x, ProbeOptions{}); err != nil {
			return nil, err
		}
	}
	if j.Interval > 0 {
		if _, err := w.GenerateProbes(j.Interval); err != nil {
			return nil, err
		}
	}
	if len(j.Manual) > 0 {
		if _, err := w.ImportManual(j.Manual); err != nil {
			return nil, err
		}
	}
	return w, nil
}
