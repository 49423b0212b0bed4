// Package config loads detection settings from a JSON file.
//
// Every field is optional. Omitted fields fall back to built-in defaults
// through the Get* accessors, so a partial file is always safe.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/RBFZ/CurveQuant/internal/detection"
	"github.com/RBFZ/CurveQuant/internal/schedule"
)

// EnvPath names the environment variable holding the settings file path.
const EnvPath = "CURVEQUANT_CONFIG"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Settings mirrors detection.Settings plus the scheduler frame interval.
type Settings struct {
	Sensitivity   *float64 `json:"sensitivity,omitempty"`
	BandPx        *int     `json:"band_px,omitempty"`
	MinSeparation *int     `json:"min_separation,omitempty"`
	MaskTolerance *float64 `json:"mask_tolerance,omitempty"`
	SmoothSigma   *float64 `json:"smooth_sigma,omitempty"`
	RefineRadius  *int     `json:"refine_radius,omitempty"`
	FrameInterval *string  `json:"frame_interval,omitempty"` // duration string like "16ms"
	Strategy      *string  `json:"strategy,omitempty"`       // "labels" or "simple"
}

// Load reads and validates a settings file. The path must end in .json and
// the file must be at most 1MB.
func Load(path string) (*Settings, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates settings JSON.
func Parse(data []byte) (*Settings, error) {
	s := &Settings{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

// FromEnv loads the file named by CURVEQUANT_CONFIG, or returns empty
// settings when the variable is unset.
func FromEnv() (*Settings, error) {
	path := os.Getenv(EnvPath)
	if path == "" {
		return &Settings{}, nil
	}
	return Load(path)
}

// Validate checks the ranges of every field that is set.
func (s *Settings) Validate() error {
	if s.Sensitivity != nil {
		if v := *s.Sensitivity; math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("sensitivity must be between 0 and 1, got %f", v)
		}
	}
	if s.BandPx != nil && (*s.BandPx < 0 || *s.BandPx > 500) {
		return fmt.Errorf("band_px must be between 0 and 500, got %d", *s.BandPx)
	}
	if s.MinSeparation != nil && *s.MinSeparation < 0 {
		return fmt.Errorf("min_separation must be non-negative, got %d", *s.MinSeparation)
	}
	if s.MaskTolerance != nil {
		if v := *s.MaskTolerance; !(v > 0) || v > math.Sqrt(3) {
			return fmt.Errorf("mask_tolerance must be in (0, %.3f], got %f", math.Sqrt(3), v)
		}
	}
	if s.SmoothSigma != nil {
		if v := *s.SmoothSigma; math.IsNaN(v) || v < 0 || v > 50 {
			return fmt.Errorf("smooth_sigma must be between 0 and 50, got %f", v)
		}
	}
	if s.RefineRadius != nil && *s.RefineRadius < 0 {
		return fmt.Errorf("refine_radius must be non-negative, got %d", *s.RefineRadius)
	}
	if s.FrameInterval != nil && *s.FrameInterval != "" {
		d, err := time.ParseDuration(*s.FrameInterval)
		if err != nil {
			return fmt.Errorf("invalid frame_interval '%s': %w", *s.FrameInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("frame_interval must be positive, got %s", d)
		}
	}
	if s.Strategy != nil {
		switch detection.Strategy(*s.Strategy) {
		case detection.StrategyLabels, detection.StrategySimple:
		default:
			return fmt.Errorf("strategy must be %q or %q, got %q", detection.StrategyLabels, detection.StrategySimple, *s.Strategy)
		}
	}
	return nil
}

// Merge overlays every field set in o onto s.
func (s *Settings) Merge(o *Settings) {
	if o == nil {
		return
	}
	if o.Sensitivity != nil {
		s.Sensitivity = o.Sensitivity
	}
	if o.BandPx != nil {
		s.BandPx = o.BandPx
	}
	if o.MinSeparation != nil {
		s.MinSeparation = o.MinSeparation
	}
	if o.MaskTolerance != nil {
		s.MaskTolerance = o.MaskTolerance
	}
	if o.SmoothSigma != nil {
		s.SmoothSigma = o.SmoothSigma
	}
	if o.RefineRadius != nil {
		s.RefineRadius = o.RefineRadius
	}
	if o.FrameInterval != nil {
		s.FrameInterval = o.FrameInterval
	}
	if o.Strategy != nil {
		s.Strategy = o.Strategy
	}
}

// GetSensitivity returns the sensitivity or the default.
func (s *Settings) GetSensitivity() float64 {
	if s.Sensitivity == nil {
		return detection.DefaultSensitivity
	}
	return *s.Sensitivity
}

// GetBandPx returns the band half-width or the default.
func (s *Settings) GetBandPx() int {
	if s.BandPx == nil {
		return detection.DefaultBandPx
	}
	return *s.BandPx
}

// GetMinSeparation returns the minimum row separation or the default.
func (s *Settings) GetMinSeparation() int {
	if s.MinSeparation == nil {
		return detection.DefaultMinSeparation
	}
	return *s.MinSeparation
}

// GetMaskTolerance returns the mask color tolerance or the default.
func (s *Settings) GetMaskTolerance() float64 {
	if s.MaskTolerance == nil {
		return detection.DefaultMaskTolerance
	}
	return *s.MaskTolerance
}

// GetSmoothSigma returns the pre-blur radius, 0 when unset.
func (s *Settings) GetSmoothSigma() float64 {
	if s.SmoothSigma == nil {
		return 0
	}
	return *s.SmoothSigma
}

// GetRefineRadius returns the refinement radius or the default.
func (s *Settings) GetRefineRadius() int {
	if s.RefineRadius == nil {
		return detection.DefaultRefineRadius
	}
	return *s.RefineRadius
}

// GetFrameInterval parses the frame interval, falling back to
// schedule.DefaultInterval.
func (s *Settings) GetFrameInterval() time.Duration {
	if s.FrameInterval == nil || *s.FrameInterval == "" {
		return schedule.DefaultInterval
	}
	d, err := time.ParseDuration(*s.FrameInterval)
	if err != nil || d <= 0 {
		return schedule.DefaultInterval
	}
	return d
}

// GetStrategy returns the picker strategy or the default.
func (s *Settings) GetStrategy() detection.Strategy {
	if s.Strategy == nil || *s.Strategy == "" {
		return detection.StrategyLabels
	}
	return detection.Strategy(*s.Strategy)
}

// Detection resolves the settings into the engine's parameter struct.
func (s *Settings) Detection() detection.Settings {
	return detection.Settings{
		Sensitivity:   s.GetSensitivity(),
		BandPx:        s.GetBandPx(),
		MinSeparation: s.GetMinSeparation(),
		MaskTolerance: s.GetMaskTolerance(),
		SmoothSigma:   s.GetSmoothSigma(),
		RefineRadius:  s.GetRefineRadius(),
		Strategy:      s.GetStrategy(),
	}
}
