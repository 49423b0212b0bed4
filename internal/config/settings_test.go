package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RBFZ/CurveQuant/internal/detection"
)

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

func TestSettings_Defaults(t *testing.T) {
	s := &Settings{}
	assert.Equal(t, detection.DefaultSettings(), s.Detection())
	assert.Equal(t, 16*time.Millisecond, s.GetFrameInterval())
	assert.Equal(t, 0.0, s.GetSmoothSigma())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	body := `{
  "sensitivity": 0.8,
  "band_px": 4,
  "smooth_sigma": 1.5,
  "frame_interval": "33ms",
  "strategy": "simple"
}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	s, err := Load(path)
	require.NoError(t, err)

	d := s.Detection()
	assert.Equal(t, 0.8, d.Sensitivity)
	assert.Equal(t, 4, d.BandPx)
	assert.Equal(t, 1.5, d.SmoothSigma)
	assert.Equal(t, detection.StrategySimple, d.Strategy)
	assert.Equal(t, detection.DefaultMinSeparation, d.MinSeparation)
	assert.Equal(t, 33*time.Millisecond, s.GetFrameInterval())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("extension", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "settings.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), ".json extension")
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("too large", func(t *testing.T) {
		path := filepath.Join(dir, "big.json")
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat(" ", maxFileSize+1)), 0644))
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})

	t.Run("bad json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		wantErr string
	}{
		{"empty", Settings{}, ""},
		{"sensitivity high", Settings{Sensitivity: ptrFloat64(1.2)}, "sensitivity"},
		{"sensitivity low", Settings{Sensitivity: ptrFloat64(-0.1)}, "sensitivity"},
		{"band", Settings{BandPx: ptrInt(-1)}, "band_px"},
		{"separation", Settings{MinSeparation: ptrInt(-3)}, "min_separation"},
		{"tolerance zero", Settings{MaskTolerance: ptrFloat64(0)}, "mask_tolerance"},
		{"tolerance high", Settings{MaskTolerance: ptrFloat64(2)}, "mask_tolerance"},
		{"smooth", Settings{SmoothSigma: ptrFloat64(-1)}, "smooth_sigma"},
		{"refine", Settings{RefineRadius: ptrInt(-1)}, "refine_radius"},
		{"interval", Settings{FrameInterval: ptrString("soon")}, "frame_interval"},
		{"interval negative", Settings{FrameInterval: ptrString("-5ms")}, "frame_interval"},
		{"strategy", Settings{Strategy: ptrString("magic")}, "strategy"},
		{"valid", Settings{Sensitivity: ptrFloat64(1), Strategy: ptrString("labels"), FrameInterval: ptrString("8ms")}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMerge(t *testing.T) {
	base := &Settings{Sensitivity: ptrFloat64(0.2), BandPx: ptrInt(1)}
	base.Merge(&Settings{BandPx: ptrInt(6), Strategy: ptrString("simple")})
	base.Merge(nil)

	assert.Equal(t, 0.2, base.GetSensitivity())
	assert.Equal(t, 6, base.GetBandPx())
	assert.Equal(t, detection.StrategySimple, base.GetStrategy())
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvPath, "")
	s, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, &Settings{}, s)

	path := filepath.Join(t.TempDir(), "env.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"min_separation": 5}`), 0644))
	t.Setenv(EnvPath, path)
	s, err = FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 5, s.GetMinSeparation())
}
