package workspace

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RBFZ/CurveQuant/internal/imaging"
	"github.com/RBFZ/CurveQuant/internal/probe"
)

func writeJobImage(t *testing.T, dir, name string, img image.Image) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

const testJob = `{
  "image": "chart.png",
  "calibration": {
    "x1": {"pixel": {"x": 0, "y": 100}, "value": 0},
    "x2": {"pixel": {"x": 100, "y": 100}, "value": 100},
    "y1": {"pixel": {"x": 0, "y": 100}, "value": 0},
    "y2": {"pixel": {"x": 0, "y": 0}, "value": 100}
  },
  "labels": ["low", "high"],
  "colors": {"low": "#ff0000"},
  "probes": [10],
  "interval": 50,
  "manual": [{"x": 10, "label": "high", "y": 99}],
  "settings": {"sensitivity": 0.6}
}`

func TestLoadJob(t *testing.T) {
	dir := t.TempDir()
	writeJobImage(t, dir, "chart.png", chart(20, 70))
	path := filepath.Join(dir, "job.json")
	require.NoError(t, os.WriteFile(path, []byte(testJob), 0o600))

	j, err := LoadJob(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chart.png"), j.Image)
	assert.Empty(t, j.Mask)
	assert.True(t, j.Calibration.Calibrated())
	assert.Equal(t, []float64{10}, j.Probes)

	w, err := j.Build(imaging.NewImageCache())
	require.NoError(t, err)
	assert.Equal(t, 0.6, w.Settings().Sensitivity)
	assert.Equal(t, []string{"low", "high"}, w.Labels())
	w.Flush()

	// x=10 from the list, then 0, 50, 100 from the interval.
	ps := w.Probes()
	require.Len(t, ps, 4)
	first := ps[0]
	assert.Equal(t, 99.0, first.Manual["high"])
	merged := first.Merged(w.Labels())
	require.NotNil(t, merged[0])
	assert.InDelta(t, 30, *merged[0], 1.5)
	assert.Equal(t, 99.0, *merged[1])

	for _, p := range ps[1:] {
		m := p.Merged(w.Labels())
		require.NotNil(t, m[0])
		require.NotNil(t, m[1])
		assert.InDelta(t, 30, *m[0], 1.5)
		assert.InDelta(t, 80, *m[1], 1.5)
	}
}

func TestLoadJob_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadJob(filepath.Join(dir, "job.yaml"))
	assert.Error(t, err)

	_, err = LoadJob(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadJob(bad)
	assert.Error(t, err)
}

func TestJob_BuildErrors(t *testing.T) {
	dir := t.TempDir()
	writeJobImage(t, dir, "chart.png", chart(40))
	writeJobImage(t, dir, "small.png", image.NewNRGBA(image.Rect(0, 0, 5, 5)))
	cache := imaging.NewImageCache()

	_, err := (&Job{Calibration: chartCalibration(), Labels: []string{"a"}}).Build(cache)
	assert.ErrorIs(t, err, ErrNoImage)

	_, err = (&Job{Image: filepath.Join(dir, "chart.png")}).Build(cache)
	assert.ErrorIs(t, err, probe.ErrUncalibrated)

	_, err = (&Job{
		Image:       filepath.Join(dir, "chart.png"),
		Mask:        filepath.Join(dir, "small.png"),
		Calibration: chartCalibration(),
	}).Build(cache)
	assert.ErrorContains(t, err, "does not match")

	_, err = (&Job{
		Image:       filepath.Join(dir, "chart.png"),
		Calibration: chartCalibration(),
		Labels:      []string{"a", "a"},
	}).Build(cache)
	assert.ErrorIs(t, err, probe.ErrDuplicate)
}
