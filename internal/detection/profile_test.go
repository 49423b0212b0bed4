package detection

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProfile(t *testing.T) {
	img := createChart(5)

	p := BuildProfile(img, 10, 0, 9, 2, 0)
	require.Equal(t, 10, p.Height())
	require.Len(t, p.Diff, 9)
	assert.Equal(t, 5, p.Columns)

	assert.InDelta(t, 255, p.Values[0], 0.01)
	assert.InDelta(t, 0, p.Values[5], 0.01)
	assert.InDelta(t, 255, p.Diff[4], 0.01)
	assert.InDelta(t, 255, p.Diff[5], 0.01)
	assert.InDelta(t, 0, p.Diff[0], 0.01)
	assert.InDelta(t, 255, p.MaxDiff(), 0.01)
}

func TestBuildProfile_PartialBand(t *testing.T) {
	// Left half black, right half white; a band straddling the image edge
	// averages only the columns that exist.
	img := image.NewRGBA(image.Rect(0, 0, 4, 6))
	for y := 0; y < 6; y++ {
		img.Set(0, y, color.RGBA{0, 0, 0, 255})
		img.Set(1, y, color.RGBA{0, 0, 0, 255})
		img.Set(2, y, color.RGBA{255, 255, 255, 255})
		img.Set(3, y, color.RGBA{255, 255, 255, 255})
	}

	p := BuildProfile(img, 0, 0, 5, 2, 0)
	assert.Equal(t, 3, p.Columns)
	for _, v := range p.Values {
		assert.InDelta(t, 85, v, 0.01)
	}
}

func TestBuildProfile_EmptySpan(t *testing.T) {
	p := BuildProfile(createChart(), 10, 8, 7, 2, 0)
	assert.Zero(t, p.Height())
	assert.Empty(t, p.Diff)
	assert.Zero(t, p.MaxDiff())
}

func TestBuildProfile_ColumnOutsideImage(t *testing.T) {
	p := BuildProfile(createChart(5), 500, 0, 9, 2, 0)
	assert.Equal(t, 10, p.Height())
	assert.Zero(t, p.Columns)
	assert.Zero(t, p.MaxDiff())
}

func TestBuildProfile_Smoothing(t *testing.T) {
	img := createChart(20)
	sharp := BuildProfile(img, 10, 0, 40, 2, 0)
	soft := BuildProfile(img, 10, 0, 40, 2, 2)

	assert.Less(t, soft.MaxDiff(), sharp.MaxDiff())
	assert.Greater(t, soft.Values[20], sharp.Values[20])
}
