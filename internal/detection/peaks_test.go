package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThreshold(t *testing.T) {
	assert.InDelta(t, 85.0, Threshold(100, 0), 1e-9)
	assert.InDelta(t, 15.0, Threshold(100, 1), 1e-9)
	assert.InDelta(t, 43.0, Threshold(100, 0.6), 1e-9)
	assert.Equal(t, Threshold(100, 1), Threshold(100, 7))
	assert.Equal(t, Threshold(100, 0), Threshold(100, -2))
	assert.Zero(t, Threshold(0, 0.5))
}

func TestThreshold_Monotonic(t *testing.T) {
	prev := Threshold(200, 0)
	for s := 0.05; s <= 1.0; s += 0.05 {
		cur := Threshold(200, s)
		assert.LessOrEqual(t, cur, prev, "sensitivity %.2f", s)
		prev = cur
	}
}

func TestLocalMaxima(t *testing.T) {
	tests := []struct {
		name string
		diff []float64
		want []int
	}{
		{"empty", nil, nil},
		{"flat", []float64{0, 0, 0}, nil},
		{"single peak", []float64{0, 3, 1}, []int{1}},
		{"plateau", []float64{0, 4, 4, 0}, []int{1, 2}},
		{"edges", []float64{5, 1, 1, 6}, []int{0, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, localMaxima(tt.diff))
		})
	}
}

func TestByStrength(t *testing.T) {
	diff := []float64{1, 9, 4, 9, 2}
	assert.Equal(t, []int{1, 3, 2, 4, 0}, byStrength(diff, []int{0, 1, 2, 3, 4}))
}

func TestStrongestRows(t *testing.T) {
	diff := []float64{0, 2, 0, 7, 1}
	assert.Equal(t, []int{3, 1, 4}, strongestRows(diff))
	assert.Nil(t, strongestRows(nil))
	assert.Empty(t, strongestRows([]float64{0, 0}))
}

func TestRefineDarkest(t *testing.T) {
	values := []float64{200, 180, 40, 10, 90, 250}
	assert.Equal(t, 3, refineDarkest(values, 1, 2))
	assert.Equal(t, 1, refineDarkest(values, 1, 0))
	assert.Equal(t, 3, refineDarkest(values, 5, 3))
	// Equal values keep the closer row.
	assert.Equal(t, 2, refineDarkest([]float64{0, 5, 0, 5, 0}, 2, 2))
}
