package detection

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowMask(segH int, rows ...int) RowMask {
	m := make(RowMask, segH)
	for _, r := range rows {
		m[r] = true
	}
	return m
}

func rangeMask(segH, from, to int) RowMask {
	m := make(RowMask, segH)
	for r := from; r <= to; r++ {
		m[r] = true
	}
	return m
}

func TestPick_Tiers(t *testing.T) {
	opts := PickOptions{Sensitivity: 0.6, MinSeparation: 3}

	tests := []struct {
		name  string
		diff  []float64
		segH  int
		masks []RowMask
		want  []Candidate
	}{
		{
			name: "strong peak",
			diff: []float64{0, 0, 10, 100, 10, 0, 0, 0, 0},
			segH: 10,
			want: []Candidate{{Row: 3, Tier: TierStrongPeak}},
		},
		{
			name: "weak peak when the strong one is masked out",
			diff: []float64{0, 0, 10, 100, 10, 0, 5, 0, 0},
			segH: 10,
			masks: []RowMask{rowMask(10, 6)},
			want:  []Candidate{{Row: 6, Tier: TierWeakPeak}},
		},
		{
			name: "strongest row when no masked peak exists",
			diff: []float64{0, 0, 10, 100, 10, 0, 0, 0, 0},
			segH: 10,
			masks: []RowMask{rowMask(10, 4, 8)},
			want:  []Candidate{{Row: 4, Tier: TierStrongest}},
		},
		{
			name: "mask target on a flat signal",
			diff: make([]float64, 19),
			segH: 20,
			masks: []RowMask{rangeMask(20, 14, 16)},
			want:  []Candidate{{Row: 14, Tier: TierMaskTarget}},
		},
		{
			name: "target without mask on a flat signal",
			diff: make([]float64, 19),
			segH: 20,
			want: []Candidate{{Row: 10, Tier: TierTarget}},
		},
		{
			name: "single row span",
			diff: nil,
			segH: 1,
			want: []Candidate{{Row: 0, Tier: TierTarget}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pick(tt.diff, tt.segH, tt.masks, len(tt.want), opts)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Pick mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPick_TwoMaskedLabelsNoSignal(t *testing.T) {
	const segH = 101
	diff := make([]float64, segH-1)
	masks := []RowMask{rangeMask(segH, 10, 20), rangeMask(segH, 60, 70)}

	got := Pick(diff, segH, masks, 2, PickOptions{Sensitivity: 0.6, MinSeparation: 3})
	require.Len(t, got, 2)
	assert.Equal(t, Candidate{Row: 20, Tier: TierMaskTarget}, got[0])
	assert.Equal(t, Candidate{Row: 70, Tier: TierMaskTarget}, got[1])
}

func TestPick_SeparationAcrossLabels(t *testing.T) {
	// Three adjacent strong rows and one distant one.
	diff := make([]float64, 60)
	diff[20], diff[21], diff[22] = 100, 100, 100
	diff[45] = 90

	got := Pick(diff, 61, nil, 3, PickOptions{Sensitivity: 0.6, MinSeparation: 3})
	require.Len(t, got, 3)
	for i := range got {
		for j := i + 1; j < len(got); j++ {
			assert.GreaterOrEqual(t, abs(got[i].Row-got[j].Row), 3, "labels %d and %d", i, j)
		}
	}
	assert.Equal(t, Candidate{Row: 20, Tier: TierStrongPeak}, got[0])
}

func TestPick_CrowdedSpan(t *testing.T) {
	// Four labels in a four-row span cannot all be separated; every label
	// still gets a distinct row.
	got := Pick([]float64{0, 0, 0}, 4, nil, 4, PickOptions{Sensitivity: 0.6, MinSeparation: 3})
	require.Len(t, got, 4)

	seen := map[int]bool{}
	for _, c := range got {
		assert.False(t, seen[c.Row], "row %d picked twice", c.Row)
		assert.GreaterOrEqual(t, c.Row, 0)
		assert.Less(t, c.Row, 4)
		seen[c.Row] = true
	}
}

func TestPick_MoreLabelsThanRows(t *testing.T) {
	got := Pick([]float64{0}, 2, nil, 3, PickOptions{MinSeparation: 3})
	require.Len(t, got, 3)
	assert.Equal(t, TierLastResort, got[2].Tier)
	assert.Equal(t, 1, got[2].Row)
}

func TestPick_Empty(t *testing.T) {
	assert.Nil(t, Pick([]float64{1, 2}, 3, nil, 0, PickOptions{}))
	assert.Nil(t, Pick(nil, 0, nil, 2, PickOptions{}))
}

func TestPick_OrderGivesPriority(t *testing.T) {
	diff := make([]float64, 40)
	diff[10] = 50
	diff[30] = 100

	got := Pick(diff, 41, nil, 2, PickOptions{Sensitivity: 1, MinSeparation: 3})
	assert.Equal(t, []Candidate{{Row: 30, Tier: TierStrongPeak}, {Row: 10, Tier: TierStrongPeak}}, got)
}

func TestTargetRow(t *testing.T) {
	assert.Equal(t, 25, targetRow(0, 2, 101))
	assert.Equal(t, 76, targetRow(1, 2, 101))
	assert.Equal(t, 0, targetRow(0, 5, 1))
	assert.Equal(t, 0, targetRow(4, 5, 1))
}

func TestTier_String(t *testing.T) {
	assert.Equal(t, "strong_peak", TierStrongPeak.String())
	assert.Equal(t, "last_resort", TierLastResort.String())
	assert.Equal(t, "tier(42)", Tier(42).String())

	text, err := TierMaskTarget.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "mask_target", string(text))
}

func TestRowMask(t *testing.T) {
	var unconstrained RowMask
	assert.True(t, unconstrained.Allows(5))
	assert.False(t, unconstrained.Constrained())

	m := rowMask(5, 2)
	assert.True(t, m.Constrained())
	assert.True(t, m.Allows(2))
	assert.False(t, m.Allows(1))
	assert.False(t, m.Allows(-1))
	assert.False(t, m.Allows(5))
}
