package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTilt(t *testing.T) {
	// Flat on the back: gravity fully on Z.
	assert.InDelta(t, 0.0, Tilt(0, 0, 1), 0.01)
	assert.InDelta(t, 0.0, Tilt(0, 0, -1), 0.01)

	// Horizontal: gravity fully on X or Y.
	assert.InDelta(t, 90.0, Tilt(1, 0, 0), 0.01)
	assert.InDelta(t, 90.0, Tilt(0, 1, 0), 0.01)

	// 45 degrees.
	assert.InDelta(t, 45.0, Tilt(1, 0, 1), 0.01)
}

func TestEstimateRate(t *testing.T) {
	var ts []float64
	for i := 0; i < 100; i++ {
		ts = append(ts, float64(i)*0.02) // 50 Hz
	}
	assert.InDelta(t, 50.0, EstimateRate(ts, 100), 0.1)

	// Degenerate timestamps fall back.
	assert.Equal(t, 100.0, EstimateRate([]float64{1, 1, 1}, 100))
	assert.Equal(t, 100.0, EstimateRate(nil, 100))
}

// syntheticSeries builds 4 s at 50 Hz: quiet lying flat, with a 1 s FALL
// segment in the middle where impact and rotation spike.
func syntheticSeries() *Series {
	s := &Series{}
	fs := 50.0
	for i := 0; i < 200; i++ {
		ti := float64(i) / fs
		s.T = append(s.T, ti)

		label := "ADL"
		ax, ay, az := 0.0, 0.0, 1.0
		gx, gy, gz := 2.0, 1.0, 0.5
		if ti >= 1.5 && ti < 2.5 {
			label = "FALL"
			ax, az = 2.0, 0.5
			gx = 300.0
		}
		s.Ax = append(s.Ax, ax)
		s.Ay = append(s.Ay, ay)
		s.Az = append(s.Az, az)
		s.Gx = append(s.Gx, gx)
		s.Gy = append(s.Gy, gy)
		s.Gz = append(s.Gz, gz)
		s.Label = append(s.Label, label)
	}
	return s
}

func TestComputeWindows(t *testing.T) {
	s := syntheticSeries()
	feats := ComputeWindows(s, 1.0, 0.5, 50.0)
	require.NotEmpty(t, feats)

	var sawFall, sawADL bool
	for _, wf := range feats {
		switch wf.Label {
		case "FALL":
			sawFall = true
			assert.Greater(t, wf.ImpactG, 1.5, "fall window must capture the impact peak")
			assert.Greater(t, wf.OmegaPeak, 250.0)
		case "ADL":
			sawADL = true
		}
	}
	assert.True(t, sawFall, "expected at least one FALL window")
	assert.True(t, sawADL, "expected at least one ADL window")

	// Windows must be ordered and non-degenerate.
	for i := 1; i < len(feats); i++ {
		assert.Greater(t, feats[i].TStart, feats[i-1].TStart)
	}
}

func TestComputeWindowsEmpty(t *testing.T) {
	assert.Nil(t, ComputeWindows(&Series{}, 1.0, 0.5, 50.0))
}

func TestComputeWindowsShortSeries(t *testing.T) {
	// Fewer samples than one window: no output, no panic.
	s := &Series{
		T:  []float64{0, 0.02},
		Ax: []float64{0, 0}, Ay: []float64{0, 0}, Az: []float64{1, 1},
		Gx: []float64{0, 0}, Gy: []float64{0, 0}, Gz: []float64{0, 0},
	}
	assert.Empty(t, ComputeWindows(s, 1.0, 0.5, 50.0))
}

func TestMajorityLabel(t *testing.T) {
	assert.Equal(t, "ADL", majorityLabel([]string{"ADL", "ADL", "FALL"}))
	assert.Equal(t, "FALL", majorityLabel([]string{"FALL", "FALL", "ADL"}))
	assert.Equal(t, "NONE", majorityLabel([]string{"NONE", "NONE"}))

	// NONE loses to a real label even when it is more frequent.
	assert.Equal(t, "FALL", majorityLabel([]string{"NONE", "NONE", "NONE", "FALL"}))
}

func TestTiltDeltaSignOnRollover(t *testing.T) {
	// Upright to horizontal within one window.
	s := &Series{}
	for i := 0; i < 50; i++ {
		frac := float64(i) / 49.0
		ang := frac * math.Pi / 2
		s.T = append(s.T, float64(i)*0.02)
		s.Ax = append(s.Ax, math.Sin(ang))
		s.Ay = append(s.Ay, 0)
		s.Az = append(s.Az, math.Cos(ang))
		s.Gx = append(s.Gx, 0)
		s.Gy = append(s.Gy, 0)
		s.Gz = append(s.Gz, 0)
	}
	feats := ComputeWindows(s, 1.0, 1.0, 50.0)
	require.Len(t, feats, 1)
	assert.InDelta(t, 90.0, feats[0].TiltDelta, 1.0)
}
