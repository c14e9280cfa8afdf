// Package features reduces raw IMU channels to the scalar features the
// fall detector and the offline analyzer work with: magnitudes, trunk
// tilt, and windowed peak/delta features over labeled or unlabeled streams.
package features

import (
	"math"
	"sort"
)

// Tilt returns the trunk tilt relative to the gravity axis in degrees:
// 0° upright, ~90° horizontal. Uses only the accelerometer, clamped to
// [0,180].
func Tilt(ax, ay, az float64) float64 {
	horiz := math.Sqrt(ax*ax + ay*ay)
	ang := math.Atan2(horiz, math.Abs(az)+1e-9) * 180.0 / math.Pi
	return math.Max(0, math.Min(180, ang))
}

// Series holds a parsed IMU stream as parallel columns. Label may be
// empty for unlabeled streams.
type Series struct {
	T      []float64 // seconds
	Ax, Ay []float64 // g
	Az     []float64
	Gx, Gy []float64 // deg/s
	Gz     []float64
	Label  []string
}

// Len returns the number of usable rows (shortest column).
func (s *Series) Len() int {
	n := len(s.T)
	for _, col := range [][]float64{s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz} {
		if len(col) < n {
			n = len(col)
		}
	}
	return n
}

// EstimateRate estimates the sampling rate in Hz from the median positive
// time delta, falling back to defaultFs when the stream is too short or
// the timestamps are degenerate.
func EstimateRate(t []float64, defaultFs float64) float64 {
	var dts []float64
	for i := 1; i < len(t); i++ {
		if d := t[i] - t[i-1]; d > 0 {
			dts = append(dts, d)
		}
	}
	if len(dts) == 0 {
		return defaultFs
	}
	med := median(dts)
	if med <= 0 {
		return defaultFs
	}
	return 1.0 / med
}

func median(vs []float64) float64 {
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return 0.5 * (sorted[mid-1] + sorted[mid])
}

// WindowFeatures are the per-window scalars used to characterize ADL vs
// FALL segments.
type WindowFeatures struct {
	TStart    float64 `json:"t_start"`
	TEnd      float64 `json:"t_end"`
	ImpactG   float64 `json:"impact_g"`   // max |a| in window, g
	OmegaPeak float64 `json:"omega_peak"` // max |ω| in window, deg/s
	TiltMean  float64 `json:"tilt_mean"`  // mean tilt, deg
	TiltDelta float64 `json:"tilt_delta"` // tilt(end) - tilt(start), deg
	Label     string  `json:"label"`
}

// ComputeWindows slices the series into windows of winS seconds with hopS
// second hops and computes features per window. The window label is the
// majority label, ignoring NONE when the window is mixed.
func ComputeWindows(s *Series, winS, hopS, defaultFs float64) []WindowFeatures {
	n := s.Len()
	if n == 0 {
		return nil
	}

	fs := EstimateRate(s.T[:n], defaultFs)
	winN := int(math.Round(winS * fs))
	if winN < 1 {
		winN = 1
	}
	hopN := int(math.Round(hopS * fs))
	if hopN < 1 {
		hopN = 1
	}

	aMag := make([]float64, n)
	wMag := make([]float64, n)
	tilt := make([]float64, n)
	for i := 0; i < n; i++ {
		aMag[i] = math.Sqrt(s.Ax[i]*s.Ax[i] + s.Ay[i]*s.Ay[i] + s.Az[i]*s.Az[i])
		wMag[i] = math.Sqrt(s.Gx[i]*s.Gx[i] + s.Gy[i]*s.Gy[i] + s.Gz[i]*s.Gz[i])
		tilt[i] = Tilt(s.Ax[i], s.Ay[i], s.Az[i])
	}

	var out []WindowFeatures
	for i := 0; i+winN <= n; i += hopN {
		j := i + winN

		impact, omega := 0.0, 0.0
		tiltSum := 0.0
		for k := i; k < j; k++ {
			if aMag[k] > impact {
				impact = aMag[k]
			}
			if wMag[k] > omega {
				omega = wMag[k]
			}
			tiltSum += tilt[k]
		}

		wf := WindowFeatures{
			TStart:    s.T[i],
			TEnd:      s.T[j-1],
			ImpactG:   impact,
			OmegaPeak: omega,
			TiltMean:  tiltSum / float64(winN),
			TiltDelta: tilt[j-1] - tilt[i],
		}
		if len(s.Label) >= n {
			wf.Label = majorityLabel(s.Label[i:j])
		}
		out = append(out, wf)
	}
	return out
}

// majorityLabel picks the most frequent label, dropping NONE from
// consideration when the window contains a real label too.
func majorityLabel(labels []string) string {
	counts := make(map[string]int)
	for _, l := range labels {
		counts[l]++
	}
	if len(counts) > 1 {
		delete(counts, "NONE")
	}
	best, bestN := "NONE", 0
	for l, c := range counts {
		if c > bestN || (c == bestN && l < best) {
			best, bestN = l, c
		}
	}
	return best
}
