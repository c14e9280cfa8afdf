// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"math/rand"
	"time"

	"github.com/relabs-tech/fall_detector/internal/imu"
)

type mockSource struct {
	start      time.Time
	fallPeriod time.Duration
}

// NewMockSource creates a synthetic IMU source for development without
// hardware: quiet ADL motion with a short fall-like transient (impact
// plus rapid rotation) every fallPeriod. Pass 0 to disable the transient.
func NewMockSource(fallPeriod time.Duration) imu.Source {
	return &mockSource{start: time.Now(), fallPeriod: fallPeriod}
}

func (m *mockSource) Next() (imu.Sample, error) {
	now := time.Now()
	elapsed := now.Sub(m.start).Seconds()

	// Baseline: upright, gravity on Z, small sway and sensor noise.
	s := imu.Sample{
		Time: now,
		Ax:   0.05*math.Sin(elapsed) + rand.Float64()*0.01,
		Ay:   0.03*math.Cos(elapsed*0.7) + rand.Float64()*0.01,
		Az:   1.0 + rand.Float64()*0.02,
		Gx:   4*math.Sin(elapsed*0.5) + rand.Float64(),
		Gy:   3*math.Cos(elapsed*0.3) + rand.Float64(),
		Gz:   rand.Float64() * 2,
	}

	if m.fallPeriod > 0 {
		// 300 ms transient at the start of each period.
		into := math.Mod(elapsed, m.fallPeriod.Seconds())
		if into < 0.3 {
			burst := math.Sin(into / 0.3 * math.Pi)
			s.Ax += 1.6 * burst
			s.Az += 1.2 * burst
			s.Gx += 320 * burst
			s.Gy += 180 * burst
		}
	}

	return s, nil
}
