package detector

import "time"

// Event is one confirmed fall.
type Event struct {
	Time      time.Time `json:"time"`
	Score     float64   `json:"score"`      // mean score over the confirm window
	PeakScore float64   `json:"peak_score"` // highest score in the window
	ImpactG   float64   `json:"impact_g"`   // acceleration peak in the window, g
	OmegaPeak float64   `json:"omega_peak"` // angular speed peak in the window, deg/s
}

// Result is the per-sample outcome of the scoring pipeline.
type Result struct {
	Time     time.Time `json:"time"`
	AccelMag float64   `json:"a_mag"` // g
	GyroMag  float64   `json:"w_mag"` // deg/s
	Score    float64   `json:"score"`
	Active   bool      `json:"active"` // hysteresis state
}
