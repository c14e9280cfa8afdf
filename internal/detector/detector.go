// Package detector turns the per-sample fuzzy fall score into confirmed
// fall events. The fuzzy score alone is too twitchy to alert on; the
// application-level rule is: FALL when the mean score over the confirm
// window (default 200 ms) reaches the activation threshold AND the same
// window saw a real impact (acceleration peak above a floor). A two-level
// hysteresis keeps the "active" state from chattering around the
// threshold, and a refractory period spaces out events.
package detector

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/relabs-tech/fall_detector/internal/fuzzy"
	"github.com/relabs-tech/fall_detector/internal/imu"
)

var (
	samplesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fall_detector_samples_total",
		Help: "IMU samples scored",
	})
	fallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fall_detector_falls_total",
		Help: "Confirmed fall events",
	})
	scoreGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fall_detector_score",
		Help: "Latest fuzzy fall score",
	})
)

// Config holds the decision-layer thresholds.
type Config struct {
	ScoreHigh     float64       // activation threshold
	ScoreLow      float64       // release threshold, must be below ScoreHigh
	ConfirmWindow time.Duration // score averaging span
	ImpactMinG    float64       // required acceleration peak for confirmation
	Refractory    time.Duration // minimum spacing between events
}

type scored struct {
	t     time.Time
	score float64
	aMag  float64
	wMag  float64
}

// Detector is safe for concurrent use; the sampling loop feeds OnSample
// while listeners and SetScorer may run from other goroutines.
type Detector struct {
	cfg Config

	mu        sync.Mutex
	scorer    *fuzzy.FallScorer
	window    []scored
	active    bool
	lastEvent time.Time
	listeners []func(Event)
}

// New creates a detector around a fuzzy scorer.
func New(cfg Config, scorer *fuzzy.FallScorer) *Detector {
	return &Detector{cfg: cfg, scorer: scorer}
}

// SetScorer swaps the fuzzy scorer, used for parameter hot-reload.
func (d *Detector) SetScorer(s *fuzzy.FallScorer) {
	d.mu.Lock()
	d.scorer = s
	d.mu.Unlock()
}

// AddListener registers a fall event callback. Listeners run on the
// sampling goroutine, outside the detector lock.
func (d *Detector) AddListener(fn func(Event)) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

// Active reports the current hysteresis state.
func (d *Detector) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// OnSample scores one sample and updates the decision state. An engine
// error (no rule fired) is reported but the sample still counts with
// score 0, matching the original behavior of failing safe-low.
func (d *Detector) OnSample(s imu.Sample) (Result, error) {
	d.mu.Lock()

	aMag := s.AccelMag()
	wMag := s.GyroMag()

	score, scoreErr := d.scorer.Score(aMag, wMag)
	if scoreErr != nil {
		score = 0
	}

	samplesTotal.Inc()
	scoreGauge.Set(score)

	// Slide the confirm window.
	d.window = append(d.window, scored{t: s.Time, score: score, aMag: aMag, wMag: wMag})
	cutoff := s.Time.Add(-d.cfg.ConfirmWindow)
	for len(d.window) > 0 && d.window[0].t.Before(cutoff) {
		d.window = d.window[1:]
	}

	// Hysteresis: activate at ScoreHigh, release below ScoreLow.
	if d.active {
		if score < d.cfg.ScoreLow {
			d.active = false
		}
	} else if score >= d.cfg.ScoreHigh {
		d.active = true
	}

	res := Result{Time: s.Time, AccelMag: aMag, GyroMag: wMag, Score: score, Active: d.active}

	ev, confirmed := d.confirm(s.Time)
	var listeners []func(Event)
	if confirmed {
		d.lastEvent = s.Time
		fallsTotal.Inc()
		listeners = append(listeners, d.listeners...)
	}
	d.mu.Unlock()

	// Fire outside the lock; listeners may publish or hit storage.
	for _, fn := range listeners {
		fn(ev)
	}

	return res, scoreErr
}

// confirm applies the window rule: mean score >= ScoreHigh and impact
// peak >= ImpactMinG, outside the refractory period.
func (d *Detector) confirm(now time.Time) (Event, bool) {
	if len(d.window) == 0 {
		return Event{}, false
	}
	if !d.lastEvent.IsZero() && now.Sub(d.lastEvent) < d.cfg.Refractory {
		return Event{}, false
	}

	var sum, peakScore, impact, omega float64
	for _, s := range d.window {
		sum += s.score
		if s.score > peakScore {
			peakScore = s.score
		}
		if s.aMag > impact {
			impact = s.aMag
		}
		if s.wMag > omega {
			omega = s.wMag
		}
	}
	mean := sum / float64(len(d.window))

	if mean < d.cfg.ScoreHigh || impact < d.cfg.ImpactMinG {
		return Event{}, false
	}
	return Event{
		Time:      now,
		Score:     mean,
		PeakScore: peakScore,
		ImpactG:   impact,
		OmegaPeak: omega,
	}, true
}
