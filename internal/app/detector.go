// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"log"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/relabs-tech/fall_detector/internal/alert"
	"github.com/relabs-tech/fall_detector/internal/config"
	"github.com/relabs-tech/fall_detector/internal/detector"
	"github.com/relabs-tech/fall_detector/internal/fuzzy"
	"github.com/relabs-tech/fall_detector/internal/gps"
	"github.com/relabs-tech/fall_detector/internal/imu"
	"github.com/relabs-tech/fall_detector/internal/sensors"
	"github.com/relabs-tech/fall_detector/internal/store"
)

// RunDetector is the main daemon: sample the IMU at the configured rate,
// score each sample through the fuzzy system, publish scores and
// confirmed fall alerts over MQTT, and persist alerts locally.
func RunDetector() error {
	log.Println("starting fall-detector daemon")

	cfg := config.Get()

	// --- fuzzy scorer, from file or built-in characterized params ---
	scorer, err := loadScorer(cfg.FuzzyParamsFile)
	if err != nil {
		return err
	}

	det := detector.New(detector.Config{
		ScoreHigh:     cfg.ScoreHigh,
		ScoreLow:      cfg.ScoreLow,
		ConfirmWindow: time.Duration(cfg.ConfirmWindowMS) * time.Millisecond,
		ImpactMinG:    cfg.ImpactMinG,
		Refractory:    time.Duration(cfg.RefractorySec * float64(time.Second)),
	}, scorer)

	// --- IMU source (mock vs real MPU6050) ---
	var src imu.Source
	if cfg.UseMockIMU {
		log.Println("using mock IMU source (USE_MOCK_IMU=true)")
		src = sensors.NewMockSource(20 * time.Second)
	} else {
		src, err = sensors.NewIMUSource()
		if err != nil {
			return err
		}
	}

	// --- GPS fix watcher (optional) ---
	var gpsWatcher *gps.Watcher
	if cfg.GPSEnabled {
		gpsWatcher, err = gps.NewWatcher(cfg.GPSSerialPort, uint(cfg.GPSBaudRate))
		if err != nil {
			log.Printf("WARNING: GPS watcher unavailable, alerts will carry no position: %v", err)
		} else {
			defer gpsWatcher.Close()
		}
	}

	// --- event store (optional) ---
	var events *store.Store
	if cfg.EventDBPath != "" {
		events, err = store.Open(cfg.EventDBPath)
		if err != nil {
			return err
		}
		defer events.Close()
		log.Printf("event store opened at %s", cfg.EventDBPath)
	}

	// --- connect to MQTT ---
	pub, err := alert.NewPublisher(cfg.MQTTBroker, cfg.MQTTClientIDDetector,
		cfg.TopicScore, cfg.TopicFall, cfg.TopicIMU)
	if err != nil {
		return err
	}
	defer pub.Close()
	log.Println("connected to MQTT, starting sample loop")

	det.AddListener(func(ev detector.Event) {
		a := alert.FallAlert{Event: ev}
		if gpsWatcher != nil {
			if fix, ok := gpsWatcher.Latest(); ok && fix.Valid() {
				a.GPS = &fix
			}
		}
		log.Printf("FALL confirmed: score=%.2f peak=%.2f impact=%.2fg omega=%.0f°/s",
			ev.Score, ev.PeakScore, ev.ImpactG, ev.OmegaPeak)
		if err := pub.PublishFall(a); err != nil {
			log.Printf("fall alert publish error: %v", err)
		}
		if events != nil {
			if err := events.Append(a); err != nil {
				log.Printf("fall alert store error: %v", err)
			}
		}
	})

	// --- hot-reload fuzzy params on file change ---
	if cfg.FuzzyParamsFile != "" {
		if err := watchParams(cfg.FuzzyParamsFile, det); err != nil {
			log.Printf("WARNING: params watcher unavailable: %v", err)
		}
	}

	// main tick
	interval := time.Second / time.Duration(cfg.IMUSampleRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logEvery := cfg.IMUSampleRateHz // one status line per second
	tick := 0

	for range ticker.C {
		s, err := src.Next()
		if err != nil {
			log.Printf("IMU read error: %v", err)
			continue
		}

		res, err := det.OnSample(s)
		if err != nil {
			log.Printf("fuzzy score error (scored 0): %v", err)
		}

		if err := pub.PublishScore(res); err != nil {
			log.Printf("score publish error: %v", err)
		}
		if err := pub.PublishSample(s); err != nil {
			log.Printf("sample publish error: %v", err)
		}

		tick++
		if tick%logEvery == 0 {
			log.Printf("tick: |a|=%.3fg |w|=%.1f°/s score=%.2f active=%v",
				res.AccelMag, res.GyroMag, res.Score, res.Active)
		}
	}
	return nil
}

// loadScorer builds the fall scorer from a YAML file, or from the
// built-in characterized parameters when no file is configured.
func loadScorer(path string) (*fuzzy.FallScorer, error) {
	params := fuzzy.DefaultParams()
	if path != "" {
		p, err := fuzzy.LoadParams(path)
		if err != nil {
			return nil, err
		}
		params = p
		log.Printf("fuzzy params loaded from %s", path)
	}
	return fuzzy.NewFallScorer(params)
}

// watchParams reloads the fuzzy parameter file when it changes and swaps
// the scorer in place. A broken file keeps the previous scorer.
func watchParams(path string, det *detector.Detector) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				scorer, err := loadScorer(path)
				if err != nil {
					log.Printf("params reload failed, keeping previous: %v", err)
					continue
				}
				det.SetScorer(scorer)
				log.Printf("fuzzy params reloaded from %s", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("params watcher error: %v", err)
			}
		}
	}()

	log.Printf("watching %s for fuzzy param changes", path)
	return nil
}
