// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/relabs-tech/fall_detector/internal/config"
	"github.com/relabs-tech/fall_detector/internal/imu"
	"github.com/relabs-tech/fall_detector/internal/recorder"
	"github.com/relabs-tech/fall_detector/internal/sensors"
)

// RecorderOptions are the session parameters from the command line.
type RecorderOptions struct {
	OutFile    string
	SampleHz   int
	PreSeconds float64 // retro-label window length
	RetroMode  string  // off, fall_only, all
}

// RunRecorder samples the IMU and writes a labeled session file. Labels
// come from stdin while recording:
//
//	1<Enter>  start a FALL segment
//	0<Enter>  mark activities of daily living (ADL)
//	<Enter>   back to NONE
//
// The last PreSeconds of samples can be retroactively relabeled when a
// FALL label arrives, to compensate for labeler reaction time.
func RunRecorder(opts RecorderOptions) error {
	cfg := config.Get()

	hz := opts.SampleHz
	if hz <= 0 {
		hz = cfg.IMUSampleRateHz
	}

	var src imu.Source
	var err error
	if cfg.UseMockIMU {
		log.Println("recorder: using mock IMU source (USE_MOCK_IMU=true)")
		src = sensors.NewMockSource(20 * time.Second)
	} else {
		src, err = sensors.NewIMUSource()
		if err != nil {
			return err
		}
	}

	f, err := os.Create(opts.OutFile)
	if err != nil {
		return err
	}
	defer f.Close()

	pre := int(opts.PreSeconds * float64(hz))
	rec, err := recorder.New(f, pre, recorder.RetroMode(opts.RetroMode))
	if err != nil {
		return err
	}

	log.Printf("recorder: writing %s at %d Hz, retro=%s pre=%d samples",
		opts.OutFile, hz, opts.RetroMode, pre)
	log.Println("recorder: labels: 1=FALL  0=ADL  <Enter>=NONE  q=quit")

	// Label input from stdin.
	labels := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			switch strings.TrimSpace(scanner.Text()) {
			case "1":
				labels <- "FALL"
			case "0":
				labels <- "ADL"
			case "":
				labels <- "NONE"
			case "q":
				close(labels)
				return
			default:
				log.Println("recorder: unknown input, use 1 / 0 / <Enter> / q")
			}
		}
		close(labels)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	start := time.Now()
	rows := 0

	for {
		select {
		case <-ticker.C:
			s, err := src.Next()
			if err != nil {
				log.Printf("recorder: IMU read error: %v", err)
				continue
			}
			if err := rec.Add(time.Since(start).Seconds(), s); err != nil {
				return err
			}
			rows++

		case label, ok := <-labels:
			if !ok {
				log.Printf("recorder: stopping, %d rows recorded", rows)
				return rec.Flush()
			}
			change, err := rec.SetLabel(label)
			if err != nil {
				log.Printf("recorder: %v", err)
				continue
			}
			if change != "" {
				log.Printf("recorder: label %s (event %d)", change, rec.EventID())
			}

		case <-sig:
			log.Printf("recorder: interrupted, %d rows recorded", rows)
			return rec.Flush()
		}
	}
}
