// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/fall_detector/internal/app"
	"github.com/relabs-tech/fall_detector/internal/config"
)

func main() {
	configPath := flag.String("config", "./fall_config.txt", "path to configuration file")
	outFile := flag.String("out", "session.txt", "output labeled log file")
	hz := flag.Int("hz", 0, "sample rate override, 0 uses IMU_SAMPLE_RATE_HZ")
	pre := flag.Float64("pre", 1.0, "retro-label window in seconds")
	retro := flag.String("retro", "fall_only", "retro-label mode: off, fall_only, all")
	flag.Parse()

	log.Println("starting labeled session recorder (IMU → CSV)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	err := app.RunRecorder(app.RecorderOptions{
		OutFile:    *outFile,
		SampleHz:   *hz,
		PreSeconds: *pre,
		RetroMode:  *retro,
	})
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
