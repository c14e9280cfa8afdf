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
	flag.Parse()

	log.Println("starting fall-detector daemon (IMU → fuzzy → MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunDetector(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
