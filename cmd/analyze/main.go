// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/fall_detector/internal/app"
)

func main() {
	inFile := flag.String("in", "", "labeled session log to analyze (required)")
	outFeatures := flag.String("out-features", "", "windowed features CSV output, empty skips")
	outParams := flag.String("out-params", "", "suggested fuzzy params YAML output, empty skips")
	outReport := flag.String("out-report", "", "plain-text analysis report output, empty skips")
	win := flag.Float64("win", 1.0, "window length in seconds")
	hop := flag.Float64("hop", 0.5, "window hop in seconds")
	fs := flag.Float64("fs", 50.0, "fallback sample rate when timestamps are degenerate")
	maxG := flag.Float64("max-g", 3.0, "acceleration universe upper bound in g")
	maxDps := flag.Float64("max-dps", 400.0, "gyro universe upper bound in deg/s")
	flag.Parse()

	if *inFile == "" {
		log.Fatal("analyze: -in is required")
	}

	err := app.RunAnalyze(app.AnalyzeOptions{
		InFile:      *inFile,
		OutFeatures: *outFeatures,
		OutParams:   *outParams,
		OutReport:   *outReport,
		WindowS:     *win,
		HopS:        *hop,
		DefaultFs:   *fs,
		MaxG:        *maxG,
		MaxDps:      *maxDps,
	})
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
