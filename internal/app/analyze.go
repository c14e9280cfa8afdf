package app

import (
	"log"
	"math"

	"github.com/relabs-tech/fall_detector/internal/analysis"
	"github.com/relabs-tech/fall_detector/internal/features"
)

// AnalyzeOptions are the offline analyzer parameters from the command line.
type AnalyzeOptions struct {
	InFile      string
	OutFeatures string // windowed features CSV, "" skips
	OutParams   string // suggested fuzzy params YAML, "" skips
	OutReport   string // plain-text report, "" skips
	WindowS     float64
	HopS        float64
	DefaultFs   float64
	MaxG        float64
	MaxDps      float64
}

// RunAnalyze loads a labeled session log, computes windowed features,
// summarizes the ADL vs FALL distributions and writes suggested fuzzy
// membership parameters.
func RunAnalyze(opts AnalyzeOptions) error {
	series, err := analysis.LoadLabeledLog(opts.InFile)
	if err != nil {
		return err
	}
	log.Printf("analyze: %d rows loaded from %s (~%.1f Hz)",
		series.Len(), opts.InFile, features.EstimateRate(series.T, opts.DefaultFs))

	feats := features.ComputeWindows(series, opts.WindowS, opts.HopS, opts.DefaultFs)
	log.Printf("analyze: %d windows (win=%.2fs hop=%.2fs)", len(feats), opts.WindowS, opts.HopS)

	if opts.OutFeatures != "" {
		if err := analysis.WriteFeaturesCSV(opts.OutFeatures, feats); err != nil {
			return err
		}
		log.Printf("analyze: features written to %s", opts.OutFeatures)
	}

	summaries := analysis.Summaries{
		"impact_g":   analysis.SummarizeThresholds(feats, func(w features.WindowFeatures) float64 { return w.ImpactG }),
		"omega_peak": analysis.SummarizeThresholds(feats, func(w features.WindowFeatures) float64 { return w.OmegaPeak }),
		"tilt_delta": analysis.SummarizeThresholds(feats, func(w features.WindowFeatures) float64 { return math.Abs(w.TiltDelta) }),
	}
	for name, s := range summaries {
		log.Printf("analyze: %-10s ADL p50=%.3f p95=%.3f  FALL p50=%.3f p95=%.3f  thr=%.3f",
			name, s.ADL.P50, s.ADL.P95, s.FALL.P50, s.FALL.P95, s.Threshold)
	}

	if opts.OutParams != "" || opts.OutReport != "" {
		params := analysis.SuggestParams(summaries, opts.MaxG, opts.MaxDps)
		if opts.OutParams != "" {
			if err := analysis.WriteParamsYAML(opts.OutParams, params, summaries); err != nil {
				return err
			}
			log.Printf("analyze: suggested fuzzy params written to %s", opts.OutParams)
		}
		if opts.OutReport != "" {
			if err := analysis.WriteReport(opts.OutReport, len(feats), summaries, params); err != nil {
				return err
			}
			log.Printf("analyze: report written to %s", opts.OutReport)
		}
	}
	return nil
}
