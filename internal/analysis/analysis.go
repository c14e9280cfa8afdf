// Package analysis processes labeled IMU session logs: windowed features,
// ADL vs FALL percentile summaries, and suggested fuzzy membership
// parameters derived from the distributions.
package analysis

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/relabs-tech/fall_detector/internal/features"
)

// LoadLabeledLog reads a CSV-like labeled session file (see
// recorder.Header) into columns. Only the columns the analysis needs are
// required; a_mag/w_mag are recomputed from the axes anyway.
func LoadLabeledLog(path string) (*features.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labeled log: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	required := []string{"t", "ax", "ay", "az", "gx", "gy", "gz", "label"}
	for _, r := range required {
		if _, ok := idx[r]; !ok {
			return nil, fmt.Errorf("missing required column %q in %s", r, path)
		}
	}

	s := &features.Series{}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	for _, rec := range records {
		if len(rec) < len(header) {
			continue
		}
		vals := make([]float64, 7)
		ok := true
		for i, col := range required[:7] {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx[col]]), 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}
		s.T = append(s.T, vals[0])
		s.Ax = append(s.Ax, vals[1])
		s.Ay = append(s.Ay, vals[2])
		s.Az = append(s.Az, vals[3])
		s.Gx = append(s.Gx, vals[4])
		s.Gy = append(s.Gy, vals[5])
		s.Gz = append(s.Gz, vals[6])
		s.Label = append(s.Label, strings.ToUpper(strings.TrimSpace(rec[idx["label"]])))
	}
	if s.Len() == 0 {
		return nil, fmt.Errorf("no usable rows in %s", path)
	}
	return s, nil
}

// Percentile computes the p-th percentile (0..100) with linear
// interpolation between closest ranks. NaN inputs are dropped; an empty
// input yields NaN.
func Percentile(values []float64, p float64) float64 {
	var vs []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			vs = append(vs, v)
		}
	}
	if len(vs) == 0 {
		return math.NaN()
	}
	sort.Float64s(vs)
	if p <= 0 {
		return vs[0]
	}
	if p >= 100 {
		return vs[len(vs)-1]
	}
	k := float64(len(vs)-1) * (p / 100.0)
	f := math.Floor(k)
	c := math.Ceil(k)
	if f == c {
		return vs[int(k)]
	}
	return vs[int(f)]*(c-k) + vs[int(c)]*(k-f)
}

// FeatureStats is the percentile summary of one feature for one label.
// Empty input yields all-NaN stats.
type FeatureStats struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
	P10 float64 `yaml:"p10"`
	P25 float64 `yaml:"p25"`
	P50 float64 `yaml:"p50"`
	P75 float64 `yaml:"p75"`
	P90 float64 `yaml:"p90"`
	P95 float64 `yaml:"p95"`
}

func summarizeValues(values []float64) FeatureStats {
	return FeatureStats{
		Min: Percentile(values, 0),
		Max: Percentile(values, 100),
		P10: Percentile(values, 10),
		P25: Percentile(values, 25),
		P50: Percentile(values, 50),
		P75: Percentile(values, 75),
		P90: Percentile(values, 90),
		P95: Percentile(values, 95),
	}
}

// ThresholdSummary holds the per-label distributions of one feature plus
// the suggested decision threshold: the midpoint between ADL p95 and
// FALL p50.
type ThresholdSummary struct {
	ADL       FeatureStats `yaml:"adl"`
	FALL      FeatureStats `yaml:"fall"`
	Threshold float64      `yaml:"thr"`
}

// SummarizeThresholds computes the summary for one feature across
// labeled windows.
func SummarizeThresholds(feats []features.WindowFeatures, get func(features.WindowFeatures) float64) ThresholdSummary {
	var adl, fall []float64
	for _, wf := range feats {
		switch wf.Label {
		case "ADL":
			adl = append(adl, get(wf))
		case "FALL":
			fall = append(fall, get(wf))
		}
	}
	out := ThresholdSummary{
		ADL:  summarizeValues(adl),
		FALL: summarizeValues(fall),
	}
	if !math.IsNaN(out.ADL.P95) && !math.IsNaN(out.FALL.P50) {
		out.Threshold = (out.ADL.P95 + out.FALL.P50) / 2.0
	} else {
		out.Threshold = math.NaN()
	}
	return out
}

// WriteFeaturesCSV writes windowed features for inspection in a
// spreadsheet or plotting tool.
func WriteFeaturesCSV(path string, feats []features.WindowFeatures) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create features csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"t_start", "t_end", "impact_g", "omega_peak", "tilt_mean", "tilt_delta", "label"}); err != nil {
		return err
	}
	ftoa := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, wf := range feats {
		row := []string{
			ftoa(wf.TStart), ftoa(wf.TEnd),
			ftoa(wf.ImpactG), ftoa(wf.OmegaPeak),
			ftoa(wf.TiltMean), ftoa(wf.TiltDelta),
			wf.Label,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
