package analysis

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/fall_detector/internal/features"
	"github.com/relabs-tech/fall_detector/internal/fuzzy"
	"github.com/relabs-tech/fall_detector/internal/imu"
	"github.com/relabs-tech/fall_detector/internal/recorder"
)

func TestPercentile(t *testing.T) {
	vs := []float64{1, 2, 3, 4, 5}

	assert.Equal(t, 3.0, Percentile(vs, 50))
	assert.Equal(t, 1.0, Percentile(vs, 0))
	assert.Equal(t, 5.0, Percentile(vs, 100))
	assert.InDelta(t, 4.8, Percentile(vs, 95), 1e-9)

	// interpolation between ranks
	assert.InDelta(t, 1.5, Percentile([]float64{1, 2}, 50), 1e-9)

	// NaN values are dropped, empty input yields NaN
	assert.Equal(t, 2.0, Percentile([]float64{math.NaN(), 2}, 50))
	assert.True(t, math.IsNaN(Percentile(nil, 50)))
}

func TestSummarizeThresholds(t *testing.T) {
	var feats []features.WindowFeatures
	for i := 0; i < 20; i++ {
		feats = append(feats, features.WindowFeatures{ImpactG: 1.0 + float64(i)*0.01, Label: "ADL"})
		feats = append(feats, features.WindowFeatures{ImpactG: 2.0 + float64(i)*0.01, Label: "FALL"})
	}
	feats = append(feats, features.WindowFeatures{ImpactG: 99, Label: "NONE"}) // ignored

	s := SummarizeThresholds(feats, func(w features.WindowFeatures) float64 { return w.ImpactG })

	assert.InDelta(t, 1.095, s.ADL.P50, 0.01)
	assert.InDelta(t, 2.095, s.FALL.P50, 0.01)
	assert.Greater(t, s.Threshold, s.ADL.P95)
	assert.Less(t, s.Threshold, s.FALL.P50)

	// Full distribution per label, in rank order.
	assert.InDelta(t, 1.0, s.ADL.Min, 1e-9)
	assert.InDelta(t, 1.19, s.ADL.Max, 1e-9)
	assert.InDelta(t, 2.0, s.FALL.Min, 1e-9)
	assert.InDelta(t, 2.19, s.FALL.Max, 1e-9)
	for _, st := range []FeatureStats{s.ADL, s.FALL} {
		assert.LessOrEqual(t, st.Min, st.P10)
		assert.LessOrEqual(t, st.P10, st.P25)
		assert.LessOrEqual(t, st.P25, st.P50)
		assert.LessOrEqual(t, st.P50, st.P75)
		assert.LessOrEqual(t, st.P75, st.P90)
		assert.LessOrEqual(t, st.P90, st.P95)
		assert.LessOrEqual(t, st.P95, st.Max)
	}
}

func TestSummarizeThresholdsMissingLabel(t *testing.T) {
	feats := []features.WindowFeatures{{ImpactG: 1.0, Label: "ADL"}}
	s := SummarizeThresholds(feats, func(w features.WindowFeatures) float64 { return w.ImpactG })

	assert.True(t, math.IsNaN(s.FALL.P50))
	assert.True(t, math.IsNaN(s.FALL.Min))
	assert.True(t, math.IsNaN(s.Threshold))
}

// writeSessionLog records a synthetic labeled session through the
// recorder, so the loader is tested against the real on-disk format.
func writeSessionLog(t *testing.T) string {
	t.Helper()

	var buf bytes.Buffer
	rec, err := recorder.New(&buf, 0, recorder.RetroOff)
	require.NoError(t, err)

	add := func(ti float64, s imu.Sample) {
		require.NoError(t, rec.Add(ti, s))
	}

	_, err = rec.SetLabel("ADL")
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		add(float64(i)*0.02, imu.Sample{Ax: 0.05, Az: 1.0, Gx: 3})
	}
	_, err = rec.SetLabel("FALL")
	require.NoError(t, err)
	for i := 200; i < 250; i++ {
		add(float64(i)*0.02, imu.Sample{Ax: 2.2, Az: 0.4, Gx: 320})
	}
	require.NoError(t, rec.Flush())

	path := filepath.Join(t.TempDir(), "session.txt")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestLoadLabeledLog(t *testing.T) {
	path := writeSessionLog(t)

	s, err := LoadLabeledLog(path)
	require.NoError(t, err)
	assert.Equal(t, 250, s.Len())
	assert.Equal(t, "ADL", s.Label[0])
	assert.Equal(t, "FALL", s.Label[249])
	assert.InDelta(t, 2.2, s.Ax[249], 1e-6)
}

func TestLoadLabeledLogMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("t,ax,ay\n0,1,2\n"), 0644))

	_, err := LoadLabeledLog(path)
	assert.Error(t, err)
}

func TestLoadLabeledLogEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte(recorder.Header+"\n"), 0644))

	_, err := LoadLabeledLog(path)
	assert.Error(t, err)
}

func TestAnalyzePipelineEndToEnd(t *testing.T) {
	path := writeSessionLog(t)

	s, err := LoadLabeledLog(path)
	require.NoError(t, err)

	feats := features.ComputeWindows(s, 1.0, 0.5, 50.0)
	require.NotEmpty(t, feats)

	summaries := Summaries{
		"impact_g":   SummarizeThresholds(feats, func(w features.WindowFeatures) float64 { return w.ImpactG }),
		"omega_peak": SummarizeThresholds(feats, func(w features.WindowFeatures) float64 { return w.OmegaPeak }),
	}
	imp := summaries["impact_g"]
	assert.Greater(t, imp.FALL.P50, imp.ADL.P95, "fall impacts must separate from ADL")

	outParams := filepath.Join(t.TempDir(), "suggested.yaml")
	p := SuggestParams(summaries, 3.0, 400.0)
	require.NoError(t, WriteParamsYAML(outParams, p, summaries))

	// The suggested file must load back as a valid scorer parameter set.
	loaded, err := fuzzy.LoadParams(outParams)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 3.0}, loaded.Accel.Universe)
	assert.Equal(t, []float64{0, 400.0}, loaded.Gyro.Universe)

	outFeatures := filepath.Join(t.TempDir(), "features.csv")
	require.NoError(t, WriteFeaturesCSV(outFeatures, feats))
	data, err := os.ReadFile(outFeatures)
	require.NoError(t, err)
	assert.Contains(t, string(data), "impact_g")

	outReport := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, WriteReport(outReport, len(feats), summaries, p))
	report, err := os.ReadFile(outReport)
	require.NoError(t, err)
	assert.Contains(t, string(report), "impact_g")
	assert.Contains(t, string(report), "p90=")
}

func TestWriteReport(t *testing.T) {
	summaries := Summaries{
		"impact_g": {
			ADL:       FeatureStats{Min: 0.9, P10: 0.95, P25: 1.0, P50: 1.05, P75: 1.1, P90: 1.15, P95: 1.18, Max: 1.2},
			FALL:      FeatureStats{Min: 1.8, P10: 1.9, P25: 2.0, P50: 2.1, P75: 2.2, P90: 2.3, P95: 2.35, Max: 2.4},
			Threshold: 1.64,
		},
	}
	p := SuggestParams(summaries, 3.0, 400.0)

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, WriteReport(path, 42, summaries, p))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Windows: 42")
	assert.Contains(t, text, "impact_g")
	assert.Contains(t, text, "min=0.900")
	assert.Contains(t, text, "p50=2.100")
	assert.Contains(t, text, "thr = 1.640")
	assert.Contains(t, text, "accel [0..3]")
	assert.Contains(t, text, "gyro [0..400]")
	assert.Contains(t, text, "medium")
}
