package analysis

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/fall_detector/internal/fuzzy"
)

// Summaries are the per-feature threshold summaries keyed by feature name
// ("impact_g", "omega_peak", "tilt_delta").
type Summaries map[string]ThresholdSummary

// triangleAroundThreshold builds three triangular memberships (low,
// medium, high) around a decision threshold: low tapers off toward thr,
// medium is centered at thr with gentle overlap, high rises near thr and
// peaks toward the upper bound. A NaN threshold falls back to a generic
// partition of the universe.
func triangleAroundThreshold(thr, lowMax, highMin, loBound, hiBound float64) (low, mid, high [3]float64) {
	if math.IsNaN(thr) {
		span := hiBound - loBound
		low = [3]float64{loBound, loBound, loBound + span*0.4}
		mid = [3]float64{loBound + span*0.2, loBound + span*0.5, loBound + span*0.8}
		high = [3]float64{loBound + span*0.6, hiBound, hiBound}
		return low, mid, high
	}

	low = sortTri([3]float64{
		loBound,
		math.Max(loBound, (loBound+lowMax)/2.0),
		math.Max(loBound, math.Min(thr, lowMax)),
	}, hiBound)
	mid = sortTri([3]float64{
		math.Max(loBound, thr-(thr-loBound)*0.3),
		thr,
		math.Min(hiBound, thr+(hiBound-thr)*0.3),
	}, hiBound)
	high = sortTri([3]float64{
		math.Min(hiBound, math.Max(thr, highMin)),
		math.Min(hiBound, (highMin+hiBound)/2.0),
		hiBound,
	}, hiBound)
	return low, mid, high
}

// sortTri enforces a<=b<=c and nudges collapsed points apart so the
// triangle keeps a nonzero slope.
func sortTri(x [3]float64, hiBound float64) [3]float64 {
	s := x[:]
	sort.Float64s(s)
	if s[1] <= s[0] {
		s[1] = math.Min(hiBound, s[0]+1e-6)
	}
	if s[2] <= s[1] {
		s[2] = math.Min(hiBound, s[1]+1e-6)
	}
	return [3]float64{s[0], s[1], s[2]}
}

// SuggestParams derives accel/gyro membership triangles from the labeled
// distributions. The fall output terms and the rule base are not
// data-derived and stay at their characterized defaults.
func SuggestParams(summaries Summaries, maxG, maxDps float64) *fuzzy.Params {
	p := fuzzy.DefaultParams()

	if s, ok := summaries["impact_g"]; ok {
		thr := s.Threshold
		low, mid, high := triangleAroundThreshold(
			thr,
			math.Min(maxG*0.6, thr),
			math.Max(thr, maxG*0.4),
			0.0, maxG,
		)
		p.Accel.Universe = []float64{0.0, maxG}
		p.Accel.Terms = map[string][]float64{
			"low":    low[:],
			"medium": mid[:],
			"high":   high[:],
		}
	}

	if s, ok := summaries["omega_peak"]; ok {
		thr := s.Threshold
		low, mid, high := triangleAroundThreshold(
			thr,
			math.Min(maxDps*0.6, thr),
			math.Max(thr, maxDps*0.4),
			0.0, maxDps,
		)
		p.Gyro.Universe = []float64{0.0, maxDps}
		p.Gyro.Terms = map[string][]float64{
			"slow":   low[:],
			"medium": mid[:],
			"fast":   high[:],
		}
	}

	return p
}

// suggestedFile is the on-disk shape of the analyzer output: the engine
// parameters plus the raw statistics they were derived from.
type suggestedFile struct {
	fuzzy.Params `yaml:",inline"`
	Summaries    Summaries `yaml:"suggested_thresholds"`
}

// WriteParamsYAML writes the suggested parameters in the format
// fuzzy.LoadParams reads, with the raw statistics appended for reference.
func WriteParamsYAML(path string, p *fuzzy.Params, summaries Summaries) error {
	data, err := yaml.Marshal(suggestedFile{Params: *p, Summaries: summaries})
	if err != nil {
		return fmt.Errorf("marshal suggested params: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write suggested params: %w", err)
	}
	return nil
}
