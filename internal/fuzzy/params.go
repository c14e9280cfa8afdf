package fuzzy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VariableParams describes one linguistic variable in a params file.
// Terms with 3 points are triangles, 4 points are trapezoids.
type VariableParams struct {
	Universe []float64            `yaml:"universe"` // [min, max]
	Step     float64              `yaml:"step"`
	Terms    map[string][]float64 `yaml:"terms"`
}

// RuleParams is one rule: every listed variable/term pair is ANDed.
type RuleParams struct {
	If   map[string]string `yaml:"if"`
	Then string            `yaml:"then"`
}

// Params is the full parameter set for the fall scoring system. It is the
// YAML counterpart of the JSON the analyzer historically emitted, so tuned
// parameters can be deployed without code changes.
type Params struct {
	Accel VariableParams `yaml:"accel"`
	Gyro  VariableParams `yaml:"gyro"`
	Fall  VariableParams `yaml:"fall"`
	Rules []RuleParams   `yaml:"rules"`
}

// DefaultParams returns the characterized parameter set. The "high"/"fast"
// terms extend to the universe end so large readings (3.2 g, 550 °/s)
// still contribute instead of hitting a zero-membership gap.
func DefaultParams() *Params {
	return &Params{
		Accel: VariableParams{
			Universe: []float64{0.0, 3.5}, // g
			Step:     0.01,
			Terms: map[string][]float64{
				"low":    {0.0, 0.4, 0.9},
				"medium": {0.7, 1.0, 1.6},
				"high":   {1.2, 2.2, 3.5},
			},
		},
		Gyro: VariableParams{
			Universe: []float64{0.0, 600.0}, // deg/s
			Step:     1.0,
			Terms: map[string][]float64{
				"slow":   {0, 40, 90},
				"medium": {60, 160, 260},
				"fast":   {180, 320, 600},
			},
		},
		Fall: VariableParams{
			Universe: []float64{0.0, 1.0},
			Step:     0.01,
			Terms: map[string][]float64{
				"low":    {0.0, 0.2, 0.5},
				"medium": {0.3, 0.5, 0.7},
				"high":   {0.6, 0.85, 1.0},
			},
		},
		Rules: []RuleParams{
			// High impact + fast rotation: very likely fall
			{If: map[string]string{"accel": "high", "gyro": "fast"}, Then: "high"},
			// High impact + medium rotation: likely
			{If: map[string]string{"accel": "high", "gyro": "medium"}, Then: "medium"},
			// Medium impact + fast rotation: possible fall (slip or awkward landing)
			{If: map[string]string{"accel": "medium", "gyro": "fast"}, Then: "medium"},
			// Slip-like: low impact but very fast rotation must not score low
			{If: map[string]string{"accel": "low", "gyro": "fast"}, Then: "medium"},
			// Ambiguous: medium & medium
			{If: map[string]string{"accel": "medium", "gyro": "medium"}, Then: "medium"},
			// Brisk ADL: medium impact without rotation stays low
			{If: map[string]string{"accel": "medium", "gyro": "slow"}, Then: "low"},
			// Quiet baseline
			{If: map[string]string{"accel": "low", "gyro": "slow"}, Then: "low"},
			// Bump without fall: high impact, no rotation
			{If: map[string]string{"accel": "high", "gyro": "slow"}, Then: "medium"},
		},
	}
}

// LoadParams reads a complete parameter set from a YAML file.
func LoadParams(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fuzzy params: %w", err)
	}
	var p Params
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse fuzzy params: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks universes, term shapes and rule references.
func (p *Params) Validate() error {
	vars := map[string]*VariableParams{"accel": &p.Accel, "gyro": &p.Gyro, "fall": &p.Fall}
	for name, vp := range vars {
		if len(vp.Universe) != 2 {
			return fmt.Errorf("fuzzy params: %s universe must be [min, max]", name)
		}
		if vp.Universe[1] <= vp.Universe[0] {
			return fmt.Errorf("fuzzy params: %s universe max must exceed min", name)
		}
		if vp.Step <= 0 {
			return fmt.Errorf("fuzzy params: %s step must be positive", name)
		}
		if len(vp.Terms) == 0 {
			return fmt.Errorf("fuzzy params: %s has no terms", name)
		}
		for term, pts := range vp.Terms {
			if len(pts) != 3 && len(pts) != 4 {
				return fmt.Errorf("fuzzy params: %s term %q needs 3 (triangle) or 4 (trapezoid) points, got %d", name, term, len(pts))
			}
			for i := 1; i < len(pts); i++ {
				if pts[i] < pts[i-1] {
					return fmt.Errorf("fuzzy params: %s term %q points must be non-decreasing", name, term)
				}
			}
		}
	}
	if len(p.Rules) == 0 {
		return fmt.Errorf("fuzzy params: no rules defined")
	}
	for i, r := range p.Rules {
		if len(r.If) == 0 {
			return fmt.Errorf("fuzzy params: rule %d has no antecedents", i)
		}
		for varName, term := range r.If {
			vp, ok := vars[varName]
			if !ok || varName == "fall" {
				return fmt.Errorf("fuzzy params: rule %d references unknown input %q", i, varName)
			}
			if _, ok := vp.Terms[term]; !ok {
				return fmt.Errorf("fuzzy params: rule %d references unknown term %s.%s", i, varName, term)
			}
		}
		if _, ok := p.Fall.Terms[r.Then]; !ok {
			return fmt.Errorf("fuzzy params: rule %d output term %q not defined on fall", i, r.Then)
		}
	}
	return nil
}

// buildVariable turns VariableParams into an engine Variable.
func buildVariable(name string, vp VariableParams) (*Variable, error) {
	v, err := NewVariable(name, vp.Universe[0], vp.Universe[1], vp.Step)
	if err != nil {
		return nil, err
	}
	for term, pts := range vp.Terms {
		var mf Membership
		if len(pts) == 3 {
			mf = Trimf{A: pts[0], B: pts[1], C: pts[2]}
		} else {
			mf = Trapmf{A: pts[0], B: pts[1], C: pts[2], D: pts[3]}
		}
		if err := v.AddTerm(term, mf); err != nil {
			return nil, err
		}
	}
	return v, nil
}
