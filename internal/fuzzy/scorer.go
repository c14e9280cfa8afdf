package fuzzy

import "fmt"

// FallScorer maps an acceleration magnitude (g) and an angular speed
// magnitude (deg/s) to a fall score in [0,1].
type FallScorer struct {
	engine *Engine
}

// NewFallScorer builds the inference system from a parameter set.
func NewFallScorer(p *Params) (*FallScorer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	accel, err := buildVariable("accel", p.Accel)
	if err != nil {
		return nil, err
	}
	gyro, err := buildVariable("gyro", p.Gyro)
	if err != nil {
		return nil, err
	}
	fall, err := buildVariable("fall", p.Fall)
	if err != nil {
		return nil, err
	}

	engine, err := NewEngine(fall, accel, gyro)
	if err != nil {
		return nil, err
	}
	for i, rp := range p.Rules {
		rule := Rule{Then: rp.Then}
		for varName, term := range rp.If {
			rule.If = append(rule.If, Clause{Variable: varName, Term: term})
		}
		if err := engine.AddRule(rule); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return &FallScorer{engine: engine}, nil
}

// Score computes the fuzzy fall score for one pair of magnitudes.
// Inputs are clamped to the universes inside the engine.
func (s *FallScorer) Score(accMagG, gyroMagDps float64) (float64, error) {
	return s.engine.Infer(map[string]float64{
		"accel": accMagG,
		"gyro":  gyroMagDps,
	})
}
