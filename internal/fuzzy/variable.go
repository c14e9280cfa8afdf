package fuzzy

import "fmt"

// Variable is a linguistic variable: a bounded universe of discourse plus
// named membership terms over it. Step controls the discretization used
// during defuzzification.
type Variable struct {
	Name string
	Min  float64
	Max  float64
	Step float64

	terms map[string]Membership
	order []string // term names in definition order, for stable iteration
}

// NewVariable creates a variable over [min, max] discretized at step.
func NewVariable(name string, min, max, step float64) (*Variable, error) {
	if max <= min {
		return nil, fmt.Errorf("variable %q: universe max (%g) must exceed min (%g)", name, max, min)
	}
	if step <= 0 {
		return nil, fmt.Errorf("variable %q: step must be positive, got %g", name, step)
	}
	return &Variable{
		Name:  name,
		Min:   min,
		Max:   max,
		Step:  step,
		terms: make(map[string]Membership),
	}, nil
}

// AddTerm registers a named membership function on the variable.
func (v *Variable) AddTerm(name string, mf Membership) error {
	if _, ok := v.terms[name]; ok {
		return fmt.Errorf("variable %q: duplicate term %q", v.Name, name)
	}
	v.terms[name] = mf
	v.order = append(v.order, name)
	return nil
}

// Terms returns the term names in definition order.
func (v *Variable) Terms() []string {
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

// Clamp limits x to the universe bounds.
func (v *Variable) Clamp(x float64) float64 {
	if x < v.Min {
		return v.Min
	}
	if x > v.Max {
		return v.Max
	}
	return x
}

// Degree evaluates the named term at x (not clamped; callers clamp inputs).
func (v *Variable) Degree(term string, x float64) (float64, error) {
	mf, ok := v.terms[term]
	if !ok {
		return 0, fmt.Errorf("variable %q: unknown term %q", v.Name, term)
	}
	return mf.Degree(x), nil
}
