package fuzzy

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyAggregate is returned when no rule fires for the given inputs,
// so the aggregated output membership has zero area and no centroid exists.
var ErrEmptyAggregate = errors.New("fuzzy: aggregated membership is empty")

// Clause references one term of one variable, e.g. accel IS high.
type Clause struct {
	Variable string
	Term     string
}

// Rule fires with the minimum degree of its antecedent clauses (fuzzy AND)
// and clips the consequent output term at that strength.
type Rule struct {
	If   []Clause
	Then string // output term
}

// Engine is a Mamdani inference system over a fixed set of input
// variables and one output variable.
type Engine struct {
	inputs map[string]*Variable
	output *Variable
	rules  []Rule
}

// NewEngine creates an engine with the given output and input variables.
func NewEngine(output *Variable, inputs ...*Variable) (*Engine, error) {
	if output == nil {
		return nil, fmt.Errorf("fuzzy: output variable is required")
	}
	in := make(map[string]*Variable, len(inputs))
	for _, v := range inputs {
		if _, ok := in[v.Name]; ok {
			return nil, fmt.Errorf("fuzzy: duplicate input variable %q", v.Name)
		}
		in[v.Name] = v
	}
	return &Engine{inputs: in, output: output}, nil
}

// AddRule validates the rule's variable and term references and adds it.
func (e *Engine) AddRule(r Rule) error {
	if len(r.If) == 0 {
		return fmt.Errorf("fuzzy: rule has no antecedent clauses")
	}
	for _, c := range r.If {
		v, ok := e.inputs[c.Variable]
		if !ok {
			return fmt.Errorf("fuzzy: rule references unknown variable %q", c.Variable)
		}
		if _, err := v.Degree(c.Term, v.Min); err != nil {
			return err
		}
	}
	if _, err := e.output.Degree(r.Then, e.output.Min); err != nil {
		return err
	}
	e.rules = append(e.rules, r)
	return nil
}

// Rules returns the number of rules in the system.
func (e *Engine) Rules() int {
	return len(e.rules)
}

// Infer runs Mamdani inference for the given crisp inputs and returns the
// centroid-defuzzified output. Inputs are clamped to their universes.
// When no rule fires (all memberships zero, which happens at the exact
// universe bounds of triangular edge terms) it returns ErrEmptyAggregate;
// callers treat that as score 0.
func (e *Engine) Infer(in map[string]float64) (float64, error) {
	if len(e.rules) == 0 {
		return 0, fmt.Errorf("fuzzy: engine has no rules")
	}
	for name := range e.inputs {
		if _, ok := in[name]; !ok {
			return 0, fmt.Errorf("fuzzy: missing input %q", name)
		}
	}

	// Rule activation: min over antecedent clause degrees.
	strengths := make([]float64, len(e.rules))
	for i, r := range e.rules {
		strength := math.MaxFloat64
		for _, c := range r.If {
			v := e.inputs[c.Variable]
			d, err := v.Degree(c.Term, v.Clamp(in[c.Variable]))
			if err != nil {
				return 0, err
			}
			if d < strength {
				strength = d
			}
		}
		strengths[i] = strength
	}

	// Aggregate clipped consequents with max, integrate for the centroid.
	var num, den float64
	for x := e.output.Min; x <= e.output.Max+e.output.Step/2; x += e.output.Step {
		var mu float64
		for i, r := range e.rules {
			if strengths[i] == 0 {
				continue
			}
			d, err := e.output.Degree(r.Then, x)
			if err != nil {
				return 0, err
			}
			if d > strengths[i] {
				d = strengths[i]
			}
			if d > mu {
				mu = d
			}
		}
		num += x * mu
		den += mu
	}
	if den == 0 {
		return 0, ErrEmptyAggregate
	}
	return num / den, nil
}
