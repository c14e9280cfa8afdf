// Package fuzzy implements a small Mamdani-style fuzzy inference engine:
// triangular/trapezoidal memberships, min-AND rule activation, max
// aggregation and centroid defuzzification over a discretized universe.
package fuzzy

// Membership maps a crisp input to a membership degree in [0,1].
type Membership interface {
	Degree(x float64) float64
}

// Trimf is a triangular membership function with feet at A and C and
// peak at B. A==B or B==C produce shoulder shapes (degree 1 at the edge).
type Trimf struct {
	A, B, C float64
}

func (t Trimf) Degree(x float64) float64 {
	if x < t.A || x > t.C {
		return 0
	}
	switch {
	case x == t.B:
		return 1
	case x < t.B:
		if t.B == t.A {
			return 1
		}
		return (x - t.A) / (t.B - t.A)
	default:
		if t.C == t.B {
			return 1
		}
		return (t.C - x) / (t.C - t.B)
	}
}

// Trapmf is a trapezoidal membership function with feet at A and D and
// a plateau of degree 1 between B and C.
type Trapmf struct {
	A, B, C, D float64
}

func (t Trapmf) Degree(x float64) float64 {
	if x < t.A || x > t.D {
		return 0
	}
	switch {
	case x >= t.B && x <= t.C:
		return 1
	case x < t.B:
		if t.B == t.A {
			return 1
		}
		return (x - t.A) / (t.B - t.A)
	default:
		if t.D == t.C {
			return 1
		}
		return (t.D - x) / (t.D - t.C)
	}
}
