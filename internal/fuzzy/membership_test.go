package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimfDegree(t *testing.T) {
	tri := Trimf{A: 0.7, B: 1.0, C: 1.6}

	assert.Equal(t, 0.0, tri.Degree(0.5))
	assert.Equal(t, 0.0, tri.Degree(0.7))
	assert.Equal(t, 1.0, tri.Degree(1.0))
	assert.Equal(t, 0.0, tri.Degree(1.6))
	assert.Equal(t, 0.0, tri.Degree(2.0))

	// rising and falling edges
	assert.InDelta(t, 0.5, tri.Degree(0.85), 1e-9)
	assert.InDelta(t, 0.5, tri.Degree(1.3), 1e-9)
}

func TestTrimfShoulders(t *testing.T) {
	// Left shoulder: peak at the left foot.
	left := Trimf{A: 0.0, B: 0.0, C: 0.5}
	assert.Equal(t, 1.0, left.Degree(0.0))
	assert.InDelta(t, 0.5, left.Degree(0.25), 1e-9)

	// Right shoulder: peak at the right foot.
	right := Trimf{A: 0.6, B: 1.0, C: 1.0}
	assert.Equal(t, 1.0, right.Degree(1.0))
	assert.InDelta(t, 0.5, right.Degree(0.8), 1e-9)
}

func TestTrapmfDegree(t *testing.T) {
	trap := Trapmf{A: 0, B: 1, C: 2, D: 4}

	assert.Equal(t, 0.0, trap.Degree(-1))
	assert.InDelta(t, 0.5, trap.Degree(0.5), 1e-9)
	assert.Equal(t, 1.0, trap.Degree(1))
	assert.Equal(t, 1.0, trap.Degree(1.5))
	assert.Equal(t, 1.0, trap.Degree(2))
	assert.InDelta(t, 0.5, trap.Degree(3), 1e-9)
	assert.Equal(t, 0.0, trap.Degree(4.5))
}
