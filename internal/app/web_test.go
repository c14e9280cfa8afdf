package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventLimit(t *testing.T) {
	assert.Equal(t, 20, eventLimit(""))
	assert.Equal(t, 5, eventLimit("5"))
	assert.Equal(t, maxEventHistory, eventLimit("100"))

	// Oversized values are clamped to the history bound so the limit
	// stays usable as a slice capacity.
	assert.Equal(t, maxEventHistory, eventLimit("101"))
	assert.Equal(t, maxEventHistory, eventLimit("9223372036854775807"))

	// Garbage and non-positive values keep the default.
	assert.Equal(t, 20, eventLimit("0"))
	assert.Equal(t, 20, eventLimit("-3"))
	assert.Equal(t, 20, eventLimit("many"))
	assert.Equal(t, 20, eventLimit("99999999999999999999999999"))
}
