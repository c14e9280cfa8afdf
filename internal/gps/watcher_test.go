package gps

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePort struct{ io.Reader }

func (fakePort) Write(p []byte) (int, error) { return len(p), nil }
func (fakePort) Close() error                { return nil }

func TestReadLoopParsesRMC(t *testing.T) {
	stream := strings.Join([]string{
		"garbage before the first sentence",
		"$GPRMC,bad,checksum*00",
		"$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A",
		"",
	}, "\r\n")

	w := &Watcher{port: fakePort{strings.NewReader(stream)}}
	w.readLoop() // returns at EOF

	fix, ok := w.Latest()
	require.True(t, ok, "expected a fix from the RMC sentence")
	assert.True(t, fix.Valid())
	assert.InDelta(t, 48.1173, fix.Latitude, 0.001)
	assert.InDelta(t, 11.5167, fix.Longitude, 0.001)
	assert.InDelta(t, 22.4, fix.SpeedKnots, 0.01)
}

func TestLatestWithoutFix(t *testing.T) {
	w := &Watcher{port: fakePort{strings.NewReader("")}}
	w.readLoop()

	_, ok := w.Latest()
	assert.False(t, ok)
}

func TestFixValidity(t *testing.T) {
	assert.True(t, Fix{Validity: "A"}.Valid())
	assert.False(t, Fix{Validity: "V"}.Valid())
	assert.False(t, Fix{}.Valid())
}
