package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/fall_detector/internal/alert"
	"github.com/relabs-tech/fall_detector/internal/detector"
	"github.com/relabs-tech/fall_detector/internal/gps"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func alertAt(ts time.Time, score float64) alert.FallAlert {
	return alert.FallAlert{Event: detector.Event{
		Time:    ts,
		Score:   score,
		ImpactG: 2.1,
	}}
}

func TestAppendAndRecent(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(alertAt(base.Add(time.Duration(i)*time.Minute), 0.7+float64(i)*0.01)))
	}

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	recent, err := s.Recent(3)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	// Newest first.
	assert.True(t, recent[0].Time.After(recent[1].Time))
	assert.True(t, recent[1].Time.After(recent[2].Time))
	assert.True(t, recent[0].Time.Equal(base.Add(4*time.Minute)))
}

func TestAppendSameTimestampKeepsBoth(t *testing.T) {
	s := openTestStore(t)

	ts := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(alertAt(ts, 0.80)))
	require.NoError(t, s.Append(alertAt(ts, 0.90)))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recent, err := s.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	// Identical timestamps keep append order: the later append first.
	assert.InDelta(t, 0.90, recent[0].Score, 1e-9)
	assert.InDelta(t, 0.80, recent[1].Score, 1e-9)
}

func TestRecentOrdersSubSecondEvents(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(alertAt(base.Add(500*time.Millisecond), 0.8)))
	require.NoError(t, s.Append(alertAt(base, 0.7)))
	require.NoError(t, s.Append(alertAt(base.Add(time.Second), 0.9)))

	recent, err := s.Recent(3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.True(t, recent[0].Time.Equal(base.Add(time.Second)))
	assert.True(t, recent[1].Time.Equal(base.Add(500*time.Millisecond)))
	assert.True(t, recent[2].Time.Equal(base))
}

func TestRecentMoreThanStored(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Append(alertAt(time.Now(), 0.8)))

	recent, err := s.Recent(10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestRecentEmpty(t *testing.T) {
	s := openTestStore(t)

	recent, err := s.Recent(5)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestGPSRoundTrip(t *testing.T) {
	s := openTestStore(t)

	a := alertAt(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), 0.85)
	a.GPS = &gps.Fix{Latitude: 48.1173, Longitude: 11.5167, Validity: "A"}
	require.NoError(t, s.Append(a))

	recent, err := s.Recent(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.NotNil(t, recent[0].GPS)
	assert.InDelta(t, 48.1173, recent[0].GPS.Latitude, 1e-9)
	assert.True(t, recent[0].GPS.Valid())
}

func TestEventsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(alertAt(time.Now(), 0.9)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
