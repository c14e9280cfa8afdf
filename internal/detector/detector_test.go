package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/fall_detector/internal/fuzzy"
	"github.com/relabs-tech/fall_detector/internal/imu"
)

func testConfig() Config {
	return Config{
		ScoreHigh:     0.7,
		ScoreLow:      0.5,
		ConfirmWindow: 200 * time.Millisecond,
		ImpactMinG:    1.6,
		Refractory:    5 * time.Second,
	}
}

func newTestDetector(t *testing.T, cfg Config) *Detector {
	t.Helper()
	scorer, err := fuzzy.NewFallScorer(fuzzy.DefaultParams())
	require.NoError(t, err)
	return New(cfg, scorer)
}

// sampleAt builds a sample with the acceleration on X and rotation on X,
// so |a| and |ω| equal the given magnitudes.
func sampleAt(t time.Time, aMag, wMag float64) imu.Sample {
	return imu.Sample{Time: t, Ax: aMag, Gx: wMag}
}

var t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

// feed pushes n samples at 50 Hz starting at start and returns the time
// after the last sample.
func feed(t *testing.T, d *Detector, start time.Time, n int, aMag, wMag float64) time.Time {
	t.Helper()
	ts := start
	for i := 0; i < n; i++ {
		_, err := d.OnSample(sampleAt(ts, aMag, wMag))
		require.NoError(t, err)
		ts = ts.Add(20 * time.Millisecond)
	}
	return ts
}

func TestQuietStreamStaysInactive(t *testing.T) {
	d := newTestDetector(t, testConfig())

	feed(t, d, t0, 100, 1.0, 5.0)

	assert.False(t, d.Active())
}

func TestHysteresis(t *testing.T) {
	d := newTestDetector(t, testConfig())

	// Spike activates.
	res, err := d.OnSample(sampleAt(t0, 2.4, 350))
	require.NoError(t, err)
	assert.Greater(t, res.Score, 0.7)
	assert.True(t, res.Active)

	// Mid-range score (between release and activation) keeps it active.
	res, err = d.OnSample(sampleAt(t0.Add(20*time.Millisecond), 1.3, 200))
	require.NoError(t, err)
	assert.Greater(t, res.Score, 0.5)
	assert.Less(t, res.Score, 0.7)
	assert.True(t, res.Active)

	// Quiet sample releases.
	res, err = d.OnSample(sampleAt(t0.Add(40*time.Millisecond), 1.0, 5))
	require.NoError(t, err)
	assert.Less(t, res.Score, 0.5)
	assert.False(t, res.Active)
}

func TestFallConfirmation(t *testing.T) {
	d := newTestDetector(t, testConfig())

	var events []Event
	d.AddListener(func(ev Event) { events = append(events, ev) })

	// Quiet lead-in, then a sustained fall transient.
	ts := feed(t, d, t0, 20, 1.0, 5.0)
	feed(t, d, ts, 15, 2.4, 350)

	require.Len(t, events, 1)
	ev := events[0]
	assert.GreaterOrEqual(t, ev.Score, 0.7)
	assert.GreaterOrEqual(t, ev.ImpactG, 1.6)
	assert.Greater(t, ev.OmegaPeak, 300.0)
}

func TestConfirmationRequiresImpact(t *testing.T) {
	cfg := testConfig()
	cfg.ImpactMinG = 3.0 // above anything in the stream
	d := newTestDetector(t, cfg)

	fired := 0
	d.AddListener(func(Event) { fired++ })

	feed(t, d, t0, 30, 2.4, 350)

	assert.Zero(t, fired, "high score without the impact floor must not confirm")
	assert.True(t, d.Active(), "hysteresis state is independent of confirmation")
}

func TestRefractoryPeriod(t *testing.T) {
	d := newTestDetector(t, testConfig())

	fired := 0
	d.AddListener(func(Event) { fired++ })

	// First burst confirms once; the burst keeps satisfying the window
	// rule but the refractory period suppresses repeats.
	ts := feed(t, d, t0, 30, 2.4, 350)
	assert.Equal(t, 1, fired)

	// Still inside the refractory period.
	ts = feed(t, d, ts, 30, 2.4, 350)
	assert.Equal(t, 1, fired)

	// After the refractory period a new burst confirms again.
	ts = ts.Add(6 * time.Second)
	feed(t, d, ts, 30, 2.4, 350)
	assert.Equal(t, 2, fired)
}

func TestSaturatedSampleScoresZero(t *testing.T) {
	d := newTestDetector(t, testConfig())

	// Exactly at the universe bounds no rule fires; the sample is scored
	// 0 and the error is surfaced to the caller for logging.
	res, err := d.OnSample(sampleAt(t0, 3.5, 600))
	assert.ErrorIs(t, err, fuzzy.ErrEmptyAggregate)
	assert.Zero(t, res.Score)
	assert.False(t, res.Active)
}

func TestSetScorerSwapsParameters(t *testing.T) {
	d := newTestDetector(t, testConfig())

	res, err := d.OnSample(sampleAt(t0, 2.4, 350))
	require.NoError(t, err)
	assert.Greater(t, res.Score, 0.7)

	// A parameter set whose only rule maps everything to "low" changes
	// the verdict for the same sample.
	p := fuzzy.DefaultParams()
	p.Rules = []fuzzy.RuleParams{
		{If: map[string]string{"accel": "high", "gyro": "fast"}, Then: "low"},
	}
	scorer, err := fuzzy.NewFallScorer(p)
	require.NoError(t, err)
	d.SetScorer(scorer)

	res, err = d.OnSample(sampleAt(t0.Add(20*time.Millisecond), 2.4, 350))
	require.NoError(t, err)
	assert.Less(t, res.Score, 0.5)
}
