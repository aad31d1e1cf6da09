package estimate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielemils/new-alice/internal/effects"
	"github.com/danielemils/new-alice/internal/planner"
)

func TestBaseline(t *testing.T) {
	assert.InDelta(t, TremoloCost, Baseline(effects.Settings{}), 1e-12)
	assert.InDelta(t, TremoloCost+NoiseCost+CompressorCost,
		Baseline(effects.Settings{Noise: true, Compressor: true}), 1e-12)
}

func TestFileEstimateIsSuperlinear(t *testing.T) {
	short := FileEstimate(1, 600)
	long := FileEstimate(1, Horizon)
	assert.InDelta(t, 610, short, 1e-9)
	assert.InDelta(t, 2*Horizon, long, 1e-9)
}

func TestCalibration(t *testing.T) {
	// Two inputs whose baseline estimate is exactly 100 seconds each.
	e := &Estimator{estimates: []float64{100, 100}, calibration: 1}

	assert.Equal(t, 200, e.StartFile(0))
	e.RecordElapsed(150 * time.Second)

	assert.Equal(t, 150, e.StartFile(1))
	assert.InDelta(t, 1.5, e.Calibration(), 1e-9)
	assert.InDelta(t, 150, e.CurrentEstimate(), 1e-9)
}

func TestCalibrationSkippedWithoutTiming(t *testing.T) {
	e := &Estimator{estimates: []float64{100, 100}, calibration: 1}
	e.StartFile(0)
	e.StartFile(1)
	assert.InDelta(t, 1, e.Calibration(), 1e-9)
}

func TestRemainingIncludesMerges(t *testing.T) {
	durations := []float64{600, 600, 600, 600, 600, 600}
	s := effects.NewSettings(false, false, 40, true)
	e := New(durations, s, planner.DefaultTarget)
	require.Equal(t, 1, e.PendingMerges())

	sum := 0.0
	for _, d := range durations {
		sum += FileEstimate(Baseline(s), d)
	}
	assert.Equal(t, int(math.Ceil(sum+MergeCost)), e.StartFile(0))

	e.MergeStarted()
	e.MergeStarted()
	assert.Zero(t, e.PendingMerges())
}

func TestNoMergesWithoutChunking(t *testing.T) {
	e := New([]float64{600, 600}, effects.NewSettings(false, false, 40, false), planner.DefaultTarget)
	assert.Zero(t, e.PendingMerges())
}

func TestDecayEmitsOncePerSecond(t *testing.T) {
	e := &Estimator{estimates: []float64{10}, calibration: 1}
	require.Equal(t, 10, e.StartFile(0))

	emitted := 0
	for range 8 {
		if _, ok := e.Decay(250 * time.Millisecond); ok {
			emitted++
		}
	}
	assert.Equal(t, 2, emitted)
	assert.Equal(t, 8, e.Remaining())
}

func TestDecayStopsAtZero(t *testing.T) {
	e := &Estimator{estimates: []float64{1}, calibration: 1}
	e.StartFile(0)
	v, _ := e.Decay(5 * time.Second)
	assert.Zero(t, v)
	assert.Zero(t, e.Remaining())
}

func TestExtendGrowsRemaining(t *testing.T) {
	e := &Estimator{estimates: []float64{10}, calibration: 1}
	e.StartFile(0)
	v, ok := e.Extend(1500 * time.Millisecond)
	assert.True(t, ok)
	assert.Equal(t, 11, v)
	assert.Equal(t, 12, e.Remaining())
}
