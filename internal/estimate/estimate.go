// Package estimate predicts how long a conversion job takes and recalibrates
// the prediction against observed wall-clock time as files complete.
package estimate

import (
	"math"
	"time"

	"github.com/danielemils/new-alice/internal/effects"
	"github.com/danielemils/new-alice/internal/planner"
)

// Per-second processing costs measured on a reference machine.
const (
	TremoloCost    = 0.0189
	NoiseCost      = 0.0068
	CompressorCost = 0.0038
	// MergeCost is the flat cost of one concatenation, in seconds.
	MergeCost = 35.0
	// Horizon is the duration at which processing takes twice as long per
	// second as it does for short inputs.
	Horizon = 36000.0
)

// Baseline returns the per-second cost for the given settings.
func Baseline(s effects.Settings) float64 {
	cost := TremoloCost
	if s.Noise {
		cost += NoiseCost
	}
	if s.Compressor {
		cost += CompressorCost
	}
	return cost
}

// FileEstimate is the uncalibrated processing time for one input.
func FileEstimate(baseline, duration float64) float64 {
	return baseline * duration * (1 + duration/Horizon)
}

// Estimator tracks seconds remaining for a job. It is owned by the job worker
// and is not safe for concurrent use.
type Estimator struct {
	estimates     []float64
	pendingMerges int
	calibration   float64

	// calibrated estimate and measured time of the file in progress
	current float64
	elapsed float64

	remaining float64
}

// New runs the estimation pre-pass over the probed durations. Merge events are
// predicted with the planner when chunking is enabled.
func New(durations []float64, s effects.Settings, target float64) *Estimator {
	baseline := Baseline(s)
	estimates := make([]float64, len(durations))
	for i, d := range durations {
		estimates[i] = FileEstimate(baseline, d)
	}
	merges := 0
	if s.ChunkIntoHours {
		merges = planner.CountMerges(durations, target)
	}
	return &Estimator{
		estimates:     estimates,
		pendingMerges: merges,
		calibration:   1,
	}
}

// StartFile recalibrates against the previous file, if it was timed, and
// returns the fresh seconds-remaining figure for files index onward.
func (e *Estimator) StartFile(index int) int {
	if e.current > 0 && e.elapsed > 0 {
		e.calibration *= e.elapsed / e.current
	}
	e.current = 0
	e.elapsed = 0
	if index >= 0 && index < len(e.estimates) {
		e.current = e.estimates[index] * e.calibration
	}

	total := float64(e.pendingMerges) * MergeCost
	for i := max(index, 0); i < len(e.estimates); i++ {
		total += e.estimates[i]
	}
	e.remaining = math.Ceil(total * e.calibration)
	return int(e.remaining)
}

// RecordElapsed adds measured processing time to the file in progress.
func (e *Estimator) RecordElapsed(d time.Duration) {
	if d > 0 {
		e.elapsed += d.Seconds()
	}
}

// MergeStarted consumes one predicted merge event.
func (e *Estimator) MergeStarted() {
	if e.pendingMerges > 0 {
		e.pendingMerges--
	}
}

// Decay subtracts waited time from the remaining estimate. The second return
// value is true when the whole-second figure changed and should be emitted.
func (e *Estimator) Decay(d time.Duration) (int, bool) {
	return e.adjust(-d.Seconds())
}

// Extend grows the remaining estimate by d, for work that was never part of
// the prediction.
func (e *Estimator) Extend(d time.Duration) (int, bool) {
	return e.adjust(d.Seconds())
}

func (e *Estimator) adjust(delta float64) (int, bool) {
	next := math.Max(0, e.remaining+delta)
	changed := math.Ceil(next) != math.Ceil(e.remaining)
	e.remaining = next
	return int(math.Floor(next)), changed
}

// Remaining returns the current seconds-remaining figure.
func (e *Estimator) Remaining() int { return int(math.Ceil(e.remaining)) }

// Calibration returns the current speed multiplier.
func (e *Estimator) Calibration() float64 { return e.calibration }

// CurrentEstimate is the calibrated estimate of the file in progress.
func (e *Estimator) CurrentEstimate() float64 { return e.current }

// PendingMerges returns the number of predicted merges not yet started.
func (e *Estimator) PendingMerges() int { return e.pendingMerges }
