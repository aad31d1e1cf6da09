package planner

import "math"

// DefaultTarget is the chunk length, in seconds, outputs are steered towards.
const DefaultTarget = 3600.0

// Segments describes how an input is cut when it exceeds the target.
type Segments struct {
	// Full is the number of target-length segments delivered directly.
	Full int
	// Remainder is the planned duration of the trailing segment that joins
	// the next buffer.
	Remainder float64
}

// Split reports whether duration must be split for target and, if so, the
// planned segment layout. An input of 2T+500 yields two full segments and a
// 500 second remainder.
func Split(duration, target float64) (Segments, bool) {
	if target <= 0 || duration <= target {
		return Segments{}, false
	}
	count := int(math.Ceil(duration / target))
	full := count - 1
	return Segments{Full: full, Remainder: duration - float64(full)*target}, true
}

// PlannedDuration is the duration an input contributes to the merge buffer.
func PlannedDuration(duration, target float64) float64 {
	if segs, ok := Split(duration, target); ok {
		return segs.Remainder
	}
	return duration
}

// ShouldFlush is the greedy flush rule evaluated after a file has been added
// to the buffer and another file follows. buffered is the buffer duration and
// next the duration of the following input.
func ShouldFlush(buffered, next, target float64) bool {
	if buffered >= target {
		return true
	}
	if next > target {
		return true
	}
	return !Closer(buffered, next, target)
}

// Closer reports whether adding next to the buffer moves its duration
// strictly closer to target.
func Closer(buffered, next, target float64) bool {
	return math.Abs(buffered+next-target) < math.Abs(buffered-target)
}

// FlushAfter applies ShouldFlush for position index in durations. The last
// input always flushes a non-empty buffer.
func FlushAfter(buffered float64, durations []float64, index int, target float64) bool {
	if index >= len(durations)-1 {
		return buffered > 0
	}
	return ShouldFlush(buffered, durations[index+1], target)
}

// CountMerges runs the planner over durations without any I/O and returns the
// number of flushes that need a concatenation (two or more members).
func CountMerges(durations []float64, target float64) int {
	var buf Buffer
	merges := 0
	for i, d := range durations {
		buf.Append(Member{Duration: PlannedDuration(d, target)})
		if !FlushAfter(buf.Duration(), durations, i, target) {
			continue
		}
		if buf.NeedsMerge() {
			merges++
		}
		buf.Drain()
	}
	return merges
}
