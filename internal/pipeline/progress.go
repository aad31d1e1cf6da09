package pipeline

import "time"

const (
	trickleFloor = 90
	trickleCap   = 99
	trickleStep  = 3 * time.Second
)

// progressTracker turns SoX's percentages into the per-file figure shown to
// users. Once SoX claims 90% (after scaling) the rest of the run is spent
// finalizing, so the figure creeps up by one every three seconds instead. The
// figure never decreases and never exceeds 99.
type progressTracker struct {
	reported     int
	trickling    bool
	trickleStart time.Time
}

// observe records a parsed percentage. It returns the new figure and whether
// it changed.
func (p *progressTracker) observe(raw int, now time.Time) (int, bool) {
	if raw >= trickleFloor && !p.trickling {
		p.trickling = true
		p.trickleStart = now
	}
	if p.trickling {
		return p.tick(now)
	}
	return p.advance(raw)
}

// tick advances the trickle, if one is running.
func (p *progressTracker) tick(now time.Time) (int, bool) {
	if !p.trickling {
		return p.reported, false
	}
	steps := int(now.Sub(p.trickleStart) / trickleStep)
	return p.advance(trickleFloor + steps)
}

// finish forces the figure to its ceiling when the stage exits.
func (p *progressTracker) finish() (int, bool) {
	return p.advance(trickleCap)
}

func (p *progressTracker) advance(v int) (int, bool) {
	v = min(v, trickleCap)
	if v <= p.reported {
		return p.reported, false
	}
	p.reported = v
	return v, true
}
