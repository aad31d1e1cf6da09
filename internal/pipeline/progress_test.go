package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTrackerMonotone(t *testing.T) {
	var p progressTracker
	now := time.Unix(0, 0)

	v, changed := p.observe(30, now)
	assert.True(t, changed)
	assert.Equal(t, 30, v)

	v, changed = p.observe(20, now)
	assert.False(t, changed)
	assert.Equal(t, 30, v)
}

func TestProgressTrackerTrickles(t *testing.T) {
	var p progressTracker
	start := time.Unix(100, 0)

	v, _ := p.observe(90, start)
	assert.Equal(t, 90, v)

	// SoX stays at 90 while finalizing; ticks move the figure instead.
	v, changed := p.observe(90, start.Add(time.Second))
	assert.False(t, changed)
	assert.Equal(t, 90, v)

	v, changed = p.tick(start.Add(7 * time.Second))
	assert.True(t, changed)
	assert.Equal(t, 92, v)

	v, _ = p.tick(start.Add(10 * time.Minute))
	assert.Equal(t, 99, v)
}

func TestProgressTrackerFinish(t *testing.T) {
	var p progressTracker
	_, _ = p.observe(12, time.Now())

	v, changed := p.finish()
	assert.True(t, changed)
	assert.Equal(t, 99, v)

	_, changed = p.finish()
	assert.False(t, changed)
}

func TestProgressTrackerTickBeforeTrickle(t *testing.T) {
	var p progressTracker
	_, changed := p.tick(time.Now())
	assert.False(t, changed)
}
