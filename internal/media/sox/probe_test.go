package sox_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/danielemils/new-alice/internal/logging"
	"github.com/danielemils/new-alice/internal/media/sox"
	"github.com/danielemils/new-alice/internal/testsupport"
)

func TestProberReadsDurations(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp3")
	b := filepath.Join(dir, "b.mp3")
	testsupport.WriteAudio(t, a, 7700)
	testsupport.WriteAudio(t, b, 12.5)

	fake := &testsupport.FakeSox{}
	prober := sox.NewProber("sox", fake, time.Second, logging.NewNop())

	got := prober.ProbeAll(context.Background(), []string{a, b})
	assert.Equal(t, []float64{7700, 12.5}, got)
	assert.Equal(t, 2, fake.Count(testsupport.OpProbe))
}

func TestProberFallsBack(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.mp3")
	failing := filepath.Join(dir, "failing.mp3")
	testsupport.WriteAudio(t, failing, 30)

	fake := &testsupport.FakeSox{FailOn: func(c testsupport.Call) bool {
		return c.Args[len(c.Args)-1] == failing
	}}
	prober := sox.NewProber("sox", fake, time.Second, logging.NewNop())

	assert.Equal(t, sox.FallbackDuration, prober.Probe(context.Background(), missing))
	assert.Equal(t, sox.FallbackDuration, prober.Probe(context.Background(), failing))
}
