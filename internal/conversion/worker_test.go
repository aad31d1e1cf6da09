package conversion

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielemils/new-alice/internal/effects"
	"github.com/danielemils/new-alice/internal/logging"
	"github.com/danielemils/new-alice/internal/planner"
	"github.com/danielemils/new-alice/internal/testsupport"
)

func TestFlushForgetsTailMembers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tail := filepath.Join(t.TempDir(), "000-a-out002.mp3")
	testsupport.WriteAudio(t, tail, 400)
	destination := filepath.Join(cfg.Paths.OutputDir, "a(Converted)002.mp3")

	w := &worker{
		conv:   New(cfg, logging.NewNop()),
		job:    Job{ID: "job", OutputDir: cfg.Paths.OutputDir, Settings: effects.Default()},
		logger: logging.NewNop(),
		tails:  map[string]bool{tail: true},
	}
	w.buf.Append(planner.Member{Path: tail, Duration: 400, Destination: destination})

	require.NoError(t, w.flush(context.Background()))
	assert.Empty(t, w.tails)
	assert.True(t, w.buf.Empty())
	assert.NoFileExists(t, tail)
	assert.FileExists(t, destination)
	assert.Equal(t, 1, w.summary.Outputs)
}
