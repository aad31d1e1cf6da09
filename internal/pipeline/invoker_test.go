package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielemils/new-alice/internal/effects"
	"github.com/danielemils/new-alice/internal/logging"
	"github.com/danielemils/new-alice/internal/pipeline"
	"github.com/danielemils/new-alice/internal/services"
	"github.com/danielemils/new-alice/internal/testsupport"
)

type observer struct {
	mu        sync.Mutex
	tasks     []string
	progress  []int
	unplanned int
}

func (o *observer) Task(label string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tasks = append(o.tasks, label)
}

func (o *observer) Progress(percent int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress = append(o.progress, percent)
}

func (o *observer) Waited(_ time.Duration, unplanned bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if unplanned {
		o.unplanned++
	}
}

func newInvoker(fake *testsupport.FakeSox) *pipeline.Invoker {
	return pipeline.New("sox", fake,
		pipeline.WithPollInterval(5*time.Millisecond),
		pipeline.WithTerminateGrace(time.Second),
		pipeline.WithLogger(logging.NewNop()),
	)
}

func newRequest(t *testing.T, seconds float64, settings effects.Settings, kv ...string) pipeline.Request {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "input.mp3")
	testsupport.WriteAudio(t, input, seconds, kv...)
	return pipeline.Request{
		Input:      input,
		Output:     filepath.Join(dir, "converted.mp3"),
		ScratchDir: dir,
		Settings:   settings,
	}
}

func TestConvertPlain(t *testing.T) {
	fake := &testsupport.FakeSox{}
	obs := &observer{}
	req := newRequest(t, 600, effects.NewSettings(false, true, 40, false))

	result, err := newInvoker(fake).Convert(context.Background(), req, obs)
	require.NoError(t, err)

	assert.Equal(t, []string{testsupport.OpStat, testsupport.OpEffects}, fake.Ops())
	require.Len(t, result.Outputs, 1)
	assert.Equal(t, req.Output, result.Outputs[0].Path)
	assert.InDelta(t, 600, testsupport.AudioDuration(t, req.Output), 1e-9)
	assert.Equal(t, []int{0, 45, 90, 99}, obs.progress)
	assert.Equal(t, []string{pipeline.TaskEffects, pipeline.TaskFinishing}, obs.tasks)
	assert.Zero(t, obs.unplanned)
}

func TestConvertFixesDCOffsetAndMixesNoise(t *testing.T) {
	fake := &testsupport.FakeSox{}
	obs := &observer{}
	req := newRequest(t, 120, effects.NewSettings(true, true, 40, false), "mean", "0.031", "volume", "1.5")

	_, err := newInvoker(fake).Convert(context.Background(), req, obs)
	require.NoError(t, err)

	assert.Equal(t, []string{testsupport.OpStat, testsupport.OpDCShift, testsupport.OpNoise, testsupport.OpEffects}, fake.Ops())
	assert.Equal(t, []string{pipeline.TaskDCOffset, pipeline.TaskNoise, pipeline.TaskEffects, pipeline.TaskFinishing}, obs.tasks)
	assert.Positive(t, obs.unplanned)

	calls := fake.Calls()
	dcArgs := calls[1].Args
	assert.Equal(t, "-0.031", dcArgs[len(dcArgs)-1])
	effectArgs := calls[3].Args
	assert.Contains(t, effectArgs, "-m")
	assert.Contains(t, effectArgs, "1.5")
	// effects read the corrected intermediate, not the original input
	assert.Contains(t, effectArgs, dcArgs[1])

	// intermediates are gone once the file finishes
	assert.ElementsMatch(t, []string{"converted.mp3", "input.mp3"}, testsupport.ListFiles(t, req.ScratchDir))
}

func TestConvertSplits(t *testing.T) {
	fake := &testsupport.FakeSox{}
	req := newRequest(t, 2*3600+500, effects.NewSettings(false, false, 40, true))
	req.SplitAt = 3600

	result, err := newInvoker(fake).Convert(context.Background(), req, &observer{})
	require.NoError(t, err)

	require.Len(t, result.Outputs, 3)
	var got []float64
	for _, seg := range result.Outputs {
		got = append(got, testsupport.AudioDuration(t, seg.Path))
	}
	assert.Equal(t, []float64{3600, 3600, 500}, got)
	assert.Equal(t, "003", result.Outputs[2].Number)
	_, err = os.Stat(req.Output)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConvertStatFailureUsesDefaults(t *testing.T) {
	fake := &testsupport.FakeSox{FailOn: testsupport.OpIs(testsupport.OpStat)}
	req := newRequest(t, 60, effects.NewSettings(false, false, 40, false), "mean", "0.5")

	_, err := newInvoker(fake).Convert(context.Background(), req, &observer{})
	require.NoError(t, err)
	assert.Equal(t, []string{testsupport.OpStat, testsupport.OpEffects}, fake.Ops())
	assert.Equal(t, "1", fake.Calls()[1].Args[2])
}

func TestConvertEffectFailureIsFatal(t *testing.T) {
	fake := &testsupport.FakeSox{FailOn: testsupport.OpIs(testsupport.OpEffects)}
	req := newRequest(t, 60, effects.NewSettings(true, false, 40, false))

	_, err := newInvoker(fake).Convert(context.Background(), req, &observer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrExternalTool)
	assert.False(t, services.IsStopping(err))
	assert.Equal(t, []string{"input.mp3"}, testsupport.ListFiles(t, req.ScratchDir))
}

func TestConvertCancelDuringEffects(t *testing.T) {
	started := make(chan testsupport.Call, 8)
	fake := &testsupport.FakeSox{
		BlockOn: testsupport.OpIs(testsupport.OpEffects),
		Started: started,
	}
	req := newRequest(t, 60, effects.NewSettings(false, false, 40, true))
	req.SplitAt = 3600
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for call := range started {
			if call.Op == testsupport.OpEffects {
				time.Sleep(20 * time.Millisecond)
				cancel()
				return
			}
		}
	}()

	_, err := newInvoker(fake).Convert(ctx, req, &observer{})
	require.Error(t, err)
	assert.True(t, services.IsStopping(err))
	assert.Equal(t, []string{"input.mp3"}, testsupport.ListFiles(t, req.ScratchDir))
}

func TestMergeAndTerminate(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp3")
	b := filepath.Join(dir, "b.mp3")
	testsupport.WriteAudio(t, a, 1000)
	testsupport.WriteAudio(t, b, 2000)
	out := filepath.Join(dir, "merged.mp3")

	fake := &testsupport.FakeSox{}
	obs := &observer{}
	inv := newInvoker(fake)
	require.NoError(t, inv.Merge(context.Background(), []string{a, b}, out, obs))
	assert.InDelta(t, 3000, testsupport.AudioDuration(t, out), 1e-9)
	assert.Equal(t, []string{pipeline.TaskMerging}, obs.tasks)

	// nothing running
	require.NoError(t, inv.Terminate())
}

func TestTerminateDuringMerge(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp3")
	b := filepath.Join(dir, "b.mp3")
	testsupport.WriteAudio(t, a, 1000)
	testsupport.WriteAudio(t, b, 2000)
	out := filepath.Join(dir, "merged.mp3")

	started := make(chan testsupport.Call, 1)
	fake := &testsupport.FakeSox{BlockOn: testsupport.OpIs(testsupport.OpMerge), Started: started}
	inv := newInvoker(fake)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- inv.Merge(ctx, []string{a, b}, out, &observer{}) }()
	<-started
	cancel()
	require.Eventually(t, func() bool { return inv.Terminate() == nil }, time.Second, 5*time.Millisecond)

	select {
	case err := <-errc:
		assert.True(t, services.IsStopping(err))
	case <-time.After(5 * time.Second):
		t.Fatal("merge did not unwind")
	}
	assert.False(t, slices.Contains(testsupport.ListFiles(t, dir), "merged.mp3"))
}
