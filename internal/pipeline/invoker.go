package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/danielemils/new-alice/internal/effects"
	"github.com/danielemils/new-alice/internal/fileutil"
	"github.com/danielemils/new-alice/internal/logging"
	"github.com/danielemils/new-alice/internal/media/sox"
	"github.com/danielemils/new-alice/internal/services"
)

// DefaultPollInterval is how often a running process is checked.
const DefaultPollInterval = 100 * time.Millisecond

// DefaultTerminateGrace is how long a process gets to exit after SIGTERM.
const DefaultTerminateGrace = 5 * time.Second

// Observer receives stage updates. Calls come from the goroutine running the
// stage.
type Observer interface {
	Task(label string)
	Progress(percent int)
	// Waited reports wall-clock time spent waiting on a process. unplanned is
	// true for work the time estimate never included.
	Waited(elapsed time.Duration, unplanned bool)
}

// Option configures the Invoker.
type Option func(*Invoker)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(v *Invoker) {
		if d > 0 {
			v.poll = d
		}
	}
}

// WithTerminateGrace overrides DefaultTerminateGrace.
func WithTerminateGrace(d time.Duration) Option {
	return func(v *Invoker) {
		if d > 0 {
			v.grace = d
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Invoker) {
		v.logger = logging.NewComponentLogger(logger, "pipeline")
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Invoker) {
		if now != nil {
			v.now = now
		}
	}
}

// Invoker sequences SoX processes. At most one process runs at a time.
type Invoker struct {
	binary  string
	starter sox.Starter
	poll    time.Duration
	grace   time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu     sync.Mutex
	active sox.Process
}

// New constructs an Invoker. A nil starter runs the real binary.
func New(binary string, starter sox.Starter, opts ...Option) *Invoker {
	if starter == nil {
		starter = sox.CommandStarter{}
	}
	v := &Invoker{
		binary:  binary,
		starter: starter,
		poll:    DefaultPollInterval,
		grace:   DefaultTerminateGrace,
		now:     time.Now,
		logger:  logging.NewComponentLogger(nil, "pipeline"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Request describes one file conversion.
type Request struct {
	// Input is the sanitized scratch copy of the source file.
	Input string
	// Output is the scratch path the converted audio is written to. When
	// splitting, SoX writes numbered siblings of it instead.
	Output string
	// ScratchDir receives stage intermediates.
	ScratchDir string
	Settings   effects.Settings
	// SplitAt, when positive, cuts the output into segments of this length.
	SplitAt float64
}

// Result describes a finished conversion.
type Result struct {
	// Outputs lists the converted files in order. Without splitting it holds
	// exactly Request.Output.
	Outputs []sox.Segment
	// Elapsed is the time spent in the effect stages, used for calibration.
	Elapsed time.Duration
}

// Convert runs every stage for one file. Intermediates are removed before it
// returns. On error no converted output is left behind.
func (v *Invoker) Convert(ctx context.Context, req Request, obs Observer) (Result, error) {
	logger := logging.WithContext(ctx, v.logger)
	started := v.now()

	input := req.Input
	stat := v.stat(ctx, input, obs, logger)
	if err := ctx.Err(); err != nil {
		return Result{}, services.Wrap(services.ErrStopping, StageStat, "wait", "cancelled", err)
	}

	if stat.NeedsDCShift() {
		fixed := v.scratchPath(req, "dc")
		logger.Info("correcting dc offset", logging.Float64("mean", stat.Mean))
		obs.Task(TaskDCOffset)
		if err := v.supervise(ctx, StageDCShift, sox.DCShiftArgs(input, fixed, stat.Mean), obs, true, nil); err != nil {
			_ = fileutil.RemoveFiles(fixed)
			return Result{}, err
		}
		defer v.remove(logger, fixed)
		input = fixed
	}

	var noise string
	if req.Settings.Noise {
		noise = v.scratchPath(req, "noise")
		obs.Task(TaskNoise)
		if err := v.supervise(ctx, StageNoise, sox.NoiseArgs(input, noise), obs, false, nil); err != nil {
			_ = fileutil.RemoveFiles(noise)
			return Result{}, err
		}
		defer v.remove(logger, noise)
	}

	obs.Task(TaskEffects)
	obs.Progress(0)
	args := sox.EffectArgs{
		Input:    input,
		Output:   req.Output,
		Noise:    noise,
		Volume:   stat.Volume,
		Settings: req.Settings,
		SplitAt:  req.SplitAt,
	}
	tracker := &progressTracker{}
	sampler := logging.NewProgressSampler(25)
	report := func(p int, changed bool) {
		if !changed {
			return
		}
		obs.Progress(p)
		if sampler.ShouldLog(p, TaskEffects) {
			logger.Debug("effects progress", logging.Int(logging.FieldProgressPercent, p))
		}
	}
	err := v.supervise(ctx, StageEffects, args.Args(), obs, false, &streamHooks{
		line: func(line string) {
			if raw, ok := sox.ParseProgress(line); ok {
				report(tracker.observe(raw, v.now()))
			}
		},
		tick: func(now time.Time) { report(tracker.tick(now)) },
	})
	if err != nil {
		v.discardOutputs(logger, req)
		return Result{}, err
	}
	report(tracker.finish())
	elapsed := v.now().Sub(started)
	obs.Task(TaskFinishing)

	outputs, err := v.collectOutputs(req)
	if err != nil {
		v.discardOutputs(logger, req)
		return Result{}, err
	}
	logger.Info("file converted",
		logging.Int("outputs", len(outputs)),
		logging.Duration("elapsed", elapsed),
		logging.String(logging.FieldEventType, "file_converted"),
	)
	return Result{Outputs: outputs, Elapsed: elapsed}, nil
}

// Merge concatenates inputs into out. A partial out is removed on error.
func (v *Invoker) Merge(ctx context.Context, inputs []string, out string, obs Observer) error {
	obs.Task(TaskMerging)
	if err := v.supervise(ctx, StageMerge, sox.MergeArgs(inputs, out), obs, false, nil); err != nil {
		v.remove(logging.WithContext(ctx, v.logger), out)
		return err
	}
	return nil
}

// Terminate stops the active process, if any, and waits for it to exit.
// It is safe to call from any goroutine.
func (v *Invoker) Terminate() error {
	v.mu.Lock()
	proc := v.active
	v.mu.Unlock()
	if proc == nil {
		return nil
	}
	return proc.Terminate(v.grace)
}

func (v *Invoker) stat(ctx context.Context, input string, obs Observer, logger *slog.Logger) sox.Stat {
	var lines []string
	err := v.supervise(ctx, StageStat, sox.StatArgs(input), obs, false, &streamHooks{
		line: func(line string) { lines = append(lines, line) },
	})
	if err != nil {
		if !services.IsStopping(err) {
			logging.WarnWithContext(logger, "statistics pass failed", "stat_fallback",
				logging.Error(err),
				logging.String(logging.FieldImpact, "dc offset is not corrected and volume is left unchanged"),
			)
		}
		return sox.DefaultStat
	}
	stat, err := sox.ParseStat(lines)
	if err != nil {
		logging.WarnWithContext(logger, "statistics output unreadable", "stat_fallback",
			logging.Error(err),
			logging.String(logging.FieldImpact, "unparsed fields use their defaults"),
		)
	}
	return stat
}

type streamHooks struct {
	line func(string)
	tick func(time.Time)
}

// supervise runs one process to completion, polling every v.poll. Observing a
// cancelled ctx terminates the process and returns an ErrStopping error.
func (v *Invoker) supervise(ctx context.Context, stage string, args []string, obs Observer, unplanned bool, hooks *streamHooks) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrStopping, stage, "start", "cancelled", err)
	}
	if hooks == nil {
		hooks = &streamHooks{}
	}
	logger := logging.WithContext(services.WithStage(ctx, stage), v.logger)
	logger.Debug("starting sox", logging.String("args", strings.Join(args, " ")))

	proc, err := v.starter.Start(v.binary, args)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stage, "start", "could not launch sox", err)
	}
	v.setActive(proc)
	defer v.setActive(nil)

	ticker := time.NewTicker(v.poll)
	defer ticker.Stop()
	last := v.now()
	lines := proc.Lines()
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if hooks.line != nil {
				hooks.line(line)
			}
		case <-ticker.C:
			now := v.now()
			obs.Waited(now.Sub(last), unplanned)
			last = now
			if hooks.tick != nil {
				hooks.tick(now)
			}
		case <-proc.Done():
			if lines != nil {
				for line := range lines {
					if hooks.line != nil {
						hooks.line(line)
					}
				}
			}
			obs.Waited(v.now().Sub(last), unplanned)
			if err := proc.Err(); err != nil {
				if ctx.Err() != nil {
					return services.Wrap(services.ErrStopping, stage, "wait", "process terminated", ctx.Err())
				}
				return services.Wrap(services.ErrExternalTool, stage, "run", "sox exited with an error", err)
			}
			return nil
		case <-ctx.Done():
			if err := proc.Terminate(v.grace); err != nil {
				logger.Warn("terminate sox", logging.Error(err))
			}
			return services.Wrap(services.ErrStopping, stage, "wait", "cancelled", ctx.Err())
		}
	}
}

func (v *Invoker) setActive(proc sox.Process) {
	v.mu.Lock()
	v.active = proc
	v.mu.Unlock()
}

func (v *Invoker) scratchPath(req Request, suffix string) string {
	ext := filepath.Ext(req.Input)
	stem := strings.TrimSuffix(filepath.Base(req.Input), ext)
	return filepath.Join(req.ScratchDir, stem+"-"+suffix+ext)
}

func (v *Invoker) collectOutputs(req Request) ([]sox.Segment, error) {
	if req.SplitAt <= 0 {
		if _, err := os.Stat(req.Output); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, StageEffects, "collect", "sox produced no output", err)
		}
		return []sox.Segment{{Path: req.Output}}, nil
	}
	segments, err := sox.SplitOutputs(req.Output)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, StageEffects, "collect", "list split outputs", err)
	}
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, StageEffects, "collect", "sox produced no segments", nil)
	}
	// the requested name itself stays empty when splitting
	_ = fileutil.RemoveFiles(req.Output)
	return segments, nil
}

func (v *Invoker) discardOutputs(logger *slog.Logger, req Request) {
	v.remove(logger, req.Output)
	if req.SplitAt <= 0 {
		return
	}
	segments, err := sox.SplitOutputs(req.Output)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("list partial segments", logging.Error(err))
		return
	}
	for _, seg := range segments {
		v.remove(logger, seg.Path)
	}
}

func (v *Invoker) remove(logger *slog.Logger, path string) {
	if err := fileutil.RemoveFiles(path); err != nil {
		logger.Warn("remove scratch file", logging.String("path", path), logging.Error(err))
	}
}
