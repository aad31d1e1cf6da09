package conversion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/danielemils/new-alice/internal/estimate"
	"github.com/danielemils/new-alice/internal/fileutil"
	"github.com/danielemils/new-alice/internal/logging"
	"github.com/danielemils/new-alice/internal/media/sox"
	"github.com/danielemils/new-alice/internal/pipeline"
	"github.com/danielemils/new-alice/internal/planner"
	"github.com/danielemils/new-alice/internal/scratch"
	"github.com/danielemils/new-alice/internal/services"
	"github.com/danielemils/new-alice/internal/tags"
	"github.com/danielemils/new-alice/internal/textutil"
)

// worker owns one job from submission to EventFinished.
type worker struct {
	conv    *Converter
	job     Job
	invoker *pipeline.Invoker
	emit    *emitter
	logger  *slog.Logger

	scratch   string
	durations []float64
	est       *estimate.Estimator
	buf       planner.Buffer
	// tails marks buffered members that are split remainders.
	tails   map[string]bool
	summary Summary
}

func (w *worker) run(ctx context.Context, release func()) {
	w.summary = Summary{JobID: w.job.ID, Started: w.conv.now()}
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = services.Wrap(services.ErrTransient, "worker", "panic", fmt.Sprint(r), nil)
			logging.ErrorWithContext(w.logger, "conversion worker panicked", "worker_panic",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
		}
		w.cleanup()
		w.finish(ctx, err)
		release()
		w.emit.finished(w.summary.Outcome, w.summary.Err)
	}()
	err = w.execute(ctx)
}

func (w *worker) execute(ctx context.Context) error {
	ctx = services.WithJobID(ctx, w.job.ID)
	logger := logging.WithContext(ctx, w.logger)
	w.emit.task(pipeline.TaskInitializing)
	logger.Info("conversion started",
		logging.Int("inputs", len(w.job.Inputs)),
		logging.String("output_dir", w.job.OutputDir),
		logging.String("settings", w.job.Settings.String()),
		logging.String(logging.FieldEventType, "job_started"),
	)

	if err := os.MkdirAll(w.conv.tempDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "prepare", "temp dir", w.conv.tempDir, err)
	}
	dir, err := os.MkdirTemp(w.conv.tempDir, scratch.Pattern(w.job.ShortID()))
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "prepare", "scratch dir", "", err)
	}
	w.scratch = dir
	if err := os.MkdirAll(w.job.OutputDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "prepare", "output dir", w.job.OutputDir, err)
	}

	prober := sox.NewProber(w.conv.binary, w.conv.starter, w.conv.grace, w.conv.base)
	w.durations = prober.ProbeAll(ctx, w.job.Inputs)
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrStopping, "probe", "wait", "cancelled", err)
	}
	w.est = estimate.New(w.durations, w.job.Settings, planner.DefaultTarget)
	logger.Debug("estimate primed",
		logging.Int("pending_merges", w.est.PendingMerges()),
		logging.Float64("baseline", estimate.Baseline(w.job.Settings)),
	)
	w.record(ctx, "job started", func(ctx context.Context) error {
		return w.conv.recorder.JobStarted(ctx, w.job, w.durations)
	})

	total := len(w.job.Inputs)
	for i, input := range w.job.Inputs {
		if err := ctx.Err(); err != nil {
			return services.Wrap(services.ErrStopping, "convert", "next file", "cancelled", err)
		}
		fileCtx := services.WithFileIndex(ctx, i)
		w.emit.remaining(w.est.StartFile(i))
		w.emit.counter(CounterText(input, i, total))
		w.emit.task(pipeline.TaskPreparing)
		w.emit.progress(0)

		err := w.convertFile(fileCtx, i, input)
		w.emit.task(pipeline.TaskIdle)
		if err != nil {
			return err
		}
		w.summary.Files++
	}
	return nil
}

func (w *worker) convertFile(ctx context.Context, index int, input string) error {
	logger := logging.WithContext(ctx, w.logger)
	base := baseName(input)
	token := fmt.Sprintf("%03d-%s", index, textutil.ASCIIToken(base))
	scratchIn := filepath.Join(w.scratch, token+"-in"+inputExtension(input))
	scratchOut := filepath.Join(w.scratch, token+"-out"+OutputExtension)

	logger.Info("converting file",
		logging.String("input", input),
		logging.Float64("seconds", w.durations[index]),
		logging.Float64("estimate_seconds", w.est.CurrentEstimate()),
	)
	if err := fileutil.CopyFile(input, scratchIn); err != nil {
		return services.Wrap(services.ErrNotFound, "prepare", "copy input", filepath.Base(input), err)
	}
	defer w.remove(logger, scratchIn)

	chunking := w.job.Settings.ChunkIntoHours
	req := pipeline.Request{
		Input:      scratchIn,
		Output:     scratchOut,
		ScratchDir: w.scratch,
		Settings:   w.job.Settings,
	}
	segs, split := planner.Split(w.durations[index], planner.DefaultTarget)
	if chunking && split {
		req.SplitAt = planner.DefaultTarget
	}

	result, err := w.invoker.Convert(ctx, req, &fileObserver{emit: w.emit, est: w.est})
	if err != nil {
		return err
	}
	w.est.RecordElapsed(result.Elapsed)
	w.record(ctx, "file converted", func(ctx context.Context) error {
		return w.conv.recorder.FileConverted(ctx, w.job.ID, FileResult{
			Index:       index,
			Input:       input,
			Seconds:     w.durations[index],
			Elapsed:     result.Elapsed,
			Calibration: w.est.Calibration(),
		})
	})

	destination := DestinationPath(w.job.OutputDir, base)
	if !chunking {
		defer w.remove(logger, result.Outputs[0].Path)
		return w.deliver(ctx, result.Outputs[0].Path, destination, Output{
			Seconds: w.durations[index], Kind: OutputSingle, Members: 1,
		})
	}

	if req.SplitAt > 0 {
		if len(result.Outputs) != segs.Full+1 {
			logger.Warn("segment count differs from plan",
				logging.Int("planned", segs.Full+1),
				logging.Int("written", len(result.Outputs)),
				logging.Alert("split_mismatch"),
			)
		}
		last := len(result.Outputs) - 1
		for _, seg := range result.Outputs[:last] {
			err := w.deliver(ctx, seg.Path, SegmentPath(destination, seg.Number), Output{
				Seconds: planner.DefaultTarget, Kind: OutputSegment, Members: 1,
			})
			w.remove(logger, seg.Path)
			if err != nil {
				return err
			}
		}
		tail := result.Outputs[last]
		w.tails[tail.Path] = true
		w.buf.Append(planner.Member{
			Path:              tail.Path,
			Duration:          planner.PlannedDuration(w.durations[index], planner.DefaultTarget),
			Destination:       SegmentPath(destination, tail.Number),
			MergedDestination: SegmentMergedPath(destination, tail.Number),
		})
	} else {
		w.buf.Append(planner.Member{
			Path:              result.Outputs[0].Path,
			Duration:          w.durations[index],
			Destination:       destination,
			MergedDestination: MergedPath(w.job.OutputDir, base),
		})
	}

	flush := planner.FlushAfter(w.buf.Duration(), w.durations, index, planner.DefaultTarget)
	decision, reason := "carry", "buffer below target"
	if flush {
		decision, reason = "flush", "target reached or next input too long"
	}
	attrs := append(logging.DecisionAttrs("merge_buffer", decision, reason),
		logging.Int("members", w.buf.Len()),
		logging.Float64("buffered_seconds", w.buf.Duration()),
	)
	logger.Debug("merge buffer decision", logging.Args(attrs...)...)
	if !flush {
		return nil
	}
	return w.flush(ctx)
}

// flush delivers the merge buffer: a lone member is delivered as is, two or
// more are concatenated first.
func (w *worker) flush(ctx context.Context) error {
	logger := logging.WithContext(ctx, w.logger)
	seconds := w.buf.Duration()
	destination := w.buf.Destination()
	members := w.buf.Drain()
	paths := make([]string, len(members))
	tail := false
	for i, m := range members {
		paths[i] = m.Path
		tail = tail || w.tails[m.Path]
		delete(w.tails, m.Path)
	}
	defer func() {
		if err := fileutil.RemoveFiles(paths...); err != nil {
			logger.Warn("remove merged members", logging.Error(err))
		}
	}()

	if len(members) == 1 {
		kind := OutputSingle
		if tail {
			kind = OutputSegment
		}
		return w.deliver(ctx, members[0].Path, members[0].Destination, Output{
			Seconds: seconds, Kind: kind, Members: 1,
		})
	}

	w.est.MergeStarted()
	merged := filepath.Join(w.scratch, fmt.Sprintf("merge-%03d%s", w.summary.Merges, OutputExtension))
	logger.Info("merging buffered files",
		logging.Int("members", len(members)),
		logging.Float64("seconds", seconds),
		logging.String("destination", destination),
	)
	if err := w.invoker.Merge(ctx, paths, merged, &fileObserver{emit: w.emit, est: w.est}); err != nil {
		return err
	}
	defer w.remove(logger, merged)
	w.summary.Merges++
	return w.deliver(ctx, merged, destination, Output{
		Seconds: seconds, Kind: OutputMerged, Members: len(members),
	})
}

func (w *worker) deliver(ctx context.Context, src, dst string, out Output) error {
	if err := w.conv.normalizer.Deliver(ctx, src, dst, tags.Passes(w.job.Settings.Noise)); err != nil {
		return err
	}
	w.summary.Outputs++
	out.Path = dst
	w.record(ctx, "output delivered", func(ctx context.Context) error {
		return w.conv.recorder.OutputDelivered(ctx, w.job.ID, out)
	})
	return nil
}

func (w *worker) finish(ctx context.Context, err error) {
	s := &w.summary
	s.Finished = w.conv.now()
	s.Err = err
	logger := logging.WithContext(services.WithJobID(ctx, w.job.ID), w.logger)
	elapsed := s.Finished.Sub(s.Started).Round(time.Millisecond)
	switch {
	case err == nil:
		s.Outcome = OutcomeCompleted
		logger.Info("conversion completed",
			logging.Int("files", s.Files),
			logging.Int("outputs", s.Outputs),
			logging.Int("merges", s.Merges),
			logging.Duration("elapsed", elapsed),
			logging.String(logging.FieldEventType, "job_completed"),
		)
	case services.IsStopping(err):
		s.Outcome = OutcomeCancelled
		s.Err = nil
		logger.Info("conversion cancelled",
			logging.Int("files", s.Files),
			logging.Duration("elapsed", elapsed),
			logging.String(logging.FieldEventType, "job_cancelled"),
		)
	default:
		s.Outcome = OutcomeFailed
		logging.ErrorWithContext(logger, "conversion failed", "job_failed",
			logging.Error(err),
			logging.String("failure_kind", services.FailureKind(err)),
			logging.String(logging.FieldErrorHint, failureHint(err)),
			logging.String(logging.FieldImpact, "remaining files were not converted"),
		)
	}
	w.record(ctx, "job finished", func(ctx context.Context) error {
		return w.conv.recorder.JobFinished(ctx, *s)
	})
}

func (w *worker) cleanup() {
	if w.scratch == "" {
		return
	}
	if err := os.RemoveAll(w.scratch); err != nil {
		w.logger.Warn("remove scratch directory", logging.String("path", w.scratch), logging.Error(err))
	}
}

// record runs a recorder hook detached from job cancellation so milestones
// of a cancelled job are still written.
func (w *worker) record(ctx context.Context, what string, hook func(context.Context) error) {
	if err := hook(context.WithoutCancel(ctx)); err != nil {
		w.logger.Warn("record "+what, logging.Error(err))
	}
}

func (w *worker) remove(logger *slog.Logger, path string) {
	if err := fileutil.RemoveFiles(path); err != nil {
		logger.Warn("remove scratch file", logging.String("path", path), logging.Error(err))
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrExternalTool):
		return "check that sox is installed and can read the input format"
	case errors.Is(err, services.ErrNotFound):
		return "check that the input files still exist"
	case errors.Is(err, services.ErrConfiguration):
		return "check that the output and temp folders are writable"
	default:
		return "see the log file for details"
	}
}

// inputExtension keeps the extension SoX uses to pick a format handler,
// stripped of anything it cannot cope with.
func inputExtension(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	return "." + textutil.ASCIIToken(ext[1:])
}

// fileObserver forwards pipeline updates to the event stream and keeps the
// remaining-time estimate moving while processes run.
type fileObserver struct {
	emit *emitter
	est  *estimate.Estimator
}

func (o *fileObserver) Task(label string) { o.emit.task(label) }

func (o *fileObserver) Progress(percent int) { o.emit.progress(percent) }

func (o *fileObserver) Waited(elapsed time.Duration, unplanned bool) {
	var (
		seconds int
		changed bool
	)
	if unplanned {
		seconds, changed = o.est.Extend(elapsed)
	} else {
		seconds, changed = o.est.Decay(elapsed)
	}
	if changed {
		o.emit.remaining(seconds)
	}
}
