package conversion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/danielemils/new-alice/internal/config"
	"github.com/danielemils/new-alice/internal/logging"
	"github.com/danielemils/new-alice/internal/media/sox"
	"github.com/danielemils/new-alice/internal/pipeline"
	"github.com/danielemils/new-alice/internal/tags"
)

// eventBuffer lets the worker run ahead of a slow consumer for a while.
const eventBuffer = 256

// Option configures a Converter.
type Option func(*Converter)

// WithStarter replaces the process starter, for tests.
func WithStarter(starter sox.Starter) Option {
	return func(c *Converter) {
		if starter != nil {
			c.starter = starter
		}
	}
}

// WithRecorder attaches a milestone recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Converter) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		if now != nil {
			c.now = now
		}
	}
}

// Converter runs at most one Job at a time.
type Converter struct {
	binary  string
	tempDir string
	poll    time.Duration
	grace   time.Duration

	starter    sox.Starter
	recorder   Recorder
	normalizer *tags.Normalizer
	base       *slog.Logger
	logger     *slog.Logger
	now        func() time.Time

	mu     sync.Mutex
	active *activeJob
	last   chan struct{}
}

type activeJob struct {
	id      string
	cancel  context.CancelFunc
	invoker *pipeline.Invoker
}

// New constructs a Converter from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Converter {
	c := &Converter{
		binary:   cfg.Sox.Binary,
		tempDir:  cfg.Paths.TempDir,
		poll:     cfg.PollInterval(),
		grace:    cfg.TerminateGrace(),
		starter:  sox.CommandStarter{},
		recorder: MultiRecorder(nil),
		base:     logger,
		logger:   logging.NewComponentLogger(logger, "converter"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.normalizer = tags.New(logger)
	return c
}

// Submit starts job on a new worker and returns its event stream. The
// stream ends with one EventFinished and is then closed; callers must drain
// it. Submit returns ErrJobRunning while another job is active.
func (c *Converter) Submit(ctx context.Context, job Job) (<-chan Event, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return nil, ErrJobRunning
	}

	jobCtx, cancel := context.WithCancel(ctx)
	invoker := pipeline.New(c.binary, c.starter,
		pipeline.WithPollInterval(c.poll),
		pipeline.WithTerminateGrace(c.grace),
		pipeline.WithLogger(c.base),
		pipeline.WithClock(c.now),
	)
	active := &activeJob{id: job.ID, cancel: cancel, invoker: invoker}
	events := make(chan Event, eventBuffer)
	done := make(chan struct{})
	c.active = active
	c.last = done

	w := &worker{
		conv:    c,
		job:     job,
		invoker: invoker,
		emit:    &emitter{jobID: job.ID, ch: events, now: c.now},
		logger:  c.logger,
		tails:   make(map[string]bool),
	}
	go func() {
		defer close(done)
		defer close(events)
		w.run(jobCtx, func() { c.release(active) })
	}()
	return events, nil
}

// Cancel stops the running job, if any. It is idempotent and safe to call
// from any goroutine. It returns once the active process has exited.
func (c *Converter) Cancel() {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()
	if active == nil {
		return
	}
	active.cancel()
	if err := active.invoker.Terminate(); err != nil {
		c.logger.Warn("terminate active process", logging.Error(err))
	}
}

// Running reports whether a job is in progress.
func (c *Converter) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Wait blocks until the most recently submitted job's worker has exited.
func (c *Converter) Wait() {
	c.mu.Lock()
	done := c.last
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (c *Converter) release(active *activeJob) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == active {
		active.cancel()
		c.active = nil
	}
}
