package conversion

import (
	"context"
	"errors"
	"time"
)

// OutputKind describes how a delivered file came to be.
type OutputKind string

const (
	OutputSingle  OutputKind = "single"
	OutputSegment OutputKind = "segment"
	OutputMerged  OutputKind = "merged"
)

// Output is one delivered file.
type Output struct {
	Path    string
	Seconds float64
	Kind    OutputKind
	// Members is the number of converted pieces concatenated into it.
	Members int
}

// FileResult describes one converted input.
type FileResult struct {
	Index       int
	Input       string
	Seconds     float64
	Elapsed     time.Duration
	Calibration float64
}

// Summary describes a finished job.
type Summary struct {
	JobID    string
	Outcome  Outcome
	Err      error
	Started  time.Time
	Finished time.Time
	Files    int
	Outputs  int
	Merges   int
}

// Recorder observes job milestones. Errors are logged and never stop a job.
type Recorder interface {
	JobStarted(ctx context.Context, job Job, durations []float64) error
	FileConverted(ctx context.Context, jobID string, file FileResult) error
	OutputDelivered(ctx context.Context, jobID string, out Output) error
	JobFinished(ctx context.Context, summary Summary) error
}

// MultiRecorder fans out to every recorder in order.
type MultiRecorder []Recorder

func (m MultiRecorder) JobStarted(ctx context.Context, job Job, durations []float64) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.JobStarted(ctx, job, durations))
	}
	return errors.Join(errs...)
}

func (m MultiRecorder) FileConverted(ctx context.Context, jobID string, file FileResult) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.FileConverted(ctx, jobID, file))
	}
	return errors.Join(errs...)
}

func (m MultiRecorder) OutputDelivered(ctx context.Context, jobID string, out Output) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.OutputDelivered(ctx, jobID, out))
	}
	return errors.Join(errs...)
}

func (m MultiRecorder) JobFinished(ctx context.Context, summary Summary) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.JobFinished(ctx, summary))
	}
	return errors.Join(errs...)
}
