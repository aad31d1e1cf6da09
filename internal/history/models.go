package history

import (
	"time"

	"github.com/danielemils/new-alice/internal/effects"
)

// Status is the lifecycle state of a recorded job.
type Status string

const (
	StatusRunning     Status = "running"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// Job is one recorded conversion job.
type Job struct {
	ID           string
	Status       Status
	OutputDir    string
	Settings     effects.Settings
	InputCount   int
	InputSeconds float64
	Files        int
	Outputs      int
	Merges       int
	FailureKind  string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Elapsed is the wall-clock run time, or zero while running.
func (j Job) Elapsed() time.Duration {
	if j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

// File is one converted input of a job.
type File struct {
	Index       int
	InputPath   string
	Seconds     float64
	Elapsed     time.Duration
	Calibration float64
}

// Output is one delivered file of a job.
type Output struct {
	Path      string
	Seconds   float64
	Kind      string
	Members   int
	CreatedAt time.Time
}

// Totals aggregates every recorded job.
type Totals struct {
	Jobs          int
	ByStatus      map[Status]int
	Outputs       int
	OutputSeconds float64
}
