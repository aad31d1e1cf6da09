package conversion

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielemils/new-alice/internal/effects"
	"github.com/danielemils/new-alice/internal/services"
)

// ErrJobRunning is returned by Submit while another job is in progress.
var ErrJobRunning = errors.New("a conversion job is already running")

// Job is an immutable batch of inputs converted with one set of effects.
type Job struct {
	ID        string
	Inputs    []string
	OutputDir string
	Settings  effects.Settings
	CreatedAt time.Time
}

// NewJob assigns an id and normalizes settings. The inputs slice is copied.
func NewJob(inputs []string, outputDir string, settings effects.Settings) (Job, error) {
	job := Job{
		ID:        uuid.NewString(),
		Inputs:    slices.Clone(inputs),
		OutputDir: outputDir,
		Settings:  settings.Normalized(),
		CreatedAt: time.Now().UTC(),
	}
	if err := job.Validate(); err != nil {
		return Job{}, err
	}
	return job, nil
}

// Validate checks that the job can be run.
func (j Job) Validate() error {
	if strings.TrimSpace(j.ID) == "" {
		return services.Wrap(services.ErrValidation, "submit", "validate", "job id is empty", nil)
	}
	if len(j.Inputs) == 0 {
		return services.Wrap(services.ErrValidation, "submit", "validate", "no input files", nil)
	}
	for _, in := range j.Inputs {
		if strings.TrimSpace(in) == "" {
			return services.Wrap(services.ErrValidation, "submit", "validate", "empty input path", nil)
		}
	}
	if strings.TrimSpace(j.OutputDir) == "" {
		return services.Wrap(services.ErrValidation, "submit", "validate", "no output folder", nil)
	}
	return nil
}

// ShortID is the prefix of the id used in scratch directory names.
func (j Job) ShortID() string {
	if len(j.ID) > 8 {
		return j.ID[:8]
	}
	return j.ID
}
