package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danielemils/new-alice/internal/conversion"
	"github.com/danielemils/new-alice/internal/services"
)

var _ conversion.Recorder = (*Store)(nil)

// JobStarted inserts a running job row and its planned inputs.
func (s *Store) JobStarted(ctx context.Context, job conversion.Job, durations []float64) error {
	settings, err := json.Marshal(job.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	total := 0.0
	for _, d := range durations {
		total += d
	}

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO jobs (id, status, output_dir, settings_json, input_count, input_seconds, started_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			job.ID, string(StatusRunning), job.OutputDir, string(settings), len(job.Inputs), total, formatTime(s.now()),
		); err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		for i, in := range job.Inputs {
			seconds := 0.0
			if i < len(durations) {
				seconds = durations[i]
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO job_files (job_id, file_index, input_path, seconds) VALUES (?, ?, ?, ?)`,
				job.ID, i, in, seconds,
			); err != nil {
				return fmt.Errorf("insert job file: %w", err)
			}
		}
		return tx.Commit()
	})
}

// FileConverted stores timing for a finished input.
func (s *Store) FileConverted(ctx context.Context, jobID string, file conversion.FileResult) error {
	_, err := s.exec(ctx,
		`UPDATE job_files SET elapsed_ms = ?, calibration = ? WHERE job_id = ? AND file_index = ?`,
		file.Elapsed.Milliseconds(), file.Calibration, jobID, file.Index,
	)
	if err != nil {
		return fmt.Errorf("update job file: %w", err)
	}
	return nil
}

// OutputDelivered appends a delivered file.
func (s *Store) OutputDelivered(ctx context.Context, jobID string, out conversion.Output) error {
	_, err := s.exec(ctx,
		`INSERT INTO outputs (job_id, path, seconds, kind, members, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		jobID, out.Path, out.Seconds, string(out.Kind), out.Members, formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("insert output: %w", err)
	}
	return nil
}

// JobFinished closes the job row.
func (s *Store) JobFinished(ctx context.Context, summary conversion.Summary) error {
	var errMsg any
	if summary.Err != nil {
		errMsg = summary.Err.Error()
	}
	var kind any
	if k := services.FailureKind(summary.Err); k != "" {
		kind = k
	}
	_, err := s.exec(ctx,
		`UPDATE jobs SET status = ?, files = ?, outputs = ?, merges = ?, failure_kind = ?, error_message = ?, finished_at = ?
		 WHERE id = ?`,
		string(statusFor(summary.Outcome)), summary.Files, summary.Outputs, summary.Merges, kind, errMsg,
		formatTime(summary.Finished), summary.JobID,
	)
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	return nil
}

func statusFor(outcome conversion.Outcome) Status {
	switch outcome {
	case conversion.OutcomeCompleted:
		return StatusCompleted
	case conversion.OutcomeCancelled:
		return StatusCancelled
	default:
		return StatusFailed
	}
}
