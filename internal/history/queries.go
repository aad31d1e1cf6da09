package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielemils/new-alice/internal/services"
)

const jobColumns = "id, status, output_dir, settings_json, input_count, input_seconds, files, outputs, merges, failure_kind, error_message, started_at, finished_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job         Job
		status      string
		settings    string
		failureKind sql.NullString
		errorMsg    sql.NullString
		startedRaw  sql.NullString
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&job.ID,
		&status,
		&job.OutputDir,
		&settings,
		&job.InputCount,
		&job.InputSeconds,
		&job.Files,
		&job.Outputs,
		&job.Merges,
		&failureKind,
		&errorMsg,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	job.Status = Status(status)
	if err := json.Unmarshal([]byte(settings), &job.Settings); err != nil {
		return nil, fmt.Errorf("decode settings for job %s: %w", job.ID, err)
	}
	job.FailureKind = failureKind.String
	job.ErrorMessage = errorMsg.String
	job.StartedAt = parseTime(startedRaw)
	job.FinishedAt = parseTime(finishedRaw)
	return &job, nil
}

// Recent returns up to limit jobs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// Get returns the job whose id starts with prefix. Ambiguous prefixes are a
// validation error; unknown ones wrap services.ErrNotFound.
func (s *Store) Get(ctx context.Context, prefix string) (*Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id LIKE ? || '%' ORDER BY started_at DESC LIMIT 2`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	defer rows.Close()

	var found []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, services.Wrap(services.ErrNotFound, "history", "get", "no job "+prefix, nil)
	case 1:
		return found[0], nil
	default:
		return nil, services.Wrap(services.ErrValidation, "history", "get", "job id prefix "+prefix+" is ambiguous", nil)
	}
}

// Latest returns the most recently started job, or nil when none exist.
func (s *Store) Latest(ctx context.Context) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY started_at DESC LIMIT 1`)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest job: %w", err)
	}
	return job, nil
}

// Files returns the inputs of a job in order.
func (s *Store) Files(ctx context.Context, jobID string) ([]File, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_index, input_path, seconds, elapsed_ms, calibration FROM job_files WHERE job_id = ? ORDER BY file_index`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list job files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var (
			f           File
			elapsedMS   sql.NullInt64
			calibration sql.NullFloat64
		)
		if err := rows.Scan(&f.Index, &f.InputPath, &f.Seconds, &elapsedMS, &calibration); err != nil {
			return nil, err
		}
		f.Elapsed = time.Duration(elapsedMS.Int64) * time.Millisecond
		f.Calibration = calibration.Float64
		files = append(files, f)
	}
	return files, rows.Err()
}

// Outputs returns the delivered files of a job in delivery order.
func (s *Store) Outputs(ctx context.Context, jobID string) ([]Output, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, seconds, kind, members, created_at FROM outputs WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	defer rows.Close()

	var outputs []Output
	for rows.Next() {
		var (
			o          Output
			createdRaw sql.NullString
		)
		if err := rows.Scan(&o.Path, &o.Seconds, &o.Kind, &o.Members, &createdRaw); err != nil {
			return nil, err
		}
		o.CreatedAt = parseTime(createdRaw)
		outputs = append(outputs, o)
	}
	return outputs, rows.Err()
}

// Totals aggregates job counts and delivered audio.
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	totals := Totals{ByStatus: make(map[Status]int)}
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return totals, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return totals, err
		}
		totals.ByStatus[Status(status)] = count
		totals.Jobs += count
	}
	if err := rows.Err(); err != nil {
		return totals, err
	}

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(1), COALESCE(SUM(seconds), 0) FROM outputs`).
		Scan(&totals.Outputs, &totals.OutputSeconds)
	if err != nil {
		return totals, fmt.Errorf("output stats: %w", err)
	}
	return totals, nil
}

// Prune deletes jobs that started before cutoff, along with their files and
// outputs. Running jobs are kept.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.exec(ctx,
		`DELETE FROM jobs WHERE started_at < ? AND status != ?`, formatTime(cutoff), string(StatusRunning))
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}
