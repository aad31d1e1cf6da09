// Package scratch names per-job scratch directories and sweeps the ones a
// crashed run left behind.
package scratch

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danielemils/new-alice/internal/logging"
)

// Prefix starts the name of every scratch directory Alice creates.
const Prefix = "alice-"

// Pattern is the os.MkdirTemp pattern for a job's scratch directory.
func Pattern(shortID string) string {
	return Prefix + shortID + "-"
}

// Dir describes one leftover scratch directory.
type Dir struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// SweepResult contains the outcome of a sweep.
type SweepResult struct {
	Removed []string
	Errors  []SweepError
}

// SweepError pairs a directory path with its removal error.
type SweepError struct {
	Path  string
	Error error
}

// Sweep removes every scratch directory under tempDir. Callers must hold the
// instance lock so no live job owns one of them.
func Sweep(tempDir string, logger *slog.Logger) SweepResult {
	var result SweepResult
	dirs, err := List(tempDir)
	if err != nil {
		result.Errors = append(result.Errors, SweepError{Path: tempDir, Error: err})
		return result
	}
	for _, dir := range dirs {
		if err := os.RemoveAll(dir.Path); err != nil {
			result.Errors = append(result.Errors, SweepError{Path: dir.Path, Error: err})
			if logger != nil {
				logger.Warn("failed to remove leftover scratch directory",
					logging.String("path", dir.Path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "scratch_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "check temp_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, dir.Path)
		if logger != nil {
			logger.Info("removed leftover scratch directory",
				logging.String("path", dir.Path),
				logging.Duration("age", time.Since(dir.ModTime)),
				logging.String(logging.FieldEventType, "scratch_cleanup"),
			)
		}
	}
	return result
}

// List returns the scratch directories under tempDir. A missing tempDir is
// not an error.
func List(tempDir string) ([]Dir, error) {
	tempDir = strings.TrimSpace(tempDir)
	if tempDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []Dir
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), Prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(tempDir, entry.Name())
		size, _ := dirSize(path)
		dirs = append(dirs, Dir{
			Name:    entry.Name(),
			Path:    path,
			ModTime: info.ModTime(),
			Size:    size,
		})
	}
	return dirs, nil
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if info, infoErr := d.Info(); infoErr == nil {
				size += info.Size()
			}
		}
		return nil
	})
	return size, err
}
