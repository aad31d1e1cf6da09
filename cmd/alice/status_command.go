package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/danielemils/new-alice/internal/config"
	"github.com/danielemils/new-alice/internal/history"
	"github.com/danielemils/new-alice/internal/preflight"
	"github.com/danielemils/new-alice/internal/scratch"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, dependency, and job status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)

			var lines []string
			lines = append(lines, renderSectionHeader("System", colorize)...)
			configLine := ctx.configPath
			if !ctx.configSeen {
				configLine += " (not found, defaults in use)"
			}
			lines = append(lines, renderStatusLine("Config", statusInfo, configLine, colorize))
			lines = append(lines, checkLines(preflight.RunAll(cfg), colorize)...)
			line, converting := converterLine(cfg, colorize)
			lines = append(lines, line, scratchLine(cfg, converting, colorize))

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Defaults", colorize)...)
			s := cfg.EffectSettings()
			lines = append(lines,
				renderStatusLine("Noise", statusInfo, yesNo(s.Noise), colorize),
				renderStatusLine("Compressor", statusInfo, yesNo(s.Compressor), colorize),
				renderStatusLine("Frequency", statusInfo, fmt.Sprintf("%g Hz", s.Frequency), colorize),
				renderStatusLine("Chunk into hours", statusInfo, yesNo(s.ChunkIntoHours), colorize),
			)

			store, err := ctx.openHistory()
			if err != nil {
				lines = append(lines, "", renderStatusLine("History", statusWarn, err.Error(), colorize))
			} else {
				defer store.Close()
				historyLines, err := historySummaryLines(cmd, store, colorize)
				if err != nil {
					return err
				}
				lines = append(lines, "")
				lines = append(lines, historyLines...)
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func checkLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}

// converterLine probes the instance lock without holding it.
func converterLine(cfg *config.Config, colorize bool) (string, bool) {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryRLock()
	if err != nil {
		return renderStatusLine("Converter", statusWarn, err.Error(), colorize), false
	}
	if !ok {
		return renderStatusLine("Converter", statusOK, "Converting", colorize), true
	}
	_ = lock.Unlock()
	return renderStatusLine("Converter", statusInfo, "Idle", colorize), false
}

func scratchLine(cfg *config.Config, converting bool, colorize bool) string {
	dirs, err := scratch.List(cfg.Paths.TempDir)
	if err != nil {
		return renderStatusLine("Scratch", statusWarn, err.Error(), colorize)
	}
	if len(dirs) == 0 {
		return renderStatusLine("Scratch", statusOK, "clean", colorize)
	}
	if converting {
		return renderStatusLine("Scratch", statusInfo, fmt.Sprintf("%d dir(s) in use", len(dirs)), colorize)
	}
	var total int64
	for _, d := range dirs {
		total += d.Size
	}
	msg := fmt.Sprintf("%d leftover dir(s), %s (removed by the next convert)", len(dirs), humanize.Bytes(uint64(total)))
	return renderStatusLine("Scratch", statusWarn, msg, colorize)
}

func historySummaryLines(cmd *cobra.Command, store *history.Store, colorize bool) ([]string, error) {
	lines := renderSectionHeader("History", colorize)
	totals, err := store.Totals(cmd.Context())
	if err != nil {
		return nil, err
	}
	lines = append(lines, renderStatusLine("Jobs", statusInfo, fmt.Sprintf("%d (%s)", totals.Jobs, formatStatusCounts(totals.ByStatus)), colorize))
	lines = append(lines, renderStatusLine("Delivered", statusInfo, fmt.Sprintf("%d files, %s of audio", totals.Outputs, formatRemaining(int(totals.OutputSeconds))), colorize))

	latest, err := store.Latest(cmd.Context())
	if err != nil {
		return nil, err
	}
	if latest == nil {
		lines = append(lines, renderStatusLine("Last job", statusInfo, "none", colorize))
		return lines, nil
	}
	kind := statusOK
	switch latest.Status {
	case history.StatusFailed, history.StatusInterrupted:
		kind = statusError
	case history.StatusCancelled:
		kind = statusWarn
	case history.StatusRunning:
		kind = statusInfo
	}
	msg := fmt.Sprintf("%s %s %s", shortID(latest.ID), latest.Status, formatDisplayTime(latest.StartedAt))
	lines = append(lines, renderStatusLine("Last job", kind, msg, colorize))
	return lines, nil
}

func formatStatusCounts(counts map[history.Status]int) string {
	order := []history.Status{
		history.StatusCompleted,
		history.StatusCancelled,
		history.StatusFailed,
		history.StatusInterrupted,
		history.StatusRunning,
	}
	parts := make([]string, 0, len(order))
	for _, status := range order {
		if n := counts[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func formatDisplayTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
