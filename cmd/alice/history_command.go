package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielemils/new-alice/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history [JOB_ID]",
		Short: "List past conversion jobs or show one job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			if len(args) == 1 {
				return showJob(cmd, store, strings.TrimSpace(args[0]), asJSON)
			}
			jobs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, jobs)
			}
			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(jobColumns, buildJobRows(jobs)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of jobs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")

	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished jobs older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			store, err := ctx.openHistory()
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()
			removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 90*24*time.Hour, "Age cutoff, e.g. 720h")
	return cmd
}

type jobDetail struct {
	Job     *history.Job     `json:"job"`
	Files   []history.File   `json:"files"`
	Outputs []history.Output `json:"outputs"`
}

func showJob(cmd *cobra.Command, store *history.Store, prefix string, asJSON bool) error {
	job, err := store.Get(cmd.Context(), prefix)
	if err != nil {
		return err
	}
	files, err := store.Files(cmd.Context(), job.ID)
	if err != nil {
		return err
	}
	outputs, err := store.Outputs(cmd.Context(), job.ID)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd, jobDetail{Job: job, Files: files, Outputs: outputs})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job %s\n", job.ID)
	fmt.Fprintf(out, "  Status:   %s\n", job.Status)
	if job.ErrorMessage != "" {
		fmt.Fprintf(out, "  Error:    %s (%s)\n", job.ErrorMessage, job.FailureKind)
	}
	fmt.Fprintf(out, "  Settings: %s\n", job.Settings.String())
	fmt.Fprintf(out, "  Output:   %s\n", job.OutputDir)
	fmt.Fprintf(out, "  Started:  %s\n", formatDisplayTime(job.StartedAt))
	fmt.Fprintf(out, "  Elapsed:  %s\n", formatElapsed(job.Elapsed()))
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(fileColumns, buildFileRows(files)))
	if len(outputs) > 0 {
		fmt.Fprintln(out, renderTable(outputColumns, buildOutputRows(outputs)))
	}
	return nil
}

func buildJobRows(jobs []history.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			shortID(j.ID),
			string(j.Status),
			formatDisplayTime(j.StartedAt),
			fmt.Sprintf("%d", j.InputCount),
			formatRemaining(int(j.InputSeconds)),
			fmt.Sprintf("%d", j.Outputs),
			fmt.Sprintf("%d", j.Merges),
			formatElapsed(j.Elapsed()),
		})
	}
	return rows
}

func buildFileRows(files []history.File) [][]string {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		calibration := "-"
		if f.Calibration > 0 {
			calibration = fmt.Sprintf("%.2f", f.Calibration)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", f.Index+1),
			filepath.Base(f.InputPath),
			formatRemaining(int(f.Seconds)),
			formatElapsed(f.Elapsed),
			calibration,
		})
	}
	return rows
}

func buildOutputRows(outputs []history.Output) [][]string {
	rows := make([][]string, 0, len(outputs))
	for _, o := range outputs {
		rows = append(rows, []string{
			filepath.Base(o.Path),
			o.Kind,
			formatRemaining(int(o.Seconds)),
			fmt.Sprintf("%d", o.Members),
		})
	}
	return rows
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return formatRemaining(int(d.Round(time.Second) / time.Second))
}
