package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/danielemils/new-alice/internal/config"
	"github.com/danielemils/new-alice/internal/conversion"
	"github.com/danielemils/new-alice/internal/effects"
	"github.com/danielemils/new-alice/internal/logging"
	"github.com/danielemils/new-alice/internal/metrics"
	"github.com/danielemils/new-alice/internal/preflight"
	"github.com/danielemils/new-alice/internal/scratch"
)

var errAlreadyRunning = errors.New("another alice conversion is running")

type convertFlags struct {
	outputDir  string
	noise      bool
	compressor bool
	frequency  float64
	chunk      bool
	plain      bool
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "convert FILE...",
		Short: "Apply tremolo effects to a batch of audio files",
		Long: `Convert every FILE in order, applying the tremolo effect chain.

Effect defaults come from the [effects] section of the configuration and can
be overridden per run. Press Ctrl-C to cancel; the file in progress is
discarded and finished outputs are kept.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			settings := resolveSettings(cmd, cfg, flags)
			return runConvert(cmd, ctx, cfg, args, flags, settings)
		},
	}

	defaults := effects.Default()
	cmd.Flags().StringVarP(&flags.outputDir, "output", "o", "", "Output folder (defaults to paths.output_dir)")
	cmd.Flags().BoolVar(&flags.noise, "noise", defaults.Noise, "Mix a brown noise bed under the audio")
	cmd.Flags().BoolVar(&flags.compressor, "compressor", defaults.Compressor, "Apply dynamic range compression")
	cmd.Flags().Float64Var(&flags.frequency, "frequency", defaults.Frequency, "Tremolo frequency in Hz (30-50)")
	cmd.Flags().BoolVar(&flags.chunk, "chunk", defaults.ChunkIntoHours, "Re-chunk outputs into roughly one hour files")
	cmd.Flags().BoolVar(&flags.plain, "plain", false, "Print plain progress lines even on a terminal")
	return cmd
}

// resolveSettings starts from the configured defaults and applies only the
// flags the user set explicitly.
func resolveSettings(cmd *cobra.Command, cfg *config.Config, flags convertFlags) effects.Settings {
	s := cfg.EffectSettings()
	changed := cmd.Flags().Changed
	if changed("noise") {
		s.Noise = flags.noise
	}
	if changed("compressor") {
		s.Compressor = flags.compressor
	}
	if changed("frequency") {
		s.Frequency = flags.frequency
	}
	if changed("chunk") {
		s.ChunkIntoHours = flags.chunk
	}
	return s.Normalized()
}

func runConvert(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, args []string, flags convertFlags, settings effects.Settings) error {
	if dir := strings.TrimSpace(flags.outputDir); dir != "" {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return fmt.Errorf("resolve output folder: %w", err)
		}
		cfg.Paths.OutputDir = expanded
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
	}
	inputs := make([]string, 0, len(args))
	for _, arg := range args {
		expanded, err := config.ExpandPath(arg)
		if err != nil {
			return fmt.Errorf("resolve input %q: %w", arg, err)
		}
		inputs = append(inputs, expanded)
	}

	if err := preflight.Err(preflight.RunAll(cfg)); err != nil {
		return err
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errAlreadyRunning
	}
	defer func() { _ = lock.Unlock() }()

	logger, err := ctx.ensureLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := ctx.openHistory()
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	if n, err := store.MarkInterrupted(cmd.Context()); err != nil {
		logger.Warn("mark interrupted jobs", logging.Error(err))
	} else if n > 0 {
		logger.Info("marked interrupted jobs", logging.Int("count", int(n)))
	}
	if swept := scratch.Sweep(cfg.Paths.TempDir, logger); len(swept.Errors) > 0 {
		logger.Warn("scratch sweep incomplete", logging.Int("errors", len(swept.Errors)))
	}

	job, err := conversion.NewJob(inputs, cfg.Paths.OutputDir, settings)
	if err != nil {
		return err
	}
	recorder := conversion.MultiRecorder{store, metrics.New(cfg.Metrics.Textfile)}
	conv := conversion.New(cfg, logger, conversion.WithRecorder(recorder))

	events, err := conv.Submit(context.WithoutCancel(cmd.Context()), job)
	if err != nil {
		return err
	}
	logger.Info("job submitted",
		logging.String("job_id", job.ID),
		logging.Int("inputs", len(job.Inputs)),
		logging.String("settings", settings.String()),
	)

	signalCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-signalCtx.Done()
		conv.Cancel()
	}()

	out := cmd.OutOrStdout()
	renderer := newProgressRenderer(out, !flags.plain && isTerminal(out))
	var final conversion.Event
	for ev := range events {
		renderer.handle(ev)
		if ev.Kind == conversion.EventFinished {
			final = ev
		}
	}
	return finishError(final)
}

// finishError maps the finished event to the command's exit error.
func finishError(ev conversion.Event) error {
	switch ev.Outcome {
	case conversion.OutcomeCompleted:
		return nil
	case conversion.OutcomeCancelled:
		return fmt.Errorf("conversion cancelled: %w", context.Canceled)
	default:
		if ev.Err != nil {
			return ev.Err
		}
		return errors.New("conversion failed")
	}
}
