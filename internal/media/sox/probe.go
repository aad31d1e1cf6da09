package sox

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielemils/new-alice/internal/logging"
)

// FallbackDuration is substituted when an input cannot be probed.
const FallbackDuration = 1.0

// Prober reads playable durations with `sox --i -D`.
type Prober struct {
	binary  string
	starter Starter
	grace   time.Duration
	logger  *slog.Logger
}

// NewProber constructs a Prober. A nil starter runs the real binary.
func NewProber(binary string, starter Starter, grace time.Duration, logger *slog.Logger) *Prober {
	if starter == nil {
		starter = CommandStarter{}
	}
	return &Prober{
		binary:  binary,
		starter: starter,
		grace:   grace,
		logger:  logging.NewComponentLogger(logger, "prober"),
	}
}

// Probe returns the duration of path in seconds. Any failure yields
// FallbackDuration and a warning; the job carries on.
func (p *Prober) Probe(ctx context.Context, path string) float64 {
	lines, err := Run(ctx, p.starter, p.binary, ProbeArgs(path), p.grace)
	if err == nil {
		var d float64
		if d, err = ParseDuration(lines); err == nil {
			p.logger.Debug("probed duration", logging.String("path", path), logging.Float64("seconds", d))
			return d
		}
	}
	logging.WarnWithContext(p.logger, "duration probe failed", "probe_fallback",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the file plays and that sox supports its format"),
		logging.String(logging.FieldImpact, "time estimate and chunk planning treat the file as 1 second long"),
	)
	return FallbackDuration
}

// ProbeAll probes every path in order.
func (p *Prober) ProbeAll(ctx context.Context, paths []string) []float64 {
	durations := make([]float64, len(paths))
	for i, path := range paths {
		durations[i] = p.Probe(ctx, path)
	}
	return durations
}
