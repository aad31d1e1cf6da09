// Package metrics exports conversion counters in the node-exporter textfile
// format so a scrape picks them up after each job.
package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danielemils/new-alice/internal/conversion"
	"github.com/danielemils/new-alice/internal/services"
)

var _ conversion.Recorder = (*Recorder)(nil)

// Recorder accumulates job metrics in its own registry and rewrites the
// textfile whenever a job finishes.
type Recorder struct {
	path     string
	registry *prometheus.Registry

	jobsTotal        *prometheus.CounterVec
	filesTotal       prometheus.Counter
	inputSeconds     prometheus.Counter
	outputsTotal     *prometheus.CounterVec
	outputSeconds    prometheus.Counter
	mergesTotal      prometheus.Counter
	fileDuration     prometheus.Histogram
	jobDuration      prometheus.Histogram
	calibration      prometheus.Gauge
	lastJobTimestamp prometheus.Gauge
}

// New creates a Recorder writing to path. An empty path keeps metrics in
// memory only.
func New(path string) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		path:     path,
		registry: reg,
		jobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alice_jobs_total",
			Help: "Conversion jobs by outcome and failure kind.",
		}, []string{"outcome", "failure_kind"}),
		filesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "alice_files_converted_total",
			Help: "Input files converted.",
		}),
		inputSeconds: factory.NewCounter(prometheus.CounterOpts{
			Name: "alice_input_audio_seconds_total",
			Help: "Seconds of input audio converted.",
		}),
		outputsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alice_outputs_delivered_total",
			Help: "Files delivered by kind (single, segment, merged).",
		}, []string{"kind"}),
		outputSeconds: factory.NewCounter(prometheus.CounterOpts{
			Name: "alice_output_audio_seconds_total",
			Help: "Planned seconds of delivered audio.",
		}),
		mergesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "alice_merges_total",
			Help: "Buffer concatenations performed.",
		}),
		fileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "alice_file_conversion_seconds",
			Help:    "Wall-clock time spent converting one input.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		jobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "alice_job_duration_seconds",
			Help:    "Wall-clock time of whole jobs.",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		}),
		calibration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "alice_estimate_calibration",
			Help: "Most recent time estimate calibration multiplier.",
		}),
		lastJobTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "alice_last_job_finished_timestamp_seconds",
			Help: "Unix time the last job finished.",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) JobStarted(context.Context, conversion.Job, []float64) error { return nil }

func (r *Recorder) FileConverted(_ context.Context, _ string, file conversion.FileResult) error {
	r.filesTotal.Inc()
	r.inputSeconds.Add(file.Seconds)
	r.fileDuration.Observe(file.Elapsed.Seconds())
	r.calibration.Set(file.Calibration)
	return nil
}

func (r *Recorder) OutputDelivered(_ context.Context, _ string, out conversion.Output) error {
	r.outputsTotal.WithLabelValues(string(out.Kind)).Inc()
	r.outputSeconds.Add(out.Seconds)
	if out.Kind == conversion.OutputMerged {
		r.mergesTotal.Inc()
	}
	return nil
}

func (r *Recorder) JobFinished(_ context.Context, summary conversion.Summary) error {
	r.jobsTotal.WithLabelValues(string(summary.Outcome), services.FailureKind(summary.Err)).Inc()
	if !summary.Finished.IsZero() {
		r.jobDuration.Observe(summary.Finished.Sub(summary.Started).Seconds())
		r.lastJobTimestamp.Set(float64(summary.Finished.Unix()))
	}
	return r.Flush()
}

// Flush writes the textfile. It is a no-op without a path.
func (r *Recorder) Flush() error {
	if r.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(r.path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
