package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielemils/new-alice/internal/conversion"
	"github.com/danielemils/new-alice/internal/services"
)

func TestRecorderCounts(t *testing.T) {
	r := New("")
	ctx := context.Background()

	require.NoError(t, r.FileConverted(ctx, "job", conversion.FileResult{Seconds: 600, Elapsed: 12 * time.Second, Calibration: 1.4}))
	require.NoError(t, r.OutputDelivered(ctx, "job", conversion.Output{Kind: conversion.OutputSegment, Seconds: 3600}))
	require.NoError(t, r.OutputDelivered(ctx, "job", conversion.Output{Kind: conversion.OutputMerged, Seconds: 1500, Members: 2}))

	assert.InDelta(t, 1, testutil.ToFloat64(r.filesTotal), 1e-9)
	assert.InDelta(t, 600, testutil.ToFloat64(r.inputSeconds), 1e-9)
	assert.InDelta(t, 1.4, testutil.ToFloat64(r.calibration), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(r.outputsTotal.WithLabelValues("merged")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(r.mergesTotal), 1e-9)
	assert.InDelta(t, 5100, testutil.ToFloat64(r.outputSeconds), 1e-9)
}

func TestJobFinishedWritesTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textfile", "alice.prom")
	r := New(path)
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	failure := services.Wrap(services.ErrExternalTool, "effects", "run", "", errors.New("exit status 2"))
	require.NoError(t, r.JobFinished(context.Background(), conversion.Summary{
		Outcome: conversion.OutcomeFailed, Err: failure, Started: start, Finished: start.Add(time.Minute),
	}))

	assert.InDelta(t, 1, testutil.ToFloat64(r.jobsTotal.WithLabelValues("failed", "external_tool")), 1e-9)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `alice_jobs_total{failure_kind="external_tool",outcome="failed"} 1`)
	assert.Contains(t, string(data), "alice_last_job_finished_timestamp_seconds")
}
