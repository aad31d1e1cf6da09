package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/danielemils/new-alice/internal/config"
	"github.com/danielemils/new-alice/internal/conversion"
)

func TestFormatRemaining(t *testing.T) {
	cases := map[int]string{
		-5:    "0:00:00",
		0:     "0:00:00",
		59:    "0:00:59",
		61:    "0:01:01",
		3600:  "1:00:00",
		45296: "12:34:56",
	}
	for in, want := range cases {
		if got := formatRemaining(in); got != want {
			t.Errorf("formatRemaining(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestPlainRendererPrintsTasksAndSampledProgress(t *testing.T) {
	var buf bytes.Buffer
	r := newProgressRenderer(&buf, false)
	for _, ev := range []conversion.Event{
		{Kind: conversion.EventTask, Task: "Initializing..."},
		{Kind: conversion.EventCounter, Counter: "a (0/2)"},
		{Kind: conversion.EventRemaining, Remaining: 90},
		{Kind: conversion.EventTask, Task: "Applying effects..."},
		{Kind: conversion.EventProgress, Percent: 0},
		{Kind: conversion.EventProgress, Percent: 10},
		{Kind: conversion.EventProgress, Percent: 30},
		{Kind: conversion.EventTask, Task: ""},
		{Kind: conversion.EventFinished, Outcome: conversion.OutcomeCompleted, Percent: 100},
	} {
		r.handle(ev)
	}

	want := []string{
		"[alice] Initializing...",
		"[a (0/2)] Applying effects...",
		"[a (0/2)] 0%",
		"[a (0/2)] 30%",
		"Conversion complete",
	}
	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLiveRendererRedrawsOneLine(t *testing.T) {
	var buf bytes.Buffer
	r := newProgressRenderer(&buf, true)
	r.handle(conversion.Event{Kind: conversion.EventCounter, Counter: "a (0/1)"})
	r.handle(conversion.Event{Kind: conversion.EventTask, Task: "Applying effects..."})
	r.handle(conversion.Event{Kind: conversion.EventProgress, Percent: 45})
	r.handle(conversion.Event{Kind: conversion.EventRemaining, Remaining: 3661})

	if line := r.statusLine(); line != "a (0/1)   45%  Applying effects...  remaining 1:01:01" {
		t.Fatalf("unexpected status line %q", line)
	}
	if strings.Contains(buf.String(), "\n") {
		t.Fatalf("live mode must not emit newlines before finish: %q", buf.String())
	}

	r.handle(conversion.Event{Kind: conversion.EventFinished, Outcome: conversion.OutcomeCancelled})
	if !strings.HasSuffix(buf.String(), "Conversion cancelled"+ansiReset+"\n") {
		t.Fatalf("unexpected finish output %q", buf.String())
	}
}

func TestFinishError(t *testing.T) {
	if err := finishError(conversion.Event{Outcome: conversion.OutcomeCompleted}); err != nil {
		t.Fatalf("completed: %v", err)
	}
	if err := finishError(conversion.Event{Outcome: conversion.OutcomeCancelled}); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled: %v", err)
	}
	boom := errors.New("boom")
	if err := finishError(conversion.Event{Outcome: conversion.OutcomeFailed, Err: boom}); !errors.Is(err, boom) {
		t.Fatalf("failed: %v", err)
	}
}

func TestResolveSettingsAppliesOnlyChangedFlags(t *testing.T) {
	cfg := config.Default()
	cfg.Effects.Noise = true
	cfg.Effects.Frequency = 35

	var flags convertFlags
	cmd := &cobra.Command{Use: "convert"}
	cmd.Flags().BoolVar(&flags.noise, "noise", true, "")
	cmd.Flags().BoolVar(&flags.compressor, "compressor", true, "")
	cmd.Flags().Float64Var(&flags.frequency, "frequency", 40, "")
	cmd.Flags().BoolVar(&flags.chunk, "chunk", true, "")
	if err := cmd.Flags().Parse([]string{"--noise=false", "--frequency=99"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	s := resolveSettings(cmd, &cfg, flags)
	if s.Noise {
		t.Fatal("expected --noise=false to win")
	}
	if s.Frequency != 50 {
		t.Fatalf("expected clamped frequency 50, got %g", s.Frequency)
	}
	if s.Compressor != cfg.Effects.Compressor || s.ChunkIntoHours != cfg.Effects.ChunkIntoHours {
		t.Fatalf("unchanged flags must keep config defaults: %+v", s)
	}
}

func TestRenderStatusLine(t *testing.T) {
	tests := []struct {
		kind    statusKind
		message string
		want    string
	}{
		{statusInfo, "Idle", "  Converter:         " + "     Idle"},
		{statusOK, "Converting", "  Converter:         ok   Converting"},
		{statusError, "missing", "  Converter:         fail missing"},
		{statusWarn, "", "  Converter:         warn"},
	}
	for _, tt := range tests {
		if got := renderStatusLine("Converter", tt.kind, tt.message, false); got != tt.want {
			t.Fatalf("renderStatusLine(%d) = %q, want %q", tt.kind, got, tt.want)
		}
	}

	text.EnableColors()
	if got := renderStatusLine("Config", statusInfo, "/etc/alice.toml", true); strings.Contains(got, "\x1b[") {
		t.Fatalf("info lines must stay uncolored, got %q", got)
	}
	if got := renderStatusLine("SoX", statusError, "missing", true); !strings.Contains(got, "\x1b[") {
		t.Fatalf("error lines must be colored, got %q", got)
	}
	if got := renderSectionHeader(" history ", false); len(got) != 1 || got[0] != "HISTORY" {
		t.Fatalf("unexpected header %q", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	if got := renderTable(nil, [][]string{{"x"}}); got != "" {
		t.Fatalf("expected empty table without columns, got %q", got)
	}
	got := renderTable(outputColumns, [][]string{{"a(Converted).mp3", "single"}, {"b.mp3", "merged", "1:00:00", "3", "extra"}})
	for _, want := range []string{"Members", "a(Converted).mp3", "1:00:00"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "extra") {
		t.Fatalf("extra cells must be dropped:\n%s", got)
	}
}
