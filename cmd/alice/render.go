package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/danielemils/new-alice/internal/conversion"
	"github.com/danielemils/new-alice/internal/logging"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// formatRemaining renders seconds as H:MM:SS.
func formatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressRenderer turns the converter's event stream into terminal output.
// In live mode one status line is redrawn in place; otherwise task changes and
// sampled progress are printed as plain lines.
type progressRenderer struct {
	out  io.Writer
	live bool

	task      string
	counter   string
	percent   int
	remaining int
	width     int

	sampler *logging.ProgressSampler
}

func newProgressRenderer(out io.Writer, live bool) *progressRenderer {
	return &progressRenderer{
		out:       out,
		live:      live,
		remaining: -1,
		sampler:   logging.NewProgressSampler(25),
	}
}

func (r *progressRenderer) handle(ev conversion.Event) {
	switch ev.Kind {
	case conversion.EventTask:
		r.task = ev.Task
		if !r.live && ev.Task != "" && r.sampler.ShouldLog(-1, ev.Task) {
			r.printf("%s %s\n", r.prefix(), ev.Task)
		}
	case conversion.EventProgress:
		r.percent = ev.Percent
		if !r.live && r.sampler.ShouldLog(ev.Percent, "") {
			r.printf("%s %d%%\n", r.prefix(), ev.Percent)
		}
	case conversion.EventCounter:
		r.counter = ev.Counter
		r.sampler.Reset()
	case conversion.EventRemaining:
		r.remaining = ev.Remaining
	case conversion.EventFinished:
		r.percent = ev.Percent
		r.finish(ev)
		return
	}
	if r.live {
		r.redraw()
	}
}

func (r *progressRenderer) prefix() string {
	if r.counter == "" {
		return "[alice]"
	}
	return "[" + r.counter + "]"
}

// statusLine is the live single-line view.
func (r *progressRenderer) statusLine() string {
	parts := make([]string, 0, 4)
	if r.counter != "" {
		parts = append(parts, r.counter)
	}
	parts = append(parts, fmt.Sprintf("%3d%%", r.percent))
	if r.task != "" {
		parts = append(parts, r.task)
	}
	if r.remaining >= 0 {
		parts = append(parts, "remaining "+formatRemaining(r.remaining))
	}
	return strings.Join(parts, "  ")
}

func (r *progressRenderer) redraw() {
	line := r.statusLine()
	pad := ""
	if n := r.width - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	r.width = len(line)
	r.printf("\r%s%s", line, pad)
}

func (r *progressRenderer) finish(ev conversion.Event) {
	if r.live && r.width > 0 {
		r.printf("\r%s\r", strings.Repeat(" ", r.width))
	}
	color, text := "", ""
	switch ev.Outcome {
	case conversion.OutcomeCompleted:
		color, text = ansiGreen, "Conversion complete"
	case conversion.OutcomeCancelled:
		color, text = ansiYellow, "Conversion cancelled"
	default:
		color, text = ansiRed, "Conversion failed"
	}
	if r.live {
		text = color + text + ansiReset
	}
	r.printf("%s\n", text)
}

func (r *progressRenderer) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}
