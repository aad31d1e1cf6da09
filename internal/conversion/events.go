package conversion

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/danielemils/new-alice/internal/textutil"
)

// EventKind identifies what an Event carries.
type EventKind int

const (
	// EventTask carries a new task label in Task.
	EventTask EventKind = iota + 1
	// EventProgress carries the current file's percentage in Percent.
	EventProgress
	// EventCounter carries the "name (done/total)" text in Counter.
	EventCounter
	// EventRemaining carries the estimated seconds left in Remaining.
	EventRemaining
	// EventFinished is sent exactly once, last, with Outcome set and
	// Percent at 100.
	EventFinished
)

func (k EventKind) String() string {
	switch k {
	case EventTask:
		return "task"
	case EventProgress:
		return "progress"
	case EventCounter:
		return "counter"
	case EventRemaining:
		return "remaining"
	case EventFinished:
		return "finished"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Outcome is how a job ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// Event is one update from the worker.
type Event struct {
	Kind      EventKind
	JobID     string
	Time      time.Time
	Task      string
	Percent   int
	Counter   string
	Remaining int
	Outcome   Outcome
	// Err is set on a failed EventFinished.
	Err error
}

// counterNameLimit bounds the file name shown in counter text.
const counterNameLimit = 20

// CounterText renders the per-file counter, e.g. "Chapter 01 (0/12)". done
// is the number of files finished before this one.
func CounterText(input string, done, total int) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return fmt.Sprintf("%s (%d/%d)", textutil.Truncate(name, counterNameLimit), done, total)
}

// emitter stamps and publishes events for one job.
type emitter struct {
	jobID string
	ch    chan<- Event
	now   func() time.Time
}

func (e *emitter) send(ev Event) {
	ev.JobID = e.jobID
	ev.Time = e.now()
	e.ch <- ev
}

func (e *emitter) task(label string) { e.send(Event{Kind: EventTask, Task: label}) }

func (e *emitter) progress(percent int) { e.send(Event{Kind: EventProgress, Percent: percent}) }

func (e *emitter) counter(text string) { e.send(Event{Kind: EventCounter, Counter: text}) }

func (e *emitter) remaining(seconds int) {
	e.send(Event{Kind: EventRemaining, Remaining: max(seconds, 0)})
}

func (e *emitter) finished(outcome Outcome, err error) {
	e.send(Event{Kind: EventFinished, Percent: 100, Outcome: outcome, Err: err})
}
