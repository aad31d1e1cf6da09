package testsupport

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/danielemils/new-alice/internal/media/sox"
)

// Operations recognised by FakeSox.
const (
	OpProbe   = "probe"
	OpStat    = "stat"
	OpDCShift = "dcshift"
	OpNoise   = "noise"
	OpEffects = "effects"
	OpMerge   = "merge"
)

var (
	// ErrFakeExit is reported by processes failed through FakeSox.FailOn.
	ErrFakeExit = errors.New("sox: exit status 2")
	// ErrFakeTerminated is reported by processes stopped with Terminate.
	ErrFakeTerminated = errors.New("sox: signal: terminated")
)

// DefaultProgress is what an effects run prints when FakeSox.Progress is nil.
var DefaultProgress = []string{
	"In:0.00% 00:00:00.00 [00:00:10.00] Out:0",
	"In:50.0% 00:00:05.00 [00:00:05.00] Out:220k",
	"In:100.% 00:00:10.00 [00:00:00.00] Out:441k",
}

// Call records one process launch.
type Call struct {
	Op   string
	Args []string
}

// FakeSox is a sox.Starter that imitates SoX on files written by WriteAudio.
// Probes report the duration attribute, stat reports the mean and volume
// attributes, effects copy durations through (splitting when trimmed), and
// merges sum them.
type FakeSox struct {
	// Progress overrides DefaultProgress for effects runs.
	Progress []string
	// FailOn makes matching calls exit with ErrFakeExit without output.
	FailOn func(Call) bool
	// BlockOn makes matching calls write a partial output and then run until
	// terminated.
	BlockOn func(Call) bool
	// Started, when set, receives every call as it launches.
	Started chan<- Call

	mu    sync.Mutex
	calls []Call
}

// Start implements sox.Starter.
func (f *FakeSox) Start(_ string, args []string) (sox.Process, error) {
	call := Call{Op: classify(args), Args: slices.Clone(args)}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.Started != nil {
		f.Started <- call
	}

	p := &fakeProcess{
		lines: make(chan string, 64),
		done:  make(chan struct{}),
		stop:  make(chan struct{}),
	}
	go f.run(call, p)
	return p, nil
}

// Calls returns every launch so far.
func (f *FakeSox) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Count returns how many launches performed op.
func (f *FakeSox) Count(op string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Ops returns the operation of every launch in order.
func (f *FakeSox) Ops() []string {
	calls := f.Calls()
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

// OpIs matches calls performing op, for FailOn and BlockOn.
func OpIs(op string) func(Call) bool {
	return func(c Call) bool { return c.Op == op }
}

func (f *FakeSox) run(call Call, p *fakeProcess) {
	defer close(p.done)

	if f.FailOn != nil && f.FailOn(call) {
		close(p.lines)
		p.err = ErrFakeExit
		return
	}
	lines, outputs, err := f.plan(call)
	for _, line := range lines {
		select {
		case p.lines <- line:
		case <-p.stop:
		}
	}
	if f.BlockOn != nil && f.BlockOn(call) {
		for path := range outputs {
			_ = os.WriteFile(path, []byte("partial"), 0o644)
			break
		}
		<-p.stop
		close(p.lines)
		p.err = ErrFakeTerminated
		return
	}
	close(p.lines)
	if err != nil {
		p.err = err
		return
	}
	for path, content := range outputs {
		if werr := os.WriteFile(path, []byte(content), 0o644); werr != nil {
			p.err = werr
			return
		}
	}
}

func (f *FakeSox) plan(call Call) ([]string, map[string]string, error) {
	args := call.Args
	switch call.Op {
	case OpProbe:
		seconds, err := durationOf(args[len(args)-1])
		if err != nil {
			return nil, nil, err
		}
		return []string{strconv.FormatFloat(seconds, 'f', -1, 64)}, nil, nil
	case OpStat:
		content, err := readAttrs(args[0])
		if err != nil {
			return nil, nil, err
		}
		mean, ok := attr(content, "mean")
		if !ok {
			mean = "0.000000"
		}
		volume, ok := attr(content, "volume")
		if !ok {
			volume = "1.000"
		}
		return []string{
			"Samples read:           2646000",
			"Mean    amplitude:     " + mean,
			"RMS     amplitude:     0.101234",
			"Volume adjustment:     " + volume,
		}, nil, nil
	case OpDCShift:
		seconds, err := durationOf(args[0])
		if err != nil {
			return nil, nil, err
		}
		return nil, map[string]string{args[1]: audio(seconds, "dcshift", "fixed")}, nil
	case OpNoise:
		seconds, err := durationOf(args[0])
		if err != nil {
			return nil, nil, err
		}
		return nil, map[string]string{args[1]: audio(seconds, "noise", "brown")}, nil
	case OpEffects:
		return f.planEffects(args)
	default:
		inputs, out := args[:len(args)-1], args[len(args)-1]
		total := 0.0
		names := make([]string, len(inputs))
		for i, in := range inputs {
			seconds, err := durationOf(in)
			if err != nil {
				return nil, nil, err
			}
			total += seconds
			names[i] = filepath.Base(in)
		}
		return nil, map[string]string{out: audio(total, "merged", strings.Join(names, ","))}, nil
	}
}

func (f *FakeSox) planEffects(args []string) ([]string, map[string]string, error) {
	c := slices.Index(args, "-c")
	if c < 1 || c+2 >= len(args) {
		return nil, nil, fmt.Errorf("fake sox: malformed effect chain %v", args)
	}
	in, out := args[c-1], args[c+2]
	seconds, err := durationOf(in)
	if err != nil {
		return nil, nil, err
	}
	progress := f.Progress
	if progress == nil {
		progress = DefaultProgress
	}

	t := slices.Index(args, "trim")
	if t < 0 {
		return progress, map[string]string{out: audio(seconds, "effects", filepath.Base(in))}, nil
	}
	limit, err := strconv.ParseFloat(args[t+2], 64)
	if err != nil {
		return nil, nil, err
	}
	count := int(math.Ceil(seconds / limit))
	ext := filepath.Ext(out)
	stem := strings.TrimSuffix(out, ext)
	outputs := make(map[string]string, count)
	for i := 1; i <= count; i++ {
		d := limit
		if i == count {
			d = seconds - float64(count-1)*limit
		}
		outputs[fmt.Sprintf("%s%03d%s", stem, i, ext)] = audio(d, "segment", strconv.Itoa(i))
	}
	return progress, outputs, nil
}

func classify(args []string) string {
	switch {
	case len(args) > 0 && args[0] == "--i":
		return OpProbe
	case len(args) == 3 && args[1] == "-n" && args[2] == "stat":
		return OpStat
	case slices.Contains(args, "dcshift"):
		return OpDCShift
	case slices.Contains(args, "synth"):
		return OpNoise
	case len(args) > 0 && args[0] == "-S":
		return OpEffects
	default:
		return OpMerge
	}
}

func durationOf(path string) (float64, error) {
	content, err := readAttrs(path)
	if err != nil {
		return 0, err
	}
	value, ok := attr(content, "duration")
	if !ok {
		return 0, fmt.Errorf("fake sox: %s has no duration", path)
	}
	return strconv.ParseFloat(value, 64)
}

func audio(seconds float64, key, value string) string {
	return encodeAttrs(map[string]string{
		"duration": strconv.FormatFloat(seconds, 'f', -1, 64),
		key:        value,
	})
}

type fakeProcess struct {
	lines    chan string
	done     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	err      error
}

func (p *fakeProcess) Lines() <-chan string  { return p.lines }
func (p *fakeProcess) Done() <-chan struct{} { return p.done }
func (p *fakeProcess) Err() error            { return p.err }

func (p *fakeProcess) Terminate(time.Duration) error {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
	return nil
}
