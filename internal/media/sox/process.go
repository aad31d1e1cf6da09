package sox

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// Process is a running external command.
type Process interface {
	// Lines streams stdout and stderr split on carriage returns and newlines.
	// It is closed once both streams end. Callers must drain it until closed
	// or call Terminate.
	Lines() <-chan string
	// Done is closed after the process has exited and its output drained.
	Done() <-chan struct{}
	// Err reports how the process ended. Only valid after Done is closed.
	Err() error
	// Terminate asks the process to stop with SIGTERM, kills it if it is
	// still running after grace, and blocks until it has exited.
	Terminate(grace time.Duration) error
}

// Starter launches processes.
type Starter interface {
	Start(binary string, args []string) (Process, error)
}

// CommandStarter runs real executables.
type CommandStarter struct{}

// Start launches binary with args and begins streaming its output.
func (CommandStarter) Start(binary string, args []string) (Process, error) {
	cmd := exec.Command(binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", filepath.Base(binary), err)
	}

	p := &commandProcess{
		cmd:     cmd,
		lines:   make(chan string, 64),
		done:    make(chan struct{}),
		abandon: make(chan struct{}),
	}
	var g errgroup.Group
	g.Go(func() error { return p.scan(stdout) })
	g.Go(func() error { return p.scan(stderr) })
	go func() {
		scanErr := g.Wait()
		close(p.lines)
		waitErr := cmd.Wait()
		switch {
		case waitErr != nil:
			p.err = fmt.Errorf("%s: %w", filepath.Base(binary), waitErr)
		case scanErr != nil:
			p.err = fmt.Errorf("scan output: %w", scanErr)
		}
		close(p.done)
	}()
	return p, nil
}

type commandProcess struct {
	cmd         *exec.Cmd
	lines       chan string
	done        chan struct{}
	abandon     chan struct{}
	abandonOnce sync.Once
	err         error
}

func (p *commandProcess) Lines() <-chan string  { return p.lines }
func (p *commandProcess) Done() <-chan struct{} { return p.done }
func (p *commandProcess) Err() error            { return p.err }

func (p *commandProcess) scan(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Split(ScanLines)
	for scanner.Scan() {
		select {
		case p.lines <- scanner.Text():
		case <-p.abandon:
		}
	}
	if err := scanner.Err(); err != nil {
		// keep the pipe drained so the process never blocks on a full buffer
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}

func (p *commandProcess) Terminate(grace time.Duration) error {
	p.abandonOnce.Do(func() { close(p.abandon) })
	select {
	case <-p.done:
		return nil
	default:
	}
	if err := p.cmd.Process.Signal(unix.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		_ = p.cmd.Process.Kill()
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-p.done:
		return nil
	case <-timer.C:
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill: %w", err)
	}
	<-p.done
	return nil
}

// ScanLines is a bufio.SplitFunc that breaks on either '\r' or '\n'. SoX
// redraws its progress line with carriage returns.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
