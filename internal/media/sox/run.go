package sox

import (
	"context"
	"time"
)

// Run starts binary, collects every output line, and waits for it to exit.
// Cancelling ctx terminates the process and returns ctx.Err().
func Run(ctx context.Context, starter Starter, binary string, args []string, grace time.Duration) ([]string, error) {
	proc, err := starter.Start(binary, args)
	if err != nil {
		return nil, err
	}
	var lines []string
	stream := proc.Lines()
	for stream != nil {
		select {
		case line, ok := <-stream:
			if !ok {
				stream = nil
				continue
			}
			lines = append(lines, line)
		case <-ctx.Done():
			_ = proc.Terminate(grace)
			return lines, ctx.Err()
		}
	}
	select {
	case <-proc.Done():
	case <-ctx.Done():
		_ = proc.Terminate(grace)
		return lines, ctx.Err()
	}
	return lines, proc.Err()
}
