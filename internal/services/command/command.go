package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"stemset/internal/services"
)

// Executor abstracts command execution for testability. Implementations must
// deliver onOutput calls serially: callers accumulate lines without locking.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// System executes commands with os/exec, streaming combined output line by
// line to onOutput.
type System struct{}

func (System) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	// Stdout and stderr are scanned from separate goroutines; the mutex keeps
	// the Executor contract that onOutput is never invoked concurrently.
	var outputMu sync.Mutex

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if onOutput != nil {
				outputMu.Lock()
				onOutput(scanner.Text())
				outputMu.Unlock()
			}
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return err
	}
	return scanErr
}

// RunWithTimeout runs a command under a wall-clock bound. A process still
// running when the bound expires is killed and the call fails with the
// timeout sentinel carrying the configured bound.
func RunWithTimeout(ctx context.Context, executor Executor, binary string, args []string, timeout time.Duration, stage, operation string, onOutput func(string)) error {
	if executor == nil {
		executor = System{}
	}
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := executor.Run(runCtx, binary, args, onOutput)
	if err == nil {
		return nil
	}
	if timeout > 0 && runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return services.WrapTimeout(stage, operation, timeout)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return services.Wrap(services.ErrExternalTool, stage, operation, binary, err)
}
