package separation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"stemset/internal/services/command"
)

// Runner dispatches one backend's separation jobs.
type Runner struct {
	exec command.Executor
}

// NewRunner constructs a Runner. A nil executor falls back to real command
// execution.
func NewRunner(executor command.Executor) *Runner {
	if executor == nil {
		executor = command.System{}
	}
	return &Runner{exec: executor}
}

// Run executes one separation job per input concurrently under the backend's
// per-job timeout, derived from the excerpt duration. The batch is
// supervised: the first fatal failure cancels the remaining jobs and is
// returned. report receives per-job progress lines for the item log.
func (r *Runner) Run(ctx context.Context, backend Backend, inputs []string, excerptSeconds int, report func(string)) error {
	if len(inputs) == 0 {
		return nil
	}
	if report == nil {
		report = func(string) {}
	}
	timeout := time.Duration(excerptSeconds*backend.TimeoutMultiplier()) * time.Second
	marker := backend.SuccessMarker()

	var mu sync.Mutex
	log := func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		report(msg)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, input := range inputs {
		input := input
		group.Go(func() error {
			binary, args := backend.Command(input)

			// Executors deliver output lines serially, so the builder needs
			// no lock of its own.
			var output strings.Builder
			onOutput := func(line string) {
				if marker != "" {
					output.WriteString(line)
					output.WriteByte('\n')
				}
			}

			if err := command.RunWithTimeout(groupCtx, r.exec, binary, args, timeout, "separate", backend.Name(), onOutput); err != nil {
				return err
			}
			if marker != "" && !strings.Contains(output.String(), marker) {
				// The tool exited cleanly without its success marker; surface
				// it in the item log but accept the run, matching the tool's
				// own loose contract.
				log(fmt.Sprintf("... error when separating: %s", strings.TrimSpace(output.String())))
				return nil
			}
			log("... item separated successfully")
			return nil
		})
	}
	return group.Wait()
}
