package separation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stemset/internal/services"
)

// fakeExecutor scripts one outcome per invocation and records calls.
type fakeExecutor struct {
	mu    sync.Mutex
	calls [][]string
	run   func(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

func (f *fakeExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{binary}, args...))
	f.mu.Unlock()
	return f.run(ctx, binary, args, onOutput)
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func collectReports() (func(string), func() []string) {
	var mu sync.Mutex
	var lines []string
	report := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, line)
	}
	snapshot := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), lines...)
	}
	return report, snapshot
}

func TestRunnerReportsSuccessPerJob(t *testing.T) {
	t.Parallel()

	executor := &fakeExecutor{run: func(_ context.Context, _ string, _ []string, onOutput func(string)) error {
		onOutput("1 file written succesfully")
		return nil
	}}
	report, lines := collectReports()

	runner := NewRunner(executor)
	backend := NewSpleeter("spleeter", "model", t.TempDir(), 0)
	inputs := []string{"/raw/track_1-lchan.wav", "/raw/track_1-rchan.wav"}
	if err := runner.Run(context.Background(), backend, inputs, 30, report); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if executor.callCount() != len(inputs) {
		t.Fatalf("expected %d invocations, got %d", len(inputs), executor.callCount())
	}
	got := lines()
	if len(got) != len(inputs) {
		t.Fatalf("expected one report line per job, got %v", got)
	}
	for _, line := range got {
		if !strings.Contains(line, "separated successfully") {
			t.Fatalf("unexpected report line %q", line)
		}
	}
}

func TestRunnerMissingMarkerIsLoggedNotFatal(t *testing.T) {
	t.Parallel()

	executor := &fakeExecutor{run: func(_ context.Context, _ string, _ []string, onOutput func(string)) error {
		onOutput("something went sideways")
		return nil
	}}
	report, lines := collectReports()

	runner := NewRunner(executor)
	backend := NewSpleeter("spleeter", "model", t.TempDir(), 0)
	if err := runner.Run(context.Background(), backend, []string{"/raw/track_1.wav"}, 30, report); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	got := lines()
	if len(got) != 1 || !strings.Contains(got[0], "error when separating") {
		t.Fatalf("expected a separation error line, got %v", got)
	}
}

// stubBackend shrinks the timeout multiplier so the bound fires quickly.
type stubBackend struct {
	*Spleeter
}

func (stubBackend) TimeoutMultiplier() int { return 1 }

func TestRunnerTimeoutCarriesBound(t *testing.T) {
	t.Parallel()

	executor := &fakeExecutor{run: func(ctx context.Context, _ string, _ []string, _ func(string)) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	runner := NewRunner(executor)
	backend := stubBackend{NewSpleeter("spleeter", "model", t.TempDir(), 0)}
	err := runner.Run(context.Background(), backend, []string{"/raw/track_1.wav"}, 1, nil)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout sentinel, got %v", err)
	}
	if !strings.Contains(err.Error(), "1s") {
		t.Fatalf("expected the configured bound in the error, got %v", err)
	}
}

func TestRunnerFirstFailureCancelsSiblings(t *testing.T) {
	t.Parallel()

	var canceled atomic.Bool
	release := make(chan struct{})
	executor := &fakeExecutor{run: func(ctx context.Context, _ string, args []string, _ func(string)) error {
		if strings.Contains(strings.Join(args, " "), "track_1-lchan") {
			close(release)
			return errors.New("exit status 1")
		}
		<-release
		select {
		case <-ctx.Done():
			canceled.Store(true)
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	}}

	runner := NewRunner(executor)
	backend := NewSpleeter("spleeter", "model", t.TempDir(), 0)
	inputs := []string{"/raw/track_1-lchan.wav", "/raw/track_1-rchan.wav"}
	err := runner.Run(context.Background(), backend, inputs, 600, nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected wrapped tool failure, got %v", err)
	}
	if !canceled.Load() {
		t.Fatal("expected the sibling job to observe cancellation")
	}
}

func TestRunnerNoInputsIsNoOp(t *testing.T) {
	t.Parallel()

	executor := &fakeExecutor{run: func(context.Context, string, []string, func(string)) error {
		return errors.New("should not run")
	}}
	runner := NewRunner(executor)
	backend := NewSpleeter("spleeter", "model", t.TempDir(), 0)
	if err := runner.Run(context.Background(), backend, nil, 30, nil); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if executor.callCount() != 0 {
		t.Fatalf("expected zero invocations, got %d", executor.callCount())
	}
}
