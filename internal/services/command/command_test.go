package command

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"stemset/internal/services"
)

func TestSystemRunStreamsOutput(t *testing.T) {
	t.Parallel()

	var lines []string
	err := System{}.Run(context.Background(), "sh", []string{"-c", "echo one; echo two 1>&2"}, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "one") || !strings.Contains(joined, "two") {
		t.Fatalf("expected stdout and stderr lines, got %q", joined)
	}
}

func TestSystemRunDeliversOutputSerially(t *testing.T) {
	t.Parallel()

	// Both streams emit enough lines to interleave the scanner goroutines.
	// The unsynchronized builder relies on the Executor contract; the race
	// detector flags any concurrent delivery.
	script := "for i in $(seq 1 400); do echo out-$i; echo err-$i 1>&2; done"

	var output strings.Builder
	err := System{}.Run(context.Background(), "sh", []string{"-c", script}, func(line string) {
		output.WriteString(line)
		output.WriteByte('\n')
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	captured := output.String()
	for _, line := range []string{"out-1\n", "out-400\n", "err-1\n", "err-400\n"} {
		if !strings.Contains(captured, line) {
			t.Fatalf("expected captured output to contain %q", line)
		}
	}
	if got := strings.Count(captured, "\n"); got != 800 {
		t.Fatalf("expected 800 intact lines, got %d", got)
	}
}

func TestRunWithTimeoutKillsSlowProcess(t *testing.T) {
	t.Parallel()

	start := time.Now()
	err := RunWithTimeout(context.Background(), System{}, "sleep", []string{"5"}, time.Second, "separate", "spleeter", nil)
	elapsed := time.Since(start)

	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !strings.Contains(err.Error(), "1s") {
		t.Fatalf("expected configured bound in error, got %q", err.Error())
	}
	if elapsed > 3*time.Second {
		t.Fatalf("expected process killed near the bound, took %s", elapsed)
	}
}

func TestRunWithTimeoutWrapsToolFailure(t *testing.T) {
	t.Parallel()

	err := RunWithTimeout(context.Background(), System{}, "sh", []string{"-c", "exit 3"}, time.Minute, "acquire", "yt-dlp", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestRunWithTimeoutPropagatesCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunWithTimeout(ctx, System{}, "sleep", []string{"5"}, time.Minute, "split", "ffmpeg", nil)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if errors.Is(err, services.ErrTimeout) {
		t.Fatalf("cancellation must not masquerade as a timeout: %v", err)
	}
}
