package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"stemset/internal/services"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"":        slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleHandlerSubjectHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Info("stage started", String(FieldItem, "evans_waltz_1961"), String(FieldStage, "acquire"), Int("candidates", 3))

	line := buf.String()
	if !strings.Contains(line, "[evans_waltz_1961/acquire]") {
		t.Fatalf("expected subject header in output, got %q", line)
	}
	if !strings.Contains(line, "candidates=3") {
		t.Fatalf("expected remaining attrs as key=value, got %q", line)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := services.WithItem(context.Background(), "track_1")
	ctx = services.WithStage(ctx, "separate")
	WithContext(ctx, logger).Info("hello")

	out := buf.String()
	if !strings.Contains(out, "item=track_1") || !strings.Contains(out, "stage=separate") {
		t.Fatalf("expected context fields in output, got %q", out)
	}
}

func TestWithContextNilLogger(t *testing.T) {
	t.Parallel()

	logger := WithContext(context.Background(), nil)
	if logger == nil {
		t.Fatal("expected usable logger")
	}
	logger.Info("must not panic")
}
