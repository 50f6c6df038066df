// Package logging assembles structured slog loggers used across the corpus
// builder.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can automatically
// tag log lines with item stems, stage names, and run identifiers. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging
