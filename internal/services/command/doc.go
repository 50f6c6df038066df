// Package command wraps child-process execution for the external tools the
// pipeline drives.
//
// The Executor interface keeps tool clients testable; System is the real
// implementation, streaming combined output line by line. RunWithTimeout adds
// the wall-clock kill discipline every pipeline process shares: a job that
// outlives its budget is terminated and surfaces as a timeout error carrying
// the configured bound.
package command
