// Package pipeline orchestrates the per-item build: acquire the raw excerpt,
// derive channel excerpts, run the separation backends, and finalize the
// item's artifacts and log. Stages run strictly in order and propagate their
// errors to the driver untouched.
package pipeline
