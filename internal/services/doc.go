// Package services defines shared utilities consumed by the pipeline stages
// and external tool clients.
//
// Key responsibilities:
//   - Context helpers that stamp item stems, stage names, and run identifiers
//     for logging.
//   - Structured error markers plus the Wrap helper that tag failures with a
//     stable taxonomy (acquisition, timeout, missing artifact, validation).
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
