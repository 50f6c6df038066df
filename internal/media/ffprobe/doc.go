// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no stemset-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Probe: the media-probe collaborator the freshness checker queries for
//     durations and local existence
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
package ffprobe
