// Package builds persists per-run build records in SQLite. Every corpus run
// is identified by a run ID and owns one record per catalog item, tracking
// status, captured log lines, and timings for later inspection.
package builds
