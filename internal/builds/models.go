package builds

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a build record.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusSplitting   Status = "splitting"
	StatusSeparating  Status = "separating"
	StatusCompleted   Status = "completed"
	StatusSkipped     Status = "skipped"
	StatusFailed      Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusSplitting,
	StatusSeparating,
	StatusCompleted,
	StatusSkipped,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus normalizes arbitrary status text into a known Status.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[status]
	return status, ok
}

// Terminal reports whether a record will receive no further updates.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusSkipped, StatusFailed:
		return true
	default:
		return false
	}
}

// Record is one catalog item's outcome within a run.
type Record struct {
	ID           int64
	RunID        string
	FName        string
	Status       Status
	ErrorMessage string
	LogLines     []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	FinishedAt   time.Time
}

// Duration returns the wall-clock time between creation and completion, zero
// while the record is still in flight.
func (r *Record) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.CreatedAt)
}

// RunSummary aggregates record counts for one run.
type RunSummary struct {
	RunID     string
	StartedAt time.Time
	Total     int
	Completed int
	Skipped   int
	Failed    int
}
