package builds_test

import (
	"context"
	"testing"

	"stemset/internal/builds"
	"stemset/internal/testsupport"
)

func TestOpenCreatesSchemaAndInsertsRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record, err := store.NewRecord(ctx, "run-1", "track_1")
	if err != nil {
		t.Fatalf("NewRecord failed: %v", err)
	}
	if record.ID == 0 {
		t.Fatal("expected record ID to be assigned")
	}
	if record.Status != builds.StatusPending {
		t.Fatalf("expected pending status, got %q", record.Status)
	}

	fetched, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.FName != "track_1" || fetched.RunID != "run-1" {
		t.Fatalf("unexpected fetched record: %#v", fetched)
	}
}

func TestReopenKeepsExistingRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewRecord(t, store, "run-1", "track_1")
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	records, err := reopened.ListRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("ListRun failed: %v", err)
	}
	if len(records) != 1 || records[0].FName != "track_1" {
		t.Fatalf("unexpected records after reopen: %#v", records)
	}
}

func TestStatusTransitionsAndTimestamps(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record := testsupport.NewRecord(t, store, "run-1", "track_1")

	for _, status := range []builds.Status{builds.StatusDownloading, builds.StatusSplitting, builds.StatusSeparating} {
		if err := store.UpdateStatus(ctx, record.ID, status); err != nil {
			t.Fatalf("UpdateStatus(%s) failed: %v", status, err)
		}
		updated, err := store.GetByID(ctx, record.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status != status {
			t.Fatalf("expected status %q, got %q", status, updated.Status)
		}
		if !updated.FinishedAt.IsZero() {
			t.Fatalf("non-terminal status %q must not stamp finish time", status)
		}
	}

	if err := store.UpdateStatus(ctx, record.ID, builds.StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus(completed) failed: %v", err)
	}
	final, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if final.FinishedAt.IsZero() {
		t.Fatal("terminal status must stamp finish time")
	}
	if final.Duration() <= 0 {
		t.Fatalf("expected positive duration, got %v", final.Duration())
	}
}

func TestUpdateStatusRejectsUnknown(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	record := testsupport.NewRecord(t, store, "run-1", "track_1")

	if err := store.UpdateStatus(context.Background(), record.ID, builds.Status("exploded")); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestMarkFailedRecordsMessage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record := testsupport.NewRecord(t, store, "run-1", "track_1")
	if err := store.MarkFailed(ctx, record.ID, "no working candidates"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	failed, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if failed.Status != builds.StatusFailed {
		t.Fatalf("expected failed status, got %q", failed.Status)
	}
	if failed.ErrorMessage != "no working candidates" {
		t.Fatalf("unexpected error message %q", failed.ErrorMessage)
	}
	if failed.FinishedAt.IsZero() {
		t.Fatal("failed record must stamp finish time")
	}
}

func TestAttachLogRoundTrips(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record := testsupport.NewRecord(t, store, "run-1", "track_1")
	lines := []string{
		"14:02:11 downloading track_1 from http://example.com/watch?v=abc ...",
		"14:02:38 ... item separated successfully",
	}
	if err := store.AttachLog(ctx, record.ID, lines); err != nil {
		t.Fatalf("AttachLog failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(fetched.LogLines) != 2 || fetched.LogLines[1] != lines[1] {
		t.Fatalf("unexpected log lines: %#v", fetched.LogLines)
	}
}

func TestLatestRunAndSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	latest, err := store.LatestRunID(ctx)
	if err != nil {
		t.Fatalf("LatestRunID failed: %v", err)
	}
	if latest != "" {
		t.Fatalf("expected no runs, got %q", latest)
	}

	first := testsupport.NewRecord(t, store, "run-1", "track_1")
	testsupport.NewRecord(t, store, "run-2", "track_1")
	second := testsupport.NewRecord(t, store, "run-2", "track_2")
	third := testsupport.NewRecord(t, store, "run-2", "track_3")

	if err := store.UpdateStatus(ctx, first.ID, builds.StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if err := store.UpdateStatus(ctx, second.ID, builds.StatusSkipped); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if err := store.MarkFailed(ctx, third.ID, "timeout"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	latest, err = store.LatestRunID(ctx)
	if err != nil {
		t.Fatalf("LatestRunID failed: %v", err)
	}
	if latest != "run-2" {
		t.Fatalf("expected run-2, got %q", latest)
	}

	summary, err := store.Summarize(ctx, "run-2")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary.Total != 3 || summary.Skipped != 1 || summary.Failed != 1 || summary.Completed != 0 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	if summary.StartedAt.IsZero() {
		t.Fatal("expected summary start time")
	}
}
