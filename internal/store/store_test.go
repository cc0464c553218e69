package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "concierge.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	job := &Job{
		JobID:        "ftjob_1",
		FileID:       "file-1",
		Source:       "menu.pdf",
		BaseModel:    "gpt-3.5-turbo",
		Status:       "pending",
		RemoteStatus: "validating_files",
		Entries:      87,
	}
	if err := s.Save(ctx, job); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Get(ctx, "ftjob_1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.FileID != "file-1" || got.Entries != 87 || got.RemoteStatus != "validating_files" {
		t.Fatalf("unexpected job %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, &Job{JobID: "ftjob_2", FileID: "f", BaseModel: "gpt-3.5-turbo", Status: "pending"}); err != nil {
		t.Fatal(err)
	}

	err := s.UpdateStatus(ctx, "ftjob_2", StatusUpdate{
		Status:         "completed",
		RemoteStatus:   "succeeded",
		FineTunedModel: "ft:gpt-3.5-turbo:acme::xyz",
	})
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	// A later update without a model keeps the stored one.
	if err := s.UpdateStatus(ctx, "ftjob_2", StatusUpdate{Status: "completed", RemoteStatus: "succeeded"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "ftjob_2")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "completed" || got.FineTunedModel != "ft:gpt-3.5-turbo:acme::xyz" {
		t.Fatalf("unexpected job %+v", got)
	}

	if err := s.UpdateStatus(ctx, "missing", StatusUpdate{Status: "failed"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"ftjob_a", "ftjob_b", "ftjob_c"} {
		job := &Job{JobID: id, FileID: "f", BaseModel: "m", Status: "pending", CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.Save(ctx, job); err != nil {
			t.Fatal(err)
		}
	}

	jobs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0].JobID != "ftjob_c" || jobs[2].JobID != "ftjob_a" {
		t.Fatalf("unexpected order: %s, %s, %s", jobs[0].JobID, jobs[1].JobID, jobs[2].JobID)
	}
}

func TestSaveRequiresID(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save(context.Background(), &Job{}); err == nil {
		t.Fatal("expected error for empty job id")
	}
}
