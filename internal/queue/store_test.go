package queue_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"coachcast/internal/queue"
	"coachcast/internal/testsupport"
)

func TestNewJobAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job, err := store.NewJob(ctx, "job-1", "user-1", "Nora", "Great job today!")
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	if job.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", job.Status)
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	fetched, err := store.GetByJobID(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if fetched == nil || fetched.CoachName != "Nora" || fetched.Message != "Great job today!" {
		t.Fatalf("unexpected fetched job: %#v", fetched)
	}
}

func TestNewJobRejectsDuplicateID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.NewJob(ctx, "job-dup", "u", "Nora", "hi"); err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	if _, err := store.NewJob(ctx, "job-dup", "u", "Nora", "hi"); err == nil {
		t.Fatal("expected duplicate job id to fail")
	}
}

func TestGetByJobIDMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	job, err := store.GetByJobID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil for missing job, got %#v", job)
	}
}

func TestMarkGeneratingOnlyFromPending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewPendingJob(t, store, "job-gen")

	updated, err := store.MarkGenerating(ctx, "job-gen", queue.ProviderDID, "https://cdn/audio.mp3", "", "talk-1")
	if err != nil {
		t.Fatalf("MarkGenerating failed: %v", err)
	}
	if !updated {
		t.Fatal("expected pending job to transition")
	}

	job, err := store.GetByJobID(ctx, "job-gen")
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if job.Status != queue.StatusGenerating || job.AudioURL != "https://cdn/audio.mp3" || job.ProviderJobID != "talk-1" {
		t.Fatalf("unexpected job after transition: %#v", job)
	}

	// A second submission for the same id is a detectable no-op.
	updated, err = store.MarkGenerating(ctx, "job-gen", queue.ProviderDID, "https://cdn/other.mp3", "", "talk-2")
	if err != nil {
		t.Fatalf("MarkGenerating failed: %v", err)
	}
	if updated {
		t.Fatal("expected generating job to reject a second transition")
	}

	job, _ = store.GetByJobID(ctx, "job-gen")
	if job.AudioURL != "https://cdn/audio.mp3" {
		t.Fatalf("audio url rewritten: %q", job.AudioURL)
	}
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewPendingJob(t, store, "job-done")
	if _, err := store.MarkGenerating(ctx, "job-done", queue.ProviderDID, "https://cdn/a.mp3", "", "talk-1"); err != nil {
		t.Fatalf("MarkGenerating failed: %v", err)
	}

	updated, err := store.MarkCompleted(ctx, "job-done", "https://cdn/v.mp4")
	if err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if !updated {
		t.Fatal("expected completion write to apply")
	}

	// Neither a late error nor a second completion may touch the row.
	if updated, _ = store.MarkError(ctx, "job-done", queue.ErrorTypeProvider, "late failure"); updated {
		t.Fatal("error write mutated a completed job")
	}
	if updated, _ = store.MarkCompleted(ctx, "job-done", "https://cdn/other.mp4"); updated {
		t.Fatal("second completion mutated a completed job")
	}

	job, err := store.GetByJobID(ctx, "job-done")
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if job.Status != queue.StatusCompleted || job.VideoURL != "https://cdn/v.mp4" || job.ErrorType != "" {
		t.Fatalf("terminal row mutated: %#v", job)
	}
}

func TestMarkErrorRecordsClassification(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewPendingJob(t, store, "job-err")

	updated, err := store.MarkError(ctx, "job-err", queue.ErrorTypeTimeout, "Video generation timed out after 5 minutes")
	if err != nil {
		t.Fatalf("MarkError failed: %v", err)
	}
	if !updated {
		t.Fatal("expected error write to apply")
	}

	job, err := store.GetByJobID(ctx, "job-err")
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if job.Status != queue.StatusError || job.ErrorType != queue.ErrorTypeTimeout {
		t.Fatalf("unexpected error row: %#v", job)
	}
	if job.ErrorMessage != "Video generation timed out after 5 minutes" {
		t.Fatalf("unexpected error message: %q", job.ErrorMessage)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewPendingJob(t, store, "job-a")
	testsupport.NewPendingJob(t, store, "job-b")
	if _, err := store.MarkGenerating(ctx, "job-b", queue.ProviderHeyGen, "https://cdn/b.mp3", "", "vid-b"); err != nil {
		t.Fatalf("MarkGenerating failed: %v", err)
	}

	pending, err := store.List(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(pending) != 1 || pending[0].JobID != "job-a" {
		t.Fatalf("unexpected pending jobs: %#v", pending)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(all))
	}
}

func TestGeneratingWithProviderJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewPendingJob(t, store, "job-did")
	testsupport.NewPendingJob(t, store, "job-heygen")
	if _, err := store.MarkGenerating(ctx, "job-did", queue.ProviderDID, "https://cdn/d.mp3", "", "talk-9"); err != nil {
		t.Fatalf("MarkGenerating failed: %v", err)
	}
	if _, err := store.MarkGenerating(ctx, "job-heygen", queue.ProviderHeyGen, "https://cdn/h.mp3", "", "vid-9"); err != nil {
		t.Fatalf("MarkGenerating failed: %v", err)
	}

	resumable, err := store.GeneratingWithProviderJob(ctx, queue.ProviderDID)
	if err != nil {
		t.Fatalf("GeneratingWithProviderJob failed: %v", err)
	}
	if len(resumable) != 1 || resumable[0].JobID != "job-did" {
		t.Fatalf("unexpected resumable jobs: %#v", resumable)
	}
}

func TestHealthAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewPendingJob(t, store, "job-1")
	testsupport.NewPendingJob(t, store, "job-2")
	if _, err := store.MarkError(ctx, "job-2", queue.ErrorTypeGeneration, "boom"); err != nil {
		t.Fatalf("MarkError failed: %v", err)
	}

	summary, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if summary.Total != 2 || summary.Pending != 1 || summary.Errored != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	removed, err := store.ClearErrored(ctx)
	if err != nil {
		t.Fatalf("ClearErrored failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
}

func TestParseStatusAndProvider(t *testing.T) {
	if status, ok := queue.ParseStatus(" Generating "); !ok || status != queue.StatusGenerating {
		t.Fatalf("ParseStatus: got %q ok=%v", status, ok)
	}
	if _, ok := queue.ParseStatus("ripping"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if provider, ok := queue.ParseProvider("DID"); !ok || provider != queue.ProviderDID {
		t.Fatalf("ParseProvider: got %q ok=%v", provider, ok)
	}
	if _, ok := queue.ParseProvider("synthesia"); ok {
		t.Fatal("expected unknown provider to be rejected")
	}
	if !queue.StatusCompleted.IsTerminal() || queue.StatusGenerating.IsTerminal() {
		t.Fatal("terminal classification wrong")
	}
}

func TestOpenRejectsSchemaVersionMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	dbPath := store.Path()
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump schema version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	_, err = queue.Open(cfg)
	if !errors.Is(err, queue.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	// The hint must name an action that works while the store cannot open.
	if !strings.Contains(err.Error(), "delete the job database") {
		t.Fatalf("unexpected mismatch hint: %v", err)
	}
}
