package testsupport

import (
	"context"
	"testing"

	"coachcast/internal/config"
	"coachcast/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewPendingJob creates a pending job row for tests using the provided store.
func NewPendingJob(t testing.TB, store *queue.Store, jobID string) *queue.Job {
	t.Helper()

	job, err := store.NewJob(context.Background(), jobID, "user-1", "Nora", "Great job today!")
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return job
}
