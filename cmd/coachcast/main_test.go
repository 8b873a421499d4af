package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"coachcast/internal/api"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCommand()
	want := []string{"submit", "jobs", "status", "daemon", "config"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("root command missing %q subcommand", name)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 40); got != "short" {
		t.Fatalf("truncate altered short string: %q", got)
	}
	long := strings.Repeat("x", 50)
	got := truncate(long, 10)
	if got != "xxxxxxx..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestJobOutcome(t *testing.T) {
	completed := api.Job{Status: "completed", VideoURL: "https://x/y.mp4"}
	if got := jobOutcome(completed); got != "https://x/y.mp4" {
		t.Fatalf("unexpected completed outcome: %q", got)
	}
	failed := api.Job{Status: "error", ErrorType: "timeout", ErrorMessage: "Video generation timed out after 5 minutes"}
	if got := jobOutcome(failed); !strings.Contains(got, "timed out") {
		t.Fatalf("unexpected error outcome: %q", got)
	}
	pending := api.Job{Status: "pending"}
	if got := jobOutcome(pending); got != "" {
		t.Fatalf("expected empty outcome for pending, got %q", got)
	}
}

type scriptedFetcher struct {
	responses []*api.Job
	idx       int
}

func (s *scriptedFetcher) GetJob(context.Context, string) (*api.Job, error) {
	job := s.responses[s.idx]
	if s.idx < len(s.responses)-1 {
		s.idx++
	}
	return job, nil
}

func TestWaitForTerminalStopsOnTerminalStatus(t *testing.T) {
	fetcher := &scriptedFetcher{responses: []*api.Job{
		{JobID: "job-1", Status: "completed", VideoURL: "https://x/y.mp4"},
	}}
	job, err := waitForTerminal(context.Background(), fetcher, "job-1", time.Second)
	if err != nil {
		t.Fatalf("waitForTerminal failed: %v", err)
	}
	if job.Status != "completed" {
		t.Fatalf("unexpected job: %#v", job)
	}
}

func TestIsTerminalStatus(t *testing.T) {
	for status, want := range map[string]bool{
		"completed":  true,
		"Error":      true,
		"pending":    false,
		"generating": false,
	} {
		if got := isTerminalStatus(status); got != want {
			t.Fatalf("isTerminalStatus(%q) = %v, want %v", status, got, want)
		}
	}
}

func TestReadPIDFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coachcastd.pid")
	if err := os.WriteFile(path, []byte("1234\n"), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}

	pid, err := readPIDFile(path)
	if err != nil {
		t.Fatalf("readPIDFile failed: %v", err)
	}
	if pid != 1234 {
		t.Fatalf("unexpected pid: %d", pid)
	}

	if err := os.WriteFile(path, []byte("junk"), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}
	if _, err := readPIDFile(path); err == nil {
		t.Fatal("expected invalid pid file to fail")
	}
}

func TestWriteJSONEmitsIndentedOutput(t *testing.T) {
	cmd := newRootCommand()
	var buf strings.Builder
	cmd.SetOut(&buf)

	if err := writeJSON(cmd, api.Job{JobID: "job-1", Status: "pending"}); err != nil {
		t.Fatalf("writeJSON failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"jobId": "job-1"`) {
		t.Fatalf("expected indented jobId field, got:\n%s", out)
	}
	var decoded api.Job
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid json: %v", err)
	}
}

func TestRenderTableIncludesHeadersAndRows(t *testing.T) {
	out := renderTable(
		[]string{"Job", "Status"},
		[][]string{{"job-1", "pending"}},
		[]columnAlignment{alignLeft, alignLeft},
	)
	if !strings.Contains(out, "job-1") || !strings.Contains(out, "pending") {
		t.Fatalf("table missing content:\n%s", out)
	}
	if !strings.Contains(strings.ToUpper(out), "JOB") {
		t.Fatalf("table missing header:\n%s", out)
	}
}
