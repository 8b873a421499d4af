package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a video job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

var allStatuses = []Status{
	StatusPending,
	StatusGenerating,
	StatusCompleted,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ErrorType classifies why a job reached the error state.
type ErrorType string

const (
	ErrorTypeProvider   ErrorType = "provider"
	ErrorTypeDatabase   ErrorType = "database"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeGeneration ErrorType = "generation"
)

// Provider identifies a video-generation backend.
type Provider string

const (
	ProviderHeyGen Provider = "heygen"
	ProviderDID    Provider = "did"
)

// Job represents a coach-video generation job persisted in SQLite.
//
// Once Status reaches completed or error no further field mutation occurs;
// the store enforces this with conditional writes. AudioURL, once set by
// MarkGenerating, is never rewritten.
type Job struct {
	ID            int64
	JobID         string
	UserID        string
	CoachName     string
	Message       string
	Status        Status
	Provider      Provider
	AudioURL      string
	VideoURL      string
	ProviderJobID string
	ErrorType     ErrorType
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HealthSummary describes aggregated job counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Generating int
	Completed  int
	Errored    int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status permits no further mutation.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// ParseProvider converts a string into a known Provider.
func ParseProvider(value string) (Provider, bool) {
	switch Provider(strings.ToLower(strings.TrimSpace(value))) {
	case ProviderHeyGen:
		return ProviderHeyGen, true
	case ProviderDID:
		return ProviderDID, true
	default:
		return "", false
	}
}
