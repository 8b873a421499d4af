package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a video job in a transport-friendly format.
type Job struct {
	ID            int64  `json:"id"`
	JobID         string `json:"jobId"`
	UserID        string `json:"userId"`
	CoachName     string `json:"coachName"`
	Message       string `json:"message"`
	Status        string `json:"status"`
	Provider      string `json:"provider,omitempty"`
	AudioURL      string `json:"audioUrl,omitempty"`
	VideoURL      string `json:"videoUrl,omitempty"`
	ProviderJobID string `json:"providerJobId,omitempty"`
	ErrorType     string `json:"errorType,omitempty"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

// CreateJobRequest is the payload for registering a new pending job.
type CreateJobRequest struct {
	JobID     string `json:"jobId,omitempty"`
	UserID    string `json:"userId"`
	CoachName string `json:"coachName"`
	Message   string `json:"message"`
}

// GenerateRequest is the payload for running the generation pipeline.
type GenerateRequest struct {
	UserID         string `json:"userId"`
	CoachName      string `json:"coachName"`
	Message        string `json:"message"`
	JobID          string `json:"jobId"`
	AvatarID       string `json:"avatarId,omitempty"`
	VoiceID        string `json:"voiceId,omitempty"`
	AvatarImageURL string `json:"avatarImageUrl,omitempty"`
	Provider       string `json:"provider,omitempty"`
}

// GenerateResponse acknowledges a dispatched generation request. VideoURL
// is populated later by the poller and stays empty here.
type GenerateResponse struct {
	Success       bool   `json:"success"`
	JobID         string `json:"jobId"`
	Provider      string `json:"provider"`
	ProviderJobID string `json:"videoId,omitempty"`
	VideoURL      string `json:"videoUrl,omitempty"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job payload.
type JobResponse struct {
	Job Job `json:"job"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueDBPath  string         `json:"queueDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	JobCounts    map[string]int `json:"jobCounts"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
