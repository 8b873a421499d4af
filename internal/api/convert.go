package api

import "coachcast/internal/queue"

// FromJob converts a queue row into its API representation.
func FromJob(job *queue.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:            job.ID,
		JobID:         job.JobID,
		UserID:        job.UserID,
		CoachName:     job.CoachName,
		Message:       job.Message,
		Status:        string(job.Status),
		Provider:      string(job.Provider),
		AudioURL:      job.AudioURL,
		VideoURL:      job.VideoURL,
		ProviderJobID: job.ProviderJobID,
		ErrorType:     string(job.ErrorType),
		ErrorMessage:  job.ErrorMessage,
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of queue rows.
func FromJobs(jobs []*queue.Job) []Job {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// MergeJobCounts flattens a health summary into string-keyed counts.
func MergeJobCounts(summary queue.HealthSummary) map[string]int {
	return map[string]int{
		"total":      summary.Total,
		"pending":    summary.Pending,
		"generating": summary.Generating,
		"completed":  summary.Completed,
		"error":      summary.Errored,
	}
}
