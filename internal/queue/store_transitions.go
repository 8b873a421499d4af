package queue

import (
	"context"
	"fmt"
	"time"
)

// MarkGenerating transitions a pending job to generating, recording the
// audio URL, provider, provider job id, and any immediately-known video URL.
// The write is conditional on the job still being pending, so a concurrent
// duplicate submission becomes a detectable no-op instead of a second
// pipeline silently overwriting the first. Returns whether a row changed.
func (s *Store) MarkGenerating(ctx context.Context, jobID string, provider Provider, audioURL, videoURL, providerJobID string) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE video_jobs
         SET status = ?, provider = ?, audio_url = ?, video_url = ?,
             provider_job_id = ?, error_type = NULL, error_message = NULL,
             updated_at = ?
         WHERE job_id = ? AND status = ?`,
		StatusGenerating,
		provider,
		nullableString(audioURL),
		nullableString(videoURL),
		nullableString(providerJobID),
		time.Now().UTC().Format(time.RFC3339Nano),
		jobID,
		StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("mark generating: %w", err)
	}
	return changedRows(res)
}

// MarkCompleted writes the terminal completed state with the final video URL.
// Terminal states are immutable: the write only applies while the job is
// still pending or generating. Returns whether a row changed.
func (s *Store) MarkCompleted(ctx context.Context, jobID, videoURL string) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE video_jobs
         SET status = ?, video_url = ?, updated_at = ?
         WHERE job_id = ? AND status IN (?, ?)`,
		StatusCompleted,
		nullableString(videoURL),
		time.Now().UTC().Format(time.RFC3339Nano),
		jobID,
		StatusPending,
		StatusGenerating,
	)
	if err != nil {
		return false, fmt.Errorf("mark completed: %w", err)
	}
	return changedRows(res)
}

// MarkError writes the terminal error state with a classification and
// diagnostic message. Like MarkCompleted, the write only applies to
// non-terminal jobs. Returns whether a row changed.
func (s *Store) MarkError(ctx context.Context, jobID string, errorType ErrorType, message string) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE video_jobs
         SET status = ?, error_type = ?, error_message = ?, updated_at = ?
         WHERE job_id = ? AND status IN (?, ?)`,
		StatusError,
		errorType,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		jobID,
		StatusPending,
		StatusGenerating,
	)
	if err != nil {
		return false, fmt.Errorf("mark error: %w", err)
	}
	return changedRows(res)
}

func changedRows(res interface{ RowsAffected() (int64, error) }) (bool, error) {
	count, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return count > 0, nil
}
