package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const jobColumns = `id, job_id, user_id, coach_name, message, status, provider,
    audio_url, video_url, provider_job_id, error_type, error_message,
    created_at, updated_at`

// NewJob inserts a pending job row. The jobID is caller-supplied and must be
// unique; duplicate submissions fail at insert rather than corrupting an
// existing job.
func (s *Store) NewJob(ctx context.Context, jobID, userID, coachName, message string) (*Job, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, errors.New("job id is required")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO video_jobs (
            job_id, user_id, coach_name, message, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		jobID,
		nullableString(userID),
		nullableString(coachName),
		nullableString(message),
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	return s.GetByJobID(ctx, jobID)
}

// GetByJobID fetches a job by its caller-supplied identifier.
func (s *Store) GetByJobID(ctx context.Context, jobID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM video_jobs WHERE job_id = ?`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns jobs, optionally filtered by status, newest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM video_jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// GeneratingWithProviderJob returns jobs stuck in the generating state that
// carry a provider job id for the given provider. Used to resume status
// polling after a daemon restart.
func (s *Store) GeneratingWithProviderJob(ctx context.Context, provider Provider) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM video_jobs
         WHERE status = ? AND provider = ? AND provider_job_id IS NOT NULL
         ORDER BY created_at`,
		StatusGenerating,
		provider,
	)
	if err != nil {
		return nil, fmt.Errorf("query generating jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job           Job
		userID        sql.NullString
		coachName     sql.NullString
		message       sql.NullString
		provider      sql.NullString
		audioURL      sql.NullString
		videoURL      sql.NullString
		providerJobID sql.NullString
		errorType     sql.NullString
		errorMessage  sql.NullString
		createdAt     string
		updatedAt     string
	)
	if err := row.Scan(
		&job.ID,
		&job.JobID,
		&userID,
		&coachName,
		&message,
		&job.Status,
		&provider,
		&audioURL,
		&videoURL,
		&providerJobID,
		&errorType,
		&errorMessage,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	job.UserID = userID.String
	job.CoachName = coachName.String
	job.Message = message.String
	job.Provider = Provider(provider.String)
	job.AudioURL = audioURL.String
	job.VideoURL = videoURL.String
	job.ProviderJobID = providerJobID.String
	job.ErrorType = ErrorType(errorType.String)
	job.ErrorMessage = errorMessage.String

	var err error
	if job.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if job.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &job, nil
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
