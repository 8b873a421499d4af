package queue

import (
	"context"
	"fmt"
)

// Health returns aggregated job counts per lifecycle state.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM video_jobs GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("query health: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan health row: %w", err)
		}
		summary.Total += count
		switch status {
		case StatusPending:
			summary.Pending = count
		case StatusGenerating:
			summary.Generating = count
		case StatusCompleted:
			summary.Completed = count
		case StatusError:
			summary.Errored = count
		}
	}
	if err := rows.Err(); err != nil {
		return HealthSummary{}, fmt.Errorf("iterate health rows: %w", err)
	}
	return summary, nil
}

// ClearCompleted removes completed jobs and returns the number deleted.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	return s.deleteByStatus(ctx, StatusCompleted)
}

// ClearErrored removes errored jobs and returns the number deleted.
func (s *Store) ClearErrored(ctx context.Context) (int64, error) {
	return s.deleteByStatus(ctx, StatusError)
}

// Clear removes all jobs and returns the number deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM video_jobs`)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) deleteByStatus(ctx context.Context, status Status) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM video_jobs WHERE status = ?`, status)
	if err != nil {
		return 0, fmt.Errorf("delete %s jobs: %w", status, err)
	}
	return res.RowsAffected()
}
