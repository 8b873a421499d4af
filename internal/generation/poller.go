package generation

import (
	"context"
	"fmt"
	"time"

	"coachcast/internal/logging"
	"coachcast/internal/queue"
	"coachcast/internal/services/did"
)

// startPoller launches a detached goroutine that drives one D-ID talk to a
// terminal job state. Its lifetime is bound to the generator, not to the
// request that dispatched it.
func (g *Generator) startPoller(jobID, talkID string) {
	ctx := g.pollContext()
	g.pollers.Add(1)
	go func() {
		defer g.pollers.Done()
		g.pollTalk(ctx, jobID, talkID)
	}()
}

// pollTalk probes the talk on a fixed interval until it reaches a terminal
// status or the attempt budget runs out. Transport and decode errors are
// tolerated; they consume an attempt and the loop continues.
func (g *Generator) pollTalk(ctx context.Context, jobID, talkID string) {
	logger := g.logger.With(
		logging.String(logging.FieldJobID, jobID),
		logging.String("talk_id", talkID))

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			logger.Info("poller stopped before completion", logging.Int("attempt", attempt))
			return
		case <-ticker.C:
		}

		terminal, err := g.PollOnce(ctx, jobID, talkID)
		if err != nil {
			logger.Warn("poll attempt failed", logging.Int("attempt", attempt), logging.Error(err))
			continue
		}
		if terminal {
			return
		}
	}

	message := timeoutMessage(g.pollInterval, g.maxAttempts)
	updated, err := g.store.MarkError(ctx, jobID, queue.ErrorTypeTimeout, message)
	if err != nil {
		logger.Error("failed to record poll timeout", logging.Error(err))
		return
	}
	if updated {
		logger.Warn("generation timed out", logging.Int("attempts", g.maxAttempts))
	}
}

// PollOnce performs a single status probe and, when the talk is terminal,
// writes the corresponding job state. It reports whether a terminal status
// was observed. Probe failures are returned so callers can decide whether
// to retry.
func (g *Generator) PollOnce(ctx context.Context, jobID, talkID string) (bool, error) {
	talk, err := g.did.GetTalk(ctx, talkID)
	if err != nil {
		return false, err
	}

	logger := g.logger.With(
		logging.String(logging.FieldJobID, jobID),
		logging.String("talk_id", talkID),
		logging.String("talk_status", talk.Status))

	switch {
	case talk.Status == did.StatusDone && talk.ResultURL != "":
		updated, err := g.store.MarkCompleted(ctx, jobID, talk.ResultURL)
		if err != nil {
			logger.Error("failed to record completion", logging.Error(err))
			return true, nil
		}
		if updated {
			logger.Info("generation completed", logging.String("video_url", talk.ResultURL))
		}
		return true, nil
	case talk.Status == did.StatusError || talk.Status == did.StatusRejected:
		message := talk.Error
		if message == "" {
			message = fmt.Sprintf("provider reported status %q", talk.Status)
		}
		updated, err := g.store.MarkError(ctx, jobID, queue.ErrorTypeProvider, message)
		if err != nil {
			logger.Error("failed to record provider error", logging.Error(err))
			return true, nil
		}
		if updated {
			logger.Warn("generation failed at provider", logging.String("reason", message))
		}
		return true, nil
	default:
		return false, nil
	}
}

// ResumePolling restarts pollers for jobs that were mid-generation when the
// daemon last stopped. Only the polled provider can be resumed; heygen jobs
// complete out-of-band.
func (g *Generator) ResumePolling(ctx context.Context) error {
	jobs, err := g.store.GeneratingWithProviderJob(ctx, queue.ProviderDID)
	if err != nil {
		return fmt.Errorf("list resumable jobs: %w", err)
	}
	for _, job := range jobs {
		g.startPoller(job.JobID, job.ProviderJobID)
	}
	if len(jobs) > 0 {
		g.logger.Info("resumed polling", logging.Int("jobs", len(jobs)))
	}
	return nil
}

// timeoutMessage renders the attempt budget as a human-readable duration,
// e.g. 5s x 60 attempts -> "5 minutes".
func timeoutMessage(interval time.Duration, attempts int) string {
	total := interval * time.Duration(attempts)
	if total >= time.Minute && total%time.Minute == 0 {
		minutes := int(total / time.Minute)
		if minutes == 1 {
			return "Video generation timed out after 1 minute"
		}
		return fmt.Sprintf("Video generation timed out after %d minutes", minutes)
	}
	return fmt.Sprintf("Video generation timed out after %d seconds", int(total/time.Second))
}
