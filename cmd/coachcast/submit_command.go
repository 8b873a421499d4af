package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"coachcast/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		userID    string
		coachName string
		message   string
		jobID     string
		provider  string
		avatarID  string
		voiceID   string
		imageURL  string
		wait      bool
		timeout   time.Duration
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a coach-video generation job",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			job, err := client.CreateJob(cmd.Context(), api.CreateJobRequest{
				JobID:     jobID,
				UserID:    userID,
				CoachName: coachName,
				Message:   message,
			})
			if err != nil {
				return fmt.Errorf("create job: %w", err)
			}

			ack, err := client.Generate(cmd.Context(), api.GenerateRequest{
				UserID:         userID,
				CoachName:      coachName,
				Message:        message,
				JobID:          job.JobID,
				AvatarID:       avatarID,
				VoiceID:        voiceID,
				AvatarImageURL: imageURL,
				Provider:       provider,
			})
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			stdout := cmd.OutOrStdout()
			if !wait {
				if asJSON {
					return writeJSON(cmd, ack)
				}
				fmt.Fprintf(stdout, "Job %s dispatched to %s (provider job %s)\n", ack.JobID, ack.Provider, ack.ProviderJobID)
				if ack.Provider == "heygen" {
					fmt.Fprintln(stdout, "Completion is reported by the provider out-of-band; check back with 'coachcast jobs show'.")
				}
				return nil
			}

			final, err := waitForTerminal(cmd.Context(), client, ack.JobID, timeout)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, final)
			}
			switch final.Status {
			case "completed":
				fmt.Fprintf(stdout, "Job %s completed: %s\n", final.JobID, final.VideoURL)
			case "error":
				return fmt.Errorf("job %s failed (%s): %s", final.JobID, final.ErrorType, final.ErrorMessage)
			default:
				fmt.Fprintf(stdout, "Job %s still %s after %s\n", final.JobID, final.Status, timeout)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User identifier for attribution")
	cmd.Flags().StringVar(&coachName, "coach", "", "Coach name")
	cmd.Flags().StringVar(&message, "message", "", "Message text to speak")
	cmd.Flags().StringVar(&jobID, "job-id", "", "Explicit job identifier (generated when omitted)")
	cmd.Flags().StringVar(&provider, "provider", "auto", "Video provider: heygen, did, or auto")
	cmd.Flags().StringVar(&avatarID, "avatar-id", "", "HeyGen avatar override")
	cmd.Flags().StringVar(&voiceID, "voice-id", "", "Voice override")
	cmd.Flags().StringVar(&imageURL, "avatar-image-url", "", "D-ID source image override")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the job to reach a terminal state")
	cmd.Flags().DurationVar(&timeout, "timeout", 6*time.Minute, "Maximum time to wait with --wait")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("coach")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func waitForTerminal(ctx context.Context, client jobFetcher, jobID string, timeout time.Duration) (*api.Job, error) {
	deadline := time.Now().Add(timeout)
	for {
		job, err := client.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job == nil {
			return nil, fmt.Errorf("job %q disappeared while waiting", jobID)
		}
		if isTerminalStatus(job.Status) || time.Now().After(deadline) {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

type jobFetcher interface {
	GetJob(ctx context.Context, jobID string) (*api.Job, error)
}

func isTerminalStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "error":
		return true
	}
	return false
}
