package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"coachcast/internal/api"
	"coachcast/internal/queue"
)

var titleCaser = cases.Title(language.English)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and maintain video jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List video jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			var statuses []queue.Status
			for _, raw := range statusFilters {
				status, ok := queue.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q (expected one of pending, generating, completed, error)", raw)
				}
				statuses = append(statuses, status)
			}

			jobs, err := client.ListJobs(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, api.JobListResponse{Jobs: jobs})
			}

			stdout := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(stdout, "No jobs found")
				return nil
			}

			rows := make([][]string, 0, len(jobs))
			for _, job := range jobs {
				rows = append(rows, []string{
					job.JobID,
					titleCaser.String(job.CoachName),
					job.Status,
					job.Provider,
					truncate(job.Message, 40),
					jobOutcome(job),
				})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Job", "Coach", "Status", "Provider", "Message", "Outcome"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			job, err := client.GetJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if job == nil {
				return fmt.Errorf("job %q not found", args[0])
			}
			if asJSON {
				return writeJSON(cmd, api.JobResponse{Job: *job})
			}

			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Job:        %s\n", job.JobID)
			fmt.Fprintf(stdout, "Coach:      %s\n", titleCaser.String(job.CoachName))
			fmt.Fprintf(stdout, "User:       %s\n", job.UserID)
			fmt.Fprintf(stdout, "Status:     %s\n", job.Status)
			if job.Provider != "" {
				fmt.Fprintf(stdout, "Provider:   %s\n", job.Provider)
			}
			if job.ProviderJobID != "" {
				fmt.Fprintf(stdout, "Provider #: %s\n", job.ProviderJobID)
			}
			if job.AudioURL != "" {
				fmt.Fprintf(stdout, "Audio:      %s\n", job.AudioURL)
			}
			if job.VideoURL != "" {
				fmt.Fprintf(stdout, "Video:      %s\n", job.VideoURL)
			}
			if job.ErrorType != "" {
				fmt.Fprintf(stdout, "Error:      [%s] %s\n", job.ErrorType, job.ErrorMessage)
			}
			fmt.Fprintf(stdout, "Message:    %s\n", job.Message)
			if job.CreatedAt != "" {
				fmt.Fprintf(stdout, "Created:    %s\n", job.CreatedAt)
			}
			if job.UpdatedAt != "" {
				fmt.Fprintf(stdout, "Updated:    %s\n", job.UpdatedAt)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	var clearErrored bool
	var clearCompleted bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished jobs from the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var removed int64
			switch {
			case clearErrored && !clearCompleted:
				removed, err = store.ClearErrored(cmd.Context())
			case clearCompleted && !clearErrored:
				removed, err = store.ClearCompleted(cmd.Context())
			default:
				removed, err = store.Clear(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearErrored, "errored", false, "Only remove errored jobs")
	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Only remove completed jobs")
	return cmd
}

func jobOutcome(job api.Job) string {
	switch job.Status {
	case "completed":
		return job.VideoURL
	case "error":
		return truncate(job.ErrorMessage, 40)
	default:
		return ""
	}
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 3 || len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
