package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and job counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("daemon unreachable: %w", err)
			}
			if asJSON {
				return writeJSON(cmd, status)
			}

			stdout := cmd.OutOrStdout()
			state := "stopped"
			if status.Running {
				state = "running"
			}
			fmt.Fprintf(stdout, "Daemon:   %s (pid %d)\n", state, status.PID)
			fmt.Fprintf(stdout, "Database: %s\n", status.QueueDBPath)
			fmt.Fprintf(stdout, "Lock:     %s\n", status.LockFilePath)

			rows := [][]string{
				{"pending", fmt.Sprintf("%d", status.JobCounts["pending"])},
				{"generating", fmt.Sprintf("%d", status.JobCounts["generating"])},
				{"completed", fmt.Sprintf("%d", status.JobCounts["completed"])},
				{"error", fmt.Sprintf("%d", status.JobCounts["error"])},
				{"total", fmt.Sprintf("%d", status.JobCounts["total"])},
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Status", "Jobs"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}
