package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reelmatch/internal/api"
	"reelmatch/internal/ipc"
	"reelmatch/internal/runstore"
)

const progressPollInterval = 2 * time.Second

func newProgressCommand(ctx *commandContext) *cobra.Command {
	var watch bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show live progress for the active ingestion run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return ctx.withClient(func(client *ipc.Client) error {
					return watchProgress(cmd, client)
				})
			}

			return ctx.withStore(func(client *ipc.Client, store *runstore.Store) error {
				stdout := cmd.OutOrStdout()
				if client != nil {
					resp, err := client.Progress()
					if err != nil {
						return err
					}
					if jsonOutput {
						return writeJSON(cmd.OutOrStdout(), resp)
					}
					printRunStatus(cmd, resp.Status)
					return nil
				}

				// Daemon offline: fall back to the last persisted snapshot.
				latest, err := api.NewHistoryService(store).Latest(cmd.Context())
				if err != nil {
					return err
				}
				if latest == nil {
					fmt.Fprintln(stdout, "No runs recorded")
					return nil
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), latest)
				}
				fmt.Fprintln(stdout, "Daemon not running; showing last persisted snapshot")
				fmt.Fprintln(stdout, formatProgressLine(api.RunStatus{
					RunID:      latest.RunID,
					State:      latest.State,
					Total:      latest.Total,
					Processed:  latest.Processed,
					Successful: latest.Successful,
					Failed:     latest.Failed,
					Percent:    latest.Percent,
				}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll until the run reaches a terminal state")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the status snapshot as JSON")
	return cmd
}

func printRunStatus(cmd *cobra.Command, status api.RunStatus) {
	stdout := cmd.OutOrStdout()
	if status.RunID == "" && !status.Running {
		fmt.Fprintln(stdout, "No ingestion run is active")
		return
	}
	fmt.Fprintln(stdout, formatProgressLine(status))
	for _, line := range status.Logs {
		fmt.Fprintf(stdout, "  %s\n", line)
	}
}

func watchProgress(cmd *cobra.Command, client *ipc.Client) error {
	stdout := cmd.OutOrStdout()
	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()

	var lastLine string
	for {
		resp, err := client.Progress()
		if err != nil {
			return err
		}
		status := resp.Status
		if status.RunID == "" && !status.Running {
			fmt.Fprintln(stdout, "No ingestion run is active")
			return nil
		}
		if line := formatProgressLine(status); line != lastLine {
			fmt.Fprintln(stdout, line)
			lastLine = line
		}
		if !status.Running {
			return nil
		}

		select {
		case <-cmd.Context().Done():
			return nil
		case <-ticker.C:
		}
	}
}

func formatProgressLine(status api.RunStatus) string {
	label := formatStateLabel(status.State)
	if label == "" {
		label = "Unknown"
	}
	line := fmt.Sprintf("[%s] %d/%d (%.1f%%) ok=%d failed=%d",
		label, status.Processed, status.Total, status.Percent, status.Successful, status.Failed)
	if id := formatRunID(status.RunID); id != "" {
		line = fmt.Sprintf("%s run=%s", line, id)
	}
	return line
}
