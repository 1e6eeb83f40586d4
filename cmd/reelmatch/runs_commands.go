package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelmatch/internal/api"
	"reelmatch/internal/ipc"
	"reelmatch/internal/runstore"
)

const defaultRunListLimit = 20

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect and manage ingestion run history",
	}

	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsClearCommand(ctx))
	runsCmd.AddCommand(newRunsPruneCommand(ctx))

	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List persisted runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *runstore.Store) error {
				runs, err := listRuns(cmd.Context(), client, store, limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), api.RunListResponse{Runs: runs})
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				table := renderTable(
					[]tableColumn{{name: "Run"}, {name: "State"}, {name: "Progress", rightAlign: true}, {name: "OK", rightAlign: true}, {name: "Failed", rightAlign: true}, {name: "Started"}},
					buildRunListRows(runs),
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultRunListLimit, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit run summaries as JSON")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <runID>",
		Short: "Show one run with its per-candidate results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *runstore.Store) error {
				detail, err := describeRun(cmd.Context(), client, store, strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if detail == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), detail)
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				run := detail.Run
				fmt.Fprintln(stdout, renderStatusLine("Run", statusInfo, run.RunID, colorize))
				fmt.Fprintln(stdout, renderStatusLine("State", runStateKind(run.State), formatStateLabel(run.State), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Progress", statusInfo, fmt.Sprintf("%d/%d processed", run.Processed, run.Total), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Successful", statusInfo, fmt.Sprintf("%d", run.Successful), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Failed", statusInfo, fmt.Sprintf("%d", run.Failed), colorize))
				if started := formatDisplayTime(run.StartedAt); started != "" {
					fmt.Fprintln(stdout, renderStatusLine("Started", statusInfo, started, colorize))
				}

				if len(detail.Results) == 0 {
					fmt.Fprintln(stdout, "No per-candidate results recorded")
					return nil
				}
				table := renderTable(
					[]tableColumn{{name: "#", rightAlign: true}, {name: "Candidate"}, {name: "Outcome"}, {name: "Matched"}, {name: "Similarity", rightAlign: true}},
					buildRunResultRows(detail.Results),
				)
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run detail as JSON")
	return cmd
}

func newRunsClearCommand(ctx *commandContext) *cobra.Command {
	var clearForce bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all persisted run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *runstore.Store) error {
				out := cmd.OutOrStdout()
				if clearForce {
					fmt.Fprintln(out, "Clearing run history without confirmation (--force)")
				}

				var removed int64
				var err error
				if client != nil {
					resp, respErr := client.RunsClear()
					if respErr != nil {
						return respErr
					}
					removed = resp.Removed
				} else {
					removed, err = store.Clear(cmd.Context())
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(out, "Cleared %d runs\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearForce, "force", false, "No-op flag for compatibility; removal always proceeds")
	return cmd
}

func newRunsPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Keep the most recent runs and delete the rest",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return errors.New("--keep must be zero or positive")
			}
			return ctx.withStore(func(client *ipc.Client, store *runstore.Store) error {
				var removed int64
				var err error
				if client != nil {
					resp, respErr := client.RunsPrune(keep)
					if respErr != nil {
						return respErr
					}
					removed = resp.Removed
				} else {
					removed, err = store.Prune(cmd.Context(), keep)
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d runs (kept up to %d)\n", removed, keep)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&keep, "keep", "k", defaultRunListLimit, "Number of recent runs to keep")
	return cmd
}

func listRuns(ctx context.Context, client *ipc.Client, store *runstore.Store, limit int) ([]api.RunSummary, error) {
	if client != nil {
		resp, err := client.RunList(limit)
		if err != nil {
			return nil, err
		}
		return resp.Runs, nil
	}
	return api.NewHistoryService(store).List(ctx, limit)
}

// describeRun fetches one run by id, tolerating the shortened ids shown in
// list output: when the exact lookup misses, a unique run-id prefix matches.
func describeRun(ctx context.Context, client *ipc.Client, store *runstore.Store, runID string) (*api.RunDetailResponse, error) {
	detail, err := fetchRunDetail(ctx, client, store, runID)
	if err != nil || detail != nil {
		return detail, err
	}

	runs, err := listRuns(ctx, client, store, 0)
	if err != nil {
		return nil, err
	}
	resolved := ""
	for _, run := range runs {
		if !strings.HasPrefix(run.RunID, runID) {
			continue
		}
		if resolved != "" {
			return nil, fmt.Errorf("run id %q is ambiguous", runID)
		}
		resolved = run.RunID
	}
	if resolved == "" {
		return nil, nil
	}
	return fetchRunDetail(ctx, client, store, resolved)
}

func fetchRunDetail(ctx context.Context, client *ipc.Client, store *runstore.Store, runID string) (*api.RunDetailResponse, error) {
	if client != nil {
		resp, err := client.RunDescribe(runID)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "not found") {
				return nil, nil
			}
			return nil, err
		}
		if resp == nil {
			return nil, nil
		}
		return &api.RunDetailResponse{Run: resp.Run, Results: resp.Results}, nil
	}
	return api.NewHistoryService(store).Describe(ctx, runID)
}

func runStateKind(state string) statusKind {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "completed":
		return statusOK
	case "aborted", "failed":
		return statusError
	case "stopped":
		return statusWarn
	default:
		return statusInfo
	}
}
