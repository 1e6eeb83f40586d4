package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reelmatch/internal/config"
	"reelmatch/internal/ipc"
	"reelmatch/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := streamLogsFromAPI(cmd, cfg, lines, follow); err == nil {
				return nil
			} else if !errors.Is(err, logs.ErrAPIUnavailable) {
				return err
			}

			initialLimit := lines
			if initialLimit < 0 {
				initialLimit = 0
			}
			initialOffset := int64(-1)
			if initialLimit == 0 {
				initialOffset = 0
			}

			return ctx.withClient(func(client *ipc.Client) error {
				ctx := cmd.Context()
				offset := initialOffset
				limit := initialLimit
				waitMillis := 1000
				printed := false

				for {
					req := ipc.LogTailRequest{
						Offset:     offset,
						Limit:      limit,
						Follow:     follow,
						WaitMillis: waitMillis,
					}
					resp, err := client.LogTail(req)
					if err != nil {
						return fmt.Errorf("tail logs: %w", err)
					}
					if resp == nil {
						return errors.New("log tail response missing")
					}
					for _, line := range resp.Lines {
						fmt.Fprintln(cmd.OutOrStdout(), line)
						printed = true
					}
					offset = resp.Offset
					limit = 0
					if !follow {
						if !printed {
							fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
						}
						return nil
					}
					select {
					case <-ctx.Done():
						return nil
					default:
					}
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 25, "Number of lines to show (0 for all)")
	return cmd
}

func streamLogsFromAPI(cmd *cobra.Command, cfg *config.Config, lines int, follow bool) error {
	client, err := logs.NewTailClient(cfg.Paths.APIBind, cfg.Paths.APIToken)
	if err != nil {
		return err
	}
	if client == nil {
		return logs.ErrAPIUnavailable
	}

	ctx := cmd.Context()
	query := logs.TailQuery{Offset: -1, Limit: lines}
	if query.Limit <= 0 {
		query.Offset = 0
		query.Limit = 0
	}

	printed := false
	for {
		resp, err := client.Fetch(ctx, query)
		if err != nil {
			if logs.IsAPIUnavailable(err) {
				return logs.ErrAPIUnavailable
			}
			return err
		}
		for _, line := range resp.Lines {
			fmt.Fprintln(cmd.OutOrStdout(), line)
			printed = true
		}
		if !follow {
			if !printed {
				fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
			}
			return nil
		}
		query.Offset = resp.Offset
		query.Limit = 0
		query.Follow = true
		query.Wait = time.Second
	}
}
