package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"reelmatch/internal/api"
	"reelmatch/internal/ipc"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var maxRating string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Start an ingestion run from a candidate file",
		Long: `Start an asynchronous ingestion run from a JSON candidate file.

The file holds either a bare array of candidates or the same envelope the
HTTP API accepts ({"items": [...], "maxRating": "..."}). Pass "-" to read
from stdin. The daemon processes candidates in batches; follow along with
` + "`reelmatch progress --watch`" + `.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, fileRating, err := readCandidateFile(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return errors.New("candidate file contains no items")
			}

			rating := strings.TrimSpace(maxRating)
			if rating == "" {
				rating = fileRating
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.IngestStart(items, rating)
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("empty response from daemon")
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Started run %s with %d candidates\n", formatRunID(resp.RunID), len(items))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&maxRating, "max-rating", "", "Rating ceiling for this run (overrides config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the daemon response as JSON")

	cmd.AddCommand(newIngestStopCommand(ctx))
	return cmd
}

func newIngestStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the active ingestion run at the next batch boundary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.IngestStop()
				if err != nil {
					return err
				}
				if resp != nil && resp.Stopping {
					fmt.Fprintln(cmd.OutOrStdout(), "Stop requested; the run will halt after the current batch")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "No ingestion run is active")
				return nil
			})
		},
	}
}

// readCandidateFile loads candidates from path, or stdin when path is "-".
// Both the bare-array and the HTTP ingest envelope formats are accepted.
func readCandidateFile(stdin io.Reader, path string) ([]api.Candidate, string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, "", fmt.Errorf("candidate file does not exist: %s", path)
			}
			return nil, "", fmt.Errorf("read candidate file: %w", err)
		}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, "", errors.New("candidate file is empty")
	}

	if trimmed[0] == '[' {
		var items []api.Candidate
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, "", fmt.Errorf("parse candidate file: %w", err)
		}
		return items, "", nil
	}

	var req api.IngestRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, "", fmt.Errorf("parse candidate file: %w", err)
	}
	return req.Items, strings.TrimSpace(req.MaxRating), nil
}
