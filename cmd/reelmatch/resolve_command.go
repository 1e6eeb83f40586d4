package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelmatch/internal/api"
	"reelmatch/internal/logging"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var year string
	var externalID string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "resolve [title]",
		Short: "Resolve one candidate against the catalog",
		Long: `Resolve a single candidate title against the catalog and print the ranked
disambiguation list. Resolution goes through the daemon when it is running
so lookups share its catalog cache; otherwise the catalog is queried
directly.

Examples:
  reelmatch resolve "Blade Runner"
  reelmatch resolve "Blade Runner" --year 1982
  reelmatch resolve --id tt0083658`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := ""
			if len(args) > 0 {
				title = args[0]
			}
			if title == "" && externalID == "" {
				return fmt.Errorf("a title or --id is required")
			}

			resp, err := resolveViaDaemonOrDirect(ctx, cmd, title, year, externalID)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), resp)
			}

			stdout := cmd.OutOrStdout()
			assessment := api.AssessResolve(resp.Matches)
			fmt.Fprintln(stdout, assessment.OutcomeMessage)
			if len(resp.Matches) == 0 {
				return nil
			}

			table := renderTable(
				[]tableColumn{{name: "ID", rightAlign: true}, {name: "Title"}, {name: "Type"}, {name: "Rating"}, {name: "Similarity", rightAlign: true}, {name: "Tier"}},
				buildMatchRows(resp.Matches),
			)
			fmt.Fprintln(stdout, table)
			return nil
		},
	}

	cmd.Flags().StringVarP(&year, "year", "y", "", "Release year hint")
	cmd.Flags().StringVar(&externalID, "id", "", "External identifier (IMDb id or TMDB id)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the ranked match list as JSON")
	return cmd
}

func resolveViaDaemonOrDirect(ctx *commandContext, cmd *cobra.Command, title, year, externalID string) (*api.ResolveResponse, error) {
	client, err := ctx.dialClient()
	if err == nil {
		defer client.Close()
		resp, err := client.Resolve(title, year, externalID)
		if err != nil {
			return nil, err
		}
		return &api.ResolveResponse{Candidate: resp.Candidate, Matches: resp.Matches}, nil
	}
	if !daemonUnreachable(err) {
		return nil, err
	}

	cfg, cfgErr := ctx.ensureConfig()
	if cfgErr != nil {
		return nil, cfgErr
	}
	result, err := api.ResolveCandidate(cmd.Context(), api.ResolveRequest{
		Config:     cfg,
		Logger:     logging.NewNop(),
		Title:      title,
		Year:       year,
		ExternalID: externalID,
	})
	if err != nil {
		return nil, err
	}
	return &api.ResolveResponse{
		Candidate: api.FromCandidate(result.Candidate),
		Matches:   api.FromMatches(result.Matches),
	}, nil
}
