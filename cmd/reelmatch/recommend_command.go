package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelmatch/internal/api"
	"reelmatch/internal/logging"
)

func newRecommendCommand(ctx *commandContext) *cobra.Command {
	var mediaType string
	var genres []string
	var moods []string
	var era string
	var maxRating string
	var count int
	var notes string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Get catalog-backed recommendations from quiz preferences",
		Long: `Run the preference quiz flow: ask the recommendation model for
suggestions, resolve each against the catalog, filter by the rating
ceiling, and print the entries that survived.

Examples:
  reelmatch recommend --genre thriller --mood tense --era 1990s
  reelmatch recommend --type tv --genre comedy --count 5 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs := api.QuizPreferences{
				MediaType: mediaType,
				Genres:    genres,
				Moods:     moods,
				Era:       era,
				MaxRating: maxRating,
				Count:     count,
				Notes:     notes,
			}

			entries, err := recommendViaDaemonOrDirect(ctx, cmd, prefs)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), api.RecommendResponse{Entries: entries})
			}

			stdout := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(stdout, "No recommendations survived catalog resolution and rating filtering")
				return nil
			}

			table := renderTable(
				[]tableColumn{{name: "Title"}, {name: "Type"}, {name: "Rating"}, {name: "Similarity", rightAlign: true}, {name: "Reason"}},
				buildRecommendationRows(entries),
			)
			fmt.Fprintln(stdout, table)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mediaType, "type", "t", "", "Media type preference (movie or tv)")
	cmd.Flags().StringSliceVarP(&genres, "genre", "g", nil, "Genre preference (repeatable)")
	cmd.Flags().StringSliceVarP(&moods, "mood", "m", nil, "Mood preference (repeatable)")
	cmd.Flags().StringVar(&era, "era", "", "Era preference (for example 1990s)")
	cmd.Flags().StringVar(&maxRating, "max-rating", "", "Rating ceiling (overrides config)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of suggestions to request")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes for the recommendation model")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit recommendations as JSON")
	return cmd
}

func recommendViaDaemonOrDirect(ctx *commandContext, cmd *cobra.Command, prefs api.QuizPreferences) ([]api.RecommendedEntry, error) {
	client, err := ctx.dialClient()
	if err == nil {
		defer client.Close()
		resp, err := client.Recommend(prefs)
		if err != nil {
			return nil, err
		}
		if resp == nil {
			return nil, nil
		}
		return resp.Entries, nil
	}
	if !daemonUnreachable(err) {
		return nil, err
	}

	cfg, cfgErr := ctx.ensureConfig()
	if cfgErr != nil {
		return nil, cfgErr
	}
	result, err := api.Recommend(cmd.Context(), api.RecommendRequest{
		Config:      cfg,
		Logger:      logging.NewNop(),
		Preferences: api.ToPreferences(prefs),
	})
	if err != nil {
		return nil, err
	}
	return api.FromRecommendedMatches(result.Matches), nil
}
