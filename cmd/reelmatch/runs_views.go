package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"reelmatch/internal/api"
)

func buildRunStatsRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStateLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildRunListRows(runs []api.RunSummary) [][]string {
	if len(runs) == 0 {
		return nil
	}
	sorted := make([]api.RunSummary, len(runs))
	copy(sorted, runs)

	sort.Slice(sorted, func(i, j int) bool {
		ti := parseRunTime(sorted[i].StartedAt)
		tj := parseRunTime(sorted[j].StartedAt)
		if ti.Equal(tj) {
			return sorted[i].RunID > sorted[j].RunID
		}
		return ti.After(tj)
	})

	rows := make([][]string, 0, len(sorted))
	for _, run := range sorted {
		rows = append(rows, []string{
			formatRunID(run.RunID),
			formatStateLabel(run.State),
			fmt.Sprintf("%d/%d", run.Processed, run.Total),
			fmt.Sprintf("%d", run.Successful),
			fmt.Sprintf("%d", run.Failed),
			formatDisplayTime(run.StartedAt),
		})
	}
	return rows
}

func buildRunResultRows(results []api.RunResult) [][]string {
	if len(results) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		matched := strings.TrimSpace(result.CatalogTitle)
		if matched == "" {
			matched = "-"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", result.Position),
			candidateLabel(result.CandidateTitle, result.CandidateYear),
			formatStateLabel(result.Outcome),
			matched,
			formatSimilarity(result.Similarity),
		})
	}
	return rows
}

func buildMatchRows(matches []api.RankedMatch) [][]string {
	if len(matches) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(matches))
	for _, match := range matches {
		rows = append(rows, []string{
			fmt.Sprintf("%d", match.Entry.ID),
			candidateLabel(match.Entry.Title, match.Entry.Year),
			match.Entry.MediaType,
			formatRatingLabel(match.Entry.Rating),
			formatSimilarity(match.Similarity),
			formatStateLabel(match.Tier),
		})
	}
	return rows
}

func buildRecommendationRows(entries []api.RecommendedEntry) [][]string {
	if len(entries) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			candidateLabel(entry.Entry.Title, entry.Entry.Year),
			entry.Entry.MediaType,
			formatRatingLabel(entry.Entry.Rating),
			formatSimilarity(entry.Similarity),
			truncateText(entry.Reason, 60),
		})
	}
	return rows
}

func candidateLabel(title, year string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Unknown"
	}
	year = strings.TrimSpace(year)
	if year == "" {
		return title
	}
	return fmt.Sprintf("%s (%s)", title, year)
}

func formatStateLabel(state string) string {
	state = strings.TrimSpace(state)
	if state == "" {
		return ""
	}
	parts := strings.Split(state, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatRatingLabel(rating string) string {
	rating = strings.TrimSpace(rating)
	if rating == "" {
		return "-"
	}
	return rating
}

func formatSimilarity(value float64) string {
	if value <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", value)
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func parseRunTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

func formatRunID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) > 8 {
		return value[:8]
	}
	return value
}

func truncateText(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
