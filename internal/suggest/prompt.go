package suggest

import (
	"fmt"
	"strings"
)

// RecommendationPrompt captures the instructions sent to the configured model
// when generating candidate titles. Update this text centrally so every call
// stays in sync.
const RecommendationPrompt = `You are an assistant that recommends movies and tv series for a viewer based on their quiz answers.

Rules:

- Recommend only real, released titles. Never invent a title.
- Respect the maximum maturity rating if one is given: nothing rated above it.
- Order suggestions from best fit to worst fit.
- Prefer well-known titles when the preferences are vague, and more specific picks when the preferences are detailed.
- Include the release year when you know it.
- Keep each reason to one short sentence tied to the viewer's answers.

You must respond ONLY with a JSON object like: {"suggestions": [{"title": "Inception", "year": "2010", "reason": "short explanation"}]}

Now recommend titles for this viewer:`

// buildUserPrompt renders the preferences as labelled lines. Empty fields are
// omitted so the model only sees what the viewer actually answered.
func buildUserPrompt(prefs Preferences, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Number of suggestions: %d\n", count)
	if mediaType := strings.TrimSpace(prefs.MediaType); mediaType != "" {
		fmt.Fprintf(&b, "Media type: %s\n", mediaType)
	}
	if len(prefs.Genres) > 0 {
		fmt.Fprintf(&b, "Genres: %s\n", strings.Join(prefs.Genres, ", "))
	}
	if len(prefs.Moods) > 0 {
		fmt.Fprintf(&b, "Moods: %s\n", strings.Join(prefs.Moods, ", "))
	}
	if era := strings.TrimSpace(prefs.Era); era != "" {
		fmt.Fprintf(&b, "Era: %s\n", era)
	}
	if rating := strings.TrimSpace(prefs.MaxRating); rating != "" {
		fmt.Fprintf(&b, "Maximum maturity rating: %s\n", rating)
	}
	if notes := strings.TrimSpace(prefs.Notes); notes != "" {
		fmt.Fprintf(&b, "Other answers: %s\n", notes)
	}
	return strings.TrimSpace(b.String())
}
