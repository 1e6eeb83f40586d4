package reconcile

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Candidate is one unresolved recommendation suggestion. Immutable; consumed
// once per reconciliation attempt.
type Candidate struct {
	Title       string `json:"title"`
	Year        string `json:"year,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// externalURLPattern extracts an IMDb-style identifier from a title URL.
var externalURLPattern = regexp.MustCompile(`/title/(tt\d+)/?`)

// ExternalIDs collects every known identifier for the candidate: the direct
// id first, then one extracted from the external URL. Deduplicated, order
// preserved.
func (c Candidate) ExternalIDs() []string {
	ids := make([]string, 0, 2)
	seen := make(map[string]struct{}, 2)

	appendID := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		key := strings.ToLower(id)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		ids = append(ids, id)
	}

	appendID(c.ExternalID)
	if match := externalURLPattern.FindStringSubmatch(c.ExternalURL); match != nil {
		appendID(match[1])
	}
	return ids
}

// YearNumber parses the candidate year, returning 0 when absent or
// malformed.
func (c Candidate) YearNumber() int {
	year, err := strconv.Atoi(strings.TrimSpace(c.Year))
	if err != nil || year <= 0 {
		return 0
	}
	return year
}

// DisplayTitle returns a cleaned rendition of the candidate title for logs
// and tables. All-lowercase titles are title-cased; mixed-case titles are
// left alone.
func (c Candidate) DisplayTitle() string {
	title := strings.Join(strings.Fields(c.Title), " ")
	if title == "" {
		return "Untitled"
	}
	if title == strings.ToLower(title) {
		return cases.Title(language.Und).String(title)
	}
	return title
}
