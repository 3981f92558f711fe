package tools

import (
	"fmt"
	"strings"
)

// SearchEntry is one entry of a search-like result payload. Tools that
// tag their Result with KindSearch must use []SearchEntry as the
// payload so the folding pass can filter it without knowing which
// backend produced it.
type SearchEntry struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// RenderSearchEntries builds the numbered human-readable listing used
// both in tool messages and in the relevance-filter prompt.
func RenderSearchEntries(entries []SearchEntry) string {
	if len(entries) == 0 {
		return "No results."
	}
	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d. %s\n   %s", i+1, e.Title, e.URL)
		if e.Snippet != "" {
			fmt.Fprintf(&sb, "\n   %s", e.Snippet)
		}
	}
	return sb.String()
}

// SearchEntries extracts the search payload from a result, or nil when
// the result is not search-like.
func SearchEntries(r *Result) []SearchEntry {
	if r == nil || r.Kind != KindSearch {
		return nil
	}
	entries, _ := r.Payload.([]SearchEntry)
	return entries
}
