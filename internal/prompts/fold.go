package prompts

import (
	"fmt"
	"strings"
)

// foldSummaryTemplate condenses an oversized scraped page. The first
// argument is the conversation context the summary should serve; the
// second is the page text (already truncated to the input cap).
const foldSummaryTemplate = `The following web page text was fetched while working on this request:

%s

Condense the page text below into the facts relevant to that request.
Keep figures, names, and dates exact. Aim for a few short paragraphs.

Page text:
%s

Summary:`

// FoldSummaryPrompt returns the prompt for summarizing a scrape-like
// tool payload in place.
func FoldSummaryPrompt(contextHint, pageText string) string {
	return fmt.Sprintf(foldSummaryTemplate, contextHint, pageText)
}

// foldRelevanceTemplate asks the auxiliary model to pick relevant
// search results. The reply must be a bare JSON array of indices so
// the engine can parse it without a grammar.
const foldRelevanceTemplate = `Recent conversation:
%s

Numbered search results:
%s

Reply with ONLY a JSON array of the indices (0-based) of results relevant
to the conversation, e.g. [0,2]. No prose.`

// FoldRelevancePrompt returns the prompt for relevance-filtering a
// search-like tool payload. Results are pre-rendered as numbered lines.
func FoldRelevancePrompt(recentContext string, numbered []string) string {
	return fmt.Sprintf(foldRelevanceTemplate, recentContext, strings.Join(numbered, "\n"))
}
