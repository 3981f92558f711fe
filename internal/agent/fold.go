package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/weissjeffm/mybot/internal/llm"
	"github.com/weissjeffm/mybot/internal/prompts"
	"github.com/weissjeffm/mybot/internal/tools"
)

// foldedPrefix marks a tool message whose content has already been
// condensed, so later passes skip it.
const foldedPrefix = "[FOLDED SUMMARY] "

// folder condenses bulky tool output back into the working history
// using an auxiliary model. Folding is best-effort: any failure leaves
// the original message untouched and the run continues.
type folder struct {
	client    llm.Client
	model     string
	threshold int // content length above which scrape output is summarized
	inputCap  int // max chars of page text handed to the auxiliary model
	logger    *slog.Logger
}

func newFolder(client llm.Client, model string, threshold, inputCap int, logger *slog.Logger) *folder {
	if threshold < 1 {
		threshold = 3000
	}
	if inputCap < threshold {
		inputCap = 12000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &folder{client: client, model: model, threshold: threshold, inputCap: inputCap, logger: logger}
}

// fold examines fresh tool messages and returns replacements keyed by
// the same message IDs, ready for Reduce. Scrape-like output over the
// threshold is summarized in place; search-like output is filtered to
// the entries relevant to the recent conversation. Messages that need
// no folding are omitted.
func (f *folder) fold(ctx context.Context, history []Message, fresh []Message) []Message {
	if f.client == nil {
		return nil
	}

	var folded []Message
	for _, m := range fresh {
		if m.result == nil || strings.HasPrefix(m.Content, foldedPrefix) {
			continue
		}
		switch m.result.Kind {
		case tools.KindScrape:
			if replacement, ok := f.foldScrape(ctx, history, m); ok {
				folded = append(folded, replacement)
			}
		case tools.KindSearch:
			if replacement, ok := f.foldSearch(ctx, history, m); ok {
				folded = append(folded, replacement)
			}
		}
	}
	return folded
}

func (f *folder) foldScrape(ctx context.Context, history []Message, m Message) (Message, bool) {
	if len(m.Content) <= f.threshold {
		return Message{}, false
	}

	text := truncateRunes(m.Content, f.inputCap)

	prompt := prompts.FoldSummaryPrompt(recentContext(history, 2), text)
	resp, err := f.client.Chat(ctx, f.model, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		f.logger.Warn("fold summary failed, keeping full text", "message_id", m.ID, "error", err)
		return Message{}, false
	}

	summary := strings.TrimSpace(resp.Message.Content)
	if summary == "" {
		return Message{}, false
	}

	m.Content = foldedPrefix + summary
	m.result = nil
	return m, true
}

func (f *folder) foldSearch(ctx context.Context, history []Message, m Message) (Message, bool) {
	entries := tools.SearchEntries(m.result)
	if len(entries) < 2 {
		return Message{}, false
	}

	numbered := make([]string, len(entries))
	for i, e := range entries {
		numbered[i] = fmt.Sprintf("[%d] %s — %s — %s", i, e.Title, e.URL, e.Snippet)
	}

	prompt := prompts.FoldRelevancePrompt(recentContext(history, 4), numbered)
	resp, err := f.client.Chat(ctx, f.model, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		f.logger.Warn("fold relevance failed, keeping all results", "message_id", m.ID, "error", err)
		return Message{}, false
	}

	indices, err := parseIndexArray(resp.Message.Content, len(entries))
	if err != nil {
		f.logger.Warn("fold relevance reply unusable, keeping all results",
			"message_id", m.ID, "reply", resp.Message.Content, "error", err)
		return Message{}, false
	}
	if len(indices) == 0 || len(indices) == len(entries) {
		// Nothing relevant (keep everything rather than discard the
		// evidence) or everything relevant; either way no change.
		return Message{}, false
	}

	kept := make([]tools.SearchEntry, 0, len(indices))
	for _, i := range indices {
		kept = append(kept, entries[i])
	}

	m.Content = fmt.Sprintf("%s(filtered to %d of %d results)\n%s",
		foldedPrefix, len(kept), len(entries), tools.RenderSearchEntries(kept))
	m.result = &tools.Result{
		Status:  m.result.Status,
		Message: m.Content,
		Payload: kept,
		Kind:    tools.KindSearch,
	}
	return m, true
}

// parseIndexArray extracts a JSON array of indices from a model reply,
// tolerating surrounding prose. Out-of-range and duplicate indices are
// errors so a hallucinated reply never corrupts the payload.
func parseIndexArray(reply string, n int) ([]int, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in reply")
	}

	var indices []int
	if err := json.Unmarshal([]byte(reply[start:end+1]), &indices); err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("index %d out of range [0,%d)", i, n)
		}
		if seen[i] {
			return nil, fmt.Errorf("duplicate index %d", i)
		}
		seen[i] = true
	}
	return indices, nil
}

// recentContext renders the last n human/ai messages as a conversation
// snippet for folding prompts.
func recentContext(history []Message, n int) string {
	var lines []string
	for i := len(history) - 1; i >= 0 && len(lines) < n; i-- {
		m := history[i]
		if m.Role != RoleHuman && m.Role != RoleAI {
			continue
		}
		content := truncateRunes(m.Content, 500)
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, content))
	}
	// Restore chronological order.
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	if len(lines) == 0 {
		return "(no prior conversation)"
	}
	return strings.Join(lines, "\n")
}

// truncateRunes cuts s to at most n runes without splitting a
// multi-byte rune at the boundary.
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count >= n {
			return s[:i]
		}
		count++
	}
	return s
}
