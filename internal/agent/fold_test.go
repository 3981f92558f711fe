package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/weissjeffm/mybot/internal/llm"
	"github.com/weissjeffm/mybot/internal/tools"
)

func scrapeMessage(id, content string) Message {
	return Message{
		ID:      id,
		Role:    RoleTool,
		Content: content,
		result:  &tools.Result{Status: tools.StatusOK, Message: content, Kind: tools.KindScrape},
	}
}

func searchMessage(id string, entries []tools.SearchEntry) Message {
	listing := tools.RenderSearchEntries(entries)
	return Message{
		ID:      id,
		Role:    RoleTool,
		Content: listing,
		result: &tools.Result{
			Status:  tools.StatusOK,
			Message: listing,
			Payload: entries,
			Kind:    tools.KindSearch,
		},
	}
}

func TestFoldSummarizesOversizedScrape(t *testing.T) {
	mock := &mockLLM{responses: []*llm.ChatResponse{reply("The page says the answer is 42.")}}
	f := newFolder(mock, "aux", 3000, 12000, nil)

	page := strings.Repeat("lorem ipsum dolor sit amet ", 200) // ~5400 chars
	fresh := []Message{scrapeMessage("m1", page)}
	history := []Message{{ID: "h1", Role: RoleHuman, Content: "what does the page say?"}}

	folded := f.fold(context.Background(), history, fresh)
	if len(folded) != 1 {
		t.Fatalf("folded %d messages, want 1", len(folded))
	}
	got := folded[0]
	if got.ID != "m1" {
		t.Errorf("folded message changed identity: %q", got.ID)
	}
	if !strings.HasPrefix(got.Content, foldedPrefix) {
		t.Errorf("content missing fold prefix: %q", got.Content[:40])
	}
	if !strings.Contains(got.Content, "42") {
		t.Errorf("summary dropped: %q", got.Content)
	}

	// The auxiliary model must never see more than the input cap.
	sent := mock.call(0).Messages[0].Content
	if len(sent) > 12000+1000 {
		t.Errorf("prompt length %d exceeds input cap plus template", len(sent))
	}
}

func TestFoldInputCapKeepsRunesWhole(t *testing.T) {
	mock := &mockLLM{responses: []*llm.ChatResponse{reply("condensed")}}
	f := newFolder(mock, "aux", 10, 25, nil)

	// Multi-byte runes positioned so a byte-indexed cut at 25 would
	// split one.
	page := strings.Repeat("héllo wörld ", 20)
	fresh := []Message{scrapeMessage("m1", page)}

	folded := f.fold(context.Background(), nil, fresh)
	if len(folded) != 1 {
		t.Fatalf("folded %d messages, want 1", len(folded))
	}
	sent := mock.call(0).Messages[0].Content
	if !utf8.ValidString(sent) {
		t.Error("truncation split a rune in the auxiliary prompt")
	}
}

func TestFoldSkipsSmallScrape(t *testing.T) {
	mock := &mockLLM{}
	f := newFolder(mock, "aux", 3000, 12000, nil)

	fresh := []Message{scrapeMessage("m1", "short page")}
	folded := f.fold(context.Background(), nil, fresh)
	if len(folded) != 0 {
		t.Errorf("folded %d messages, want 0", len(folded))
	}
	if mock.callCount() != 0 {
		t.Errorf("auxiliary model called %d times for under-threshold content", mock.callCount())
	}
}

func TestFoldFailureIsNonFatal(t *testing.T) {
	mock := &mockLLM{errs: []error{errors.New("aux model down")}}
	f := newFolder(mock, "aux", 10, 12000, nil)

	fresh := []Message{scrapeMessage("m1", strings.Repeat("x", 100))}
	folded := f.fold(context.Background(), nil, fresh)
	if len(folded) != 0 {
		t.Errorf("failed fold must leave the message untouched, got %d replacements", len(folded))
	}
}

func TestFoldFiltersSearchResults(t *testing.T) {
	mock := &mockLLM{responses: []*llm.ChatResponse{reply("[0,2]")}}
	f := newFolder(mock, "aux", 3000, 12000, nil)

	entries := []tools.SearchEntry{
		{Title: "Go release notes", URL: "https://go.dev/doc/go1.24"},
		{Title: "Cat videos", URL: "https://example.com/cats"},
		{Title: "Go toolchain docs", URL: "https://go.dev/doc/toolchain"},
	}
	fresh := []Message{searchMessage("m1", entries)}
	history := []Message{{Role: RoleHuman, Content: "what changed in the go toolchain?"}}

	folded := f.fold(context.Background(), history, fresh)
	if len(folded) != 1 {
		t.Fatalf("folded %d messages, want 1", len(folded))
	}
	got := folded[0]
	if got.ID != "m1" {
		t.Errorf("identity changed: %q", got.ID)
	}
	kept := tools.SearchEntries(got.result)
	if len(kept) != 2 {
		t.Fatalf("kept %d entries, want 2", len(kept))
	}
	if kept[0].Title != "Go release notes" || kept[1].Title != "Go toolchain docs" {
		t.Errorf("wrong entries kept: %+v", kept)
	}
	if strings.Contains(got.Content, "Cat videos") {
		t.Error("filtered entry still present in content")
	}
}

func TestFoldKeepsAllResultsOnBadReply(t *testing.T) {
	entries := []tools.SearchEntry{
		{Title: "A", URL: "https://a"},
		{Title: "B", URL: "https://b"},
	}
	cases := []struct {
		name  string
		reply string
	}{
		{"prose only", "these all look great"},
		{"out of range", "[0,7]"},
		{"duplicate", "[1,1]"},
		{"empty array", "[]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &mockLLM{responses: []*llm.ChatResponse{reply(tc.reply)}}
			f := newFolder(mock, "aux", 3000, 12000, nil)
			folded := f.fold(context.Background(), nil, []Message{searchMessage("m1", entries)})
			if len(folded) != 0 {
				t.Errorf("reply %q produced %d replacements, want 0", tc.reply, len(folded))
			}
		})
	}
}

func TestFoldToleratesProseAroundArray(t *testing.T) {
	mock := &mockLLM{responses: []*llm.ChatResponse{reply("Relevant indices: [1]. Done.")}}
	f := newFolder(mock, "aux", 3000, 12000, nil)

	entries := []tools.SearchEntry{
		{Title: "A", URL: "https://a"},
		{Title: "B", URL: "https://b"},
	}
	folded := f.fold(context.Background(), nil, []Message{searchMessage("m1", entries)})
	if len(folded) != 1 {
		t.Fatalf("folded %d, want 1", len(folded))
	}
	kept := tools.SearchEntries(folded[0].result)
	if len(kept) != 1 || kept[0].Title != "B" {
		t.Errorf("kept = %+v", kept)
	}
}

func TestFoldSkipsAlreadyFolded(t *testing.T) {
	mock := &mockLLM{}
	f := newFolder(mock, "aux", 10, 12000, nil)

	m := scrapeMessage("m1", foldedPrefix+strings.Repeat("x", 100))
	folded := f.fold(context.Background(), nil, []Message{m})
	if len(folded) != 0 || mock.callCount() != 0 {
		t.Error("already-folded message was folded again")
	}
}
