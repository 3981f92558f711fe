package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/weissjeffm/mybot/internal/tools"
)

type stubProvider struct {
	name    string
	entries []tools.SearchEntry
	err     error
	calls   int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(ctx context.Context, query string, count int) ([]tools.SearchEntry, error) {
	s.calls++
	return s.entries, s.err
}

func TestManagerFallsThroughEmptyProviders(t *testing.T) {
	empty := &stubProvider{name: "empty"}
	full := &stubProvider{name: "full", entries: []tools.SearchEntry{{Title: "hit", URL: "https://x"}}}
	m := NewManager(nil, empty, full)

	entries, err := m.Search(context.Background(), "query", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "hit" {
		t.Errorf("entries = %+v", entries)
	}
	if empty.calls != 1 || full.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", empty.calls, full.calls)
	}
}

func TestManagerSkipsFailingProvider(t *testing.T) {
	broken := &stubProvider{name: "broken", err: errors.New("connection refused")}
	full := &stubProvider{name: "full", entries: []tools.SearchEntry{{Title: "hit", URL: "https://x"}}}
	m := NewManager(nil, broken, full)

	entries, err := m.Search(context.Background(), "query", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestManagerAllProvidersFail(t *testing.T) {
	m := NewManager(nil, &stubProvider{name: "a", err: errors.New("down")})
	if _, err := m.Search(context.Background(), "query", 5); err == nil {
		t.Fatal("want error when every provider fails")
	}
}

func TestManagerNoProviders(t *testing.T) {
	m := NewManager(nil)
	if _, err := m.Search(context.Background(), "query", 5); err == nil {
		t.Fatal("want error with no providers configured")
	}
}

func TestSearXNGSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "golang generics" {
			t.Errorf("q = %q", got)
		}
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("format = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"title":"First","url":"https://a","content":"snippet a"},
			{"title":"Second","url":"https://b","content":"snippet b"},
			{"title":"Third","url":"https://c","content":"snippet c"}
		]}`))
	}))
	defer ts.Close()

	entries, err := NewSearXNG(ts.URL).Search(context.Background(), "golang generics", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want count honored", len(entries))
	}
	if entries[0].Title != "First" || entries[0].Snippet != "snippet a" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
}

func TestSearXNGErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	if _, err := NewSearXNG(ts.URL).Search(context.Background(), "q", 5); err == nil {
		t.Fatal("want error on HTTP 429")
	}
}

func TestDuckDuckGoParsesResults(t *testing.T) {
	page := `<html><body>
	<div class="result">
	  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Fdoc">Go Documentation</a>
	  <a class="result__snippet" href="#">The official Go docs.</a>
	</div>
	<div class="result">
	  <a class="result__a" href="https://pkg.go.dev">Package index</a>
	</div>
	</body></html>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer ts.Close()

	d := NewDuckDuckGo()
	d.endpoint = ts.URL

	entries, err := d.Search(context.Background(), "go docs", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].URL != "https://go.dev/doc" {
		t.Errorf("redirect not unwrapped: %q", entries[0].URL)
	}
	if entries[0].Snippet != "The official Go docs." {
		t.Errorf("snippet = %q", entries[0].Snippet)
	}
	if entries[1].URL != "https://pkg.go.dev" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestSearchToolResult(t *testing.T) {
	provider := &stubProvider{name: "stub", entries: []tools.SearchEntry{
		{Title: "A", URL: "https://a", Snippet: "sa"},
		{Title: "B", URL: "https://b"},
	}}
	reg := tools.NewRegistry()
	RegisterTool(reg, NewManager(nil, provider))

	res := reg.Execute(context.Background(), "search_web", []any{"some query"}, nil)
	if res.Status != tools.StatusOK {
		t.Fatalf("res = %+v", res)
	}
	if res.Kind != tools.KindSearch {
		t.Errorf("Kind = %q", res.Kind)
	}
	if !strings.Contains(res.Message, "Found 2 results for 'some query'") {
		t.Errorf("Message = %q", res.Message)
	}
	if got := tools.SearchEntries(res); len(got) != 2 {
		t.Errorf("payload entries = %+v", got)
	}
}

func TestSearchToolNoResults(t *testing.T) {
	reg := tools.NewRegistry()
	RegisterTool(reg, NewManager(nil, &stubProvider{name: "empty"}))

	res := reg.Execute(context.Background(), "search_web", []any{"obscure"}, nil)
	if res.Status != tools.StatusOK {
		t.Fatalf("res = %+v", res)
	}
	if res.Kind == tools.KindSearch {
		t.Error("empty result should not be search-kind (nothing to filter)")
	}
	if !strings.Contains(res.Message, "No results") {
		t.Errorf("Message = %q", res.Message)
	}
}
