package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/weissjeffm/mybot/internal/tools"
)

func TestExtractHTML(t *testing.T) {
	html := `<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
<nav>Navigation stuff</nav>
<script>var x = 1;</script>
<style>.foo { color: red; }</style>
<main>
<h1>Hello World</h1>
<p>This is a paragraph with <strong>bold text</strong>.</p>
<p>Second paragraph.</p>
<ul><li>first item</li><li>second item</li></ul>
</main>
<footer>Footer stuff</footer>
</body>
</html>`

	title, text := extractHTML(html)

	if title != "Test Page" {
		t.Errorf("title = %q, want 'Test Page'", title)
	}
	for _, want := range []string{"Hello World", "bold text", "first item"} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q: %q", want, text)
		}
	}
	for _, reject := range []string{"var x = 1", "Navigation stuff", "Footer stuff", "color: red"} {
		if strings.Contains(text, reject) {
			t.Errorf("text should not contain %q", reject)
		}
	}
}

func TestFetchSpoofsBrowserUserAgent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla/5.0") {
			t.Errorf("User-Agent = %q, want a browser identity", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>T</title></head><body><p>Hello from test server</p></body></html>`))
	}))
	defer ts.Close()

	page, err := New().Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if page.Title != "T" {
		t.Errorf("Title = %q", page.Title)
	}
	if !strings.Contains(page.Text, "Hello from test server") {
		t.Errorf("Text = %q", page.Text)
	}
}

func TestFetchHTTPErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer ts.Close()

	if _, err := New().Fetch(context.Background(), ts.URL); err == nil {
		t.Fatal("want error for HTTP 404")
	} else if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want status code mentioned", err)
	}
}

func TestFetchDetectsSoftBlock(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>Please complete the security check to continue.</body></html>`))
	}))
	defer ts.Close()

	_, err := New().Fetch(context.Background(), ts.URL)
	if err == nil || !strings.Contains(err.Error(), "CAPTCHA") {
		t.Errorf("err = %v, want CAPTCHA block error", err)
	}
}

func TestFetchEmptyPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><script>app()</script></body></html>`))
	}))
	defer ts.Close()

	_, err := New().Fetch(context.Background(), ts.URL)
	if err == nil || !strings.Contains(err.Error(), "no readable text") {
		t.Errorf("err = %v, want no-readable-text error", err)
	}
}

func TestFetchTruncates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(strings.Repeat("abcdefghij", 100)))
	}))
	defer ts.Close()

	page, err := New(WithMaxChars(50)).Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !page.Truncated {
		t.Error("Truncated = false")
	}
	if len(page.Text) > 50 {
		t.Errorf("len(Text) = %d, want <= 50", len(page.Text))
	}
}

func TestScrapeToolKind(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Doc</title></head><body><p>body text</p></body></html>`))
	}))
	defer ts.Close()

	reg := tools.NewRegistry()
	RegisterTool(reg, New())

	res := reg.Execute(context.Background(), "scrape_webpage", []any{ts.URL}, nil)
	if res.Status != tools.StatusOK {
		t.Fatalf("result = %+v", res)
	}
	if res.Kind != tools.KindScrape {
		t.Errorf("Kind = %q, want scrape", res.Kind)
	}
	if !strings.Contains(res.Message, "Title: Doc") || !strings.Contains(res.Message, "body text") {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestScrapeToolErrorIsResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	}))
	defer ts.Close()

	reg := tools.NewRegistry()
	RegisterTool(reg, New())

	res := reg.Execute(context.Background(), "scrape_webpage", []any{ts.URL}, nil)
	if res.Status != tools.StatusError {
		t.Fatalf("result = %+v, want error status", res)
	}
}
