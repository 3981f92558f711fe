package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/weissjeffm/mybot/internal/httpkit"
	"github.com/weissjeffm/mybot/internal/tools"
)

// duckduckgoEndpoint is the no-JavaScript HTML frontend, which serves
// parseable markup without an API key.
const duckduckgoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the DuckDuckGo HTML frontend. Useful as a
// zero-configuration fallback behind a self-hosted provider.
type DuckDuckGo struct {
	endpoint   string
	httpClient *http.Client
}

// NewDuckDuckGo creates a DuckDuckGo provider.
func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{
		endpoint:   duckduckgoEndpoint,
		httpClient: httpkit.NewClient(httpkit.WithTimeout(15 * time.Second)),
	}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string, count int) ([]tools.SearchEntry, error) {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo: HTTP %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parse response: %w", err)
	}

	entries := parseDuckDuckGo(doc, count)
	return entries, nil
}

// parseDuckDuckGo walks the result page DOM. Each hit is an anchor with
// class "result__a"; the sibling snippet carries class "result__snippet".
func parseDuckDuckGo(doc *html.Node, count int) []tools.SearchEntry {
	var entries []tools.SearchEntry

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if len(entries) >= count {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.A && hasClass(n, "result__a") {
			if href := cleanResultURL(attr(n, "href")); href != "" {
				entries = append(entries, tools.SearchEntry{
					Title: strings.TrimSpace(nodeText(n)),
					URL:   href,
				})
			}
		}
		if n.Type == html.ElementNode && hasClass(n, "result__snippet") && len(entries) > 0 {
			if last := &entries[len(entries)-1]; last.Snippet == "" {
				last.Snippet = strings.TrimSpace(nodeText(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)

	return entries
}

// cleanResultURL unwraps DuckDuckGo's redirect links, which carry the
// destination in a uddg query parameter.
func cleanResultURL(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" {
		return ""
	}
	return href
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}
