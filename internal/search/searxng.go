package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/weissjeffm/mybot/internal/httpkit"
	"github.com/weissjeffm/mybot/internal/tools"
)

// SearXNG queries a self-hosted SearXNG instance.
type SearXNG struct {
	baseURL    string
	httpClient *http.Client
}

// NewSearXNG creates a SearXNG provider. baseURL is the root URL of the
// instance (e.g. "http://localhost:8888").
func NewSearXNG(baseURL string) *SearXNG {
	return &SearXNG{
		baseURL:    baseURL,
		httpClient: httpkit.NewClient(httpkit.WithTimeout(15 * time.Second)),
	}
}

func (s *SearXNG) Name() string { return "searxng" }

type searxngResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (s *SearXNG) Search(ctx context.Context, query string, count int) ([]tools.SearchEntry, error) {
	params := url.Values{
		"q":      {query},
		"format": {"json"},
	}

	reqURL := fmt.Sprintf("%s/search?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("searxng: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searxng: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("searxng: HTTP %d: %s", resp.StatusCode, body)
	}

	var sr searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("searxng: decode response: %w", err)
	}

	entries := make([]tools.SearchEntry, 0, count)
	for _, r := range sr.Results {
		if len(entries) >= count {
			break
		}
		entries = append(entries, tools.SearchEntry{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
		})
	}
	return entries, nil
}
