// Package fetch downloads web pages and extracts their readable text,
// stripping scripts, navigation, and other boilerplate.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/weissjeffm/mybot/internal/httpkit"
)

// browserUserAgent is sent instead of our own identity. Several sites
// (archive mirrors, Cloudflare-fronted pages) serve real content only
// to something that looks like a browser.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// softBlockMarker appears in pages that return 200 but are actually a
// CAPTCHA interstitial.
const softBlockMarker = "Please complete the security check"

const (
	// DefaultTimeout is the per-request budget.
	DefaultTimeout = 15 * time.Second
	// DefaultMaxBytes caps how much of a response body is read (5 MB).
	DefaultMaxBytes int64 = 5 * 1024 * 1024
	// DefaultMaxChars caps the extracted text length.
	DefaultMaxChars = 50000
)

// Page is the fetched and extracted content of one URL.
type Page struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Text        string `json:"text"`
	ContentType string `json:"content_type,omitempty"`
	Truncated   bool   `json:"truncated,omitempty"`
	StatusCode  int    `json:"status_code"`
}

// Fetcher downloads pages and extracts readable text.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	maxChars int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient substitutes the HTTP client, for tests.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithMaxChars overrides the extracted-text cap.
func WithMaxChars(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxChars = n
		}
	}
}

// New creates a Fetcher with default limits.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   httpkit.NewClient(httpkit.WithTimeout(DefaultTimeout)),
		maxBytes: DefaultMaxBytes,
		maxChars: DefaultMaxChars,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads rawURL and returns its readable text. HTTP error
// statuses and CAPTCHA interstitials are returned as errors so the
// caller surfaces them instead of feeding block pages to the model.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("fetch: url is required")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: invalid url: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,text/plain;q=0.8,*/*;q=0.7")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: HTTP %d (%s)", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch: reading response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")

	var title, text string
	switch {
	case isHTML(contentType):
		raw := string(body)
		if strings.Contains(raw, softBlockMarker) {
			return nil, fmt.Errorf("fetch: blocked by CAPTCHA/security check")
		}
		title, text = extractHTML(raw)
	case utf8.Valid(body):
		text = string(body)
	default:
		return nil, fmt.Errorf("fetch: binary content (%s), %d bytes", contentType, len(body))
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("fetch: page downloaded but no readable text found")
	}

	truncated := false
	if len(text) > f.maxChars {
		text = truncateUTF8(text, f.maxChars)
		truncated = true
	}

	return &Page{
		URL:         rawURL,
		Title:       title,
		Text:        text,
		ContentType: contentType,
		Truncated:   truncated,
		StatusCode:  resp.StatusCode,
	}, nil
}

func isHTML(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

// truncateUTF8 cuts a string to at most maxChars runes without breaking
// a multi-byte character.
func truncateUTF8(s string, maxChars int) string {
	count := 0
	for i := range s {
		if count >= maxChars {
			return s[:i]
		}
		count++
	}
	return s
}
