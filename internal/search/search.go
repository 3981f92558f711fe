// Package search provides pluggable web search for the agent.
//
// Each backend implements [Provider]. The [Manager] tries providers in
// registration order and returns the first non-empty result set, so a
// self-hosted instance can be fronted by a public fallback.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/weissjeffm/mybot/internal/tools"
)

// DefaultCount is the result count used when the caller does not ask
// for a specific number.
const DefaultCount = 5

// Provider is the interface search backends implement.
type Provider interface {
	// Name returns the provider identifier (e.g. "searxng").
	Name() string

	// Search executes a query. count bounds the number of results;
	// providers may return fewer.
	Search(ctx context.Context, query string, count int) ([]tools.SearchEntry, error)
}

// Manager routes queries across the configured providers.
type Manager struct {
	providers []Provider
	logger    *slog.Logger
}

// NewManager creates a manager that tries providers in the given order.
func NewManager(logger *slog.Logger, providers ...Provider) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{providers: providers, logger: logger}
}

// Register appends a provider after those already configured.
func (m *Manager) Register(p Provider) {
	m.providers = append(m.providers, p)
}

// Configured reports whether at least one provider is registered.
func (m *Manager) Configured() bool {
	return len(m.providers) > 0
}

// Providers returns the names of the registered providers in order.
func (m *Manager) Providers() []string {
	names := make([]string, 0, len(m.providers))
	for _, p := range m.providers {
		names = append(names, p.Name())
	}
	return names
}

// Search runs the query against each provider in order and returns the
// first non-empty result set. A provider error is logged and the next
// provider tried; the last error is returned only when every provider
// fails.
func (m *Manager) Search(ctx context.Context, query string, count int) ([]tools.SearchEntry, error) {
	if len(m.providers) == 0 {
		return nil, errors.New("no search provider configured")
	}
	if count <= 0 {
		count = DefaultCount
	}

	var lastErr error
	for _, p := range m.providers {
		entries, err := p.Search(ctx, query, count)
		if err != nil {
			m.logger.Warn("search provider failed", "provider", p.Name(), "error", err)
			lastErr = err
			continue
		}
		if len(entries) > 0 {
			return entries, nil
		}
		m.logger.Debug("search provider returned nothing", "provider", p.Name(), "query", query)
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all search providers failed: %w", lastErr)
	}
	return nil, nil
}
