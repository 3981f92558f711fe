package search

import (
	"context"
	"fmt"

	"github.com/weissjeffm/mybot/internal/tools"
)

// RegisterTool adds the search_web tool backed by m.
func RegisterTool(reg *tools.Registry, m *Manager) {
	reg.Register(&tools.Tool{
		Name: "search_web",
		Description: "Search the web. Returns titles, URLs, and snippets; " +
			"snippets indicate relevance only, use scrape_webpage to read a result.",
		Params: []tools.Param{
			{Name: "query", Doc: "Search terms. Keep them tight; quote exact phrases."},
			{Name: "max_results", Default: int64(DefaultCount), HasDefault: true, Doc: "Maximum number of results."},
		},
		Handler: func(ctx context.Context, args map[string]any) (*tools.Result, error) {
			query := tools.StringArg(args, "query", "")
			count := tools.IntArg(args, "max_results", DefaultCount)

			entries, err := m.Search(ctx, query, count)
			if err != nil {
				return tools.Errorf("Search failed: %v", err), nil
			}
			if len(entries) == 0 {
				return tools.OK("No results found for this query."), nil
			}

			return &tools.Result{
				Status:  tools.StatusOK,
				Message: fmt.Sprintf("Found %d results for '%s'", len(entries), query),
				Payload: entries,
				Kind:    tools.KindSearch,
			}, nil
		},
	})
}
