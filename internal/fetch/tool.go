package fetch

import (
	"context"
	"fmt"

	"github.com/weissjeffm/mybot/internal/tools"
)

// RegisterTool adds the scrape_webpage tool backed by f.
func RegisterTool(reg *tools.Registry, f *Fetcher) {
	reg.Register(&tools.Tool{
		Name:        "scrape_webpage",
		Description: "Download a web page and return its readable text content.",
		Params:      []tools.Param{{Name: "url", Doc: "Address of the page to fetch."}},
		Handler: func(ctx context.Context, args map[string]any) (*tools.Result, error) {
			url := tools.StringArg(args, "url", "")

			page, err := f.Fetch(ctx, url)
			if err != nil {
				return tools.Errorf("%v", err), nil
			}

			text := page.Text
			if page.Title != "" {
				text = fmt.Sprintf("Title: %s\n\n%s", page.Title, page.Text)
			}
			if page.Truncated {
				text += "\n\n(content truncated)"
			}

			return &tools.Result{
				Status:  tools.StatusOK,
				Message: text,
				Payload: page,
				Kind:    tools.KindScrape,
			}, nil
		},
	})
}
