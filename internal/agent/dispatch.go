package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/weissjeffm/mybot/internal/tools"
)

// dispatcher runs a batch of actions against the tool registry with a
// bounded number of in-flight invocations.
type dispatcher struct {
	registry *tools.Registry
	limit    int
	logger   *slog.Logger
}

func newDispatcher(registry *tools.Registry, limit int, logger *slog.Logger) *dispatcher {
	if limit < 1 {
		limit = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &dispatcher{registry: registry, limit: limit, logger: logger}
}

// run executes the batch and returns results positionally aligned with
// the input. Actions carrying a parse error are answered in place
// without touching a tool; one failing action never affects its
// siblings. A panicking tool handler is converted to an error result.
func (d *dispatcher) run(ctx context.Context, actions []Action) []ToolResult {
	results := make([]ToolResult, len(actions))

	sem := make(chan struct{}, d.limit)
	var wg sync.WaitGroup

	for i, a := range actions {
		results[i] = ToolResult{ActionID: a.ID, Source: a.Source}

		if !a.Valid() {
			results[i].Result = tools.Errorf("Bad action %q: %s", a.Source, a.ParseError)
			continue
		}

		wg.Add(1)
		go func(i int, a Action) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("tool panicked", "tool", a.Name, "panic", r)
					results[i].Result = tools.Errorf("Tool Execution Error: %v", r)
				}
			}()

			results[i].Result = d.registry.Execute(ctx, a.Name, a.Args, a.Kwargs)
		}(i, a)
	}

	wg.Wait()
	return results
}

// batchSummary renders one line per action for act_start/act_finish
// notifications.
func batchSummary(results []ToolResult) []map[string]any {
	out := make([]map[string]any, len(results))
	for i, r := range results {
		entry := map[string]any{"action_id": r.ActionID, "source": r.Source}
		if r.Result != nil {
			entry["status"] = string(r.Result.Status)
		}
		out[i] = entry
	}
	return out
}

// resultMessages converts dispatcher output into tool-role history
// messages, one per action, preserving batch order.
func resultMessages(results []ToolResult) []Message {
	msgs := make([]Message, 0, len(results))
	for _, r := range results {
		res := r.Result
		if res == nil {
			res = tools.Errorf("Tool Execution Error: no result produced")
		}
		content := res.Message
		if entries := tools.SearchEntries(res); len(entries) > 0 {
			content += "\n" + tools.RenderSearchEntries(entries)
		}
		if content == "" {
			content = fmt.Sprintf("Tool returned %s with no output.", res.Status)
		}
		msgs = append(msgs, Message{
			ID:       newID(),
			Role:     RoleTool,
			Content:  content,
			ActionID: r.ActionID,
			result:   res,
		})
	}
	return msgs
}
