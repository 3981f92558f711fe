package agent

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/weissjeffm/mybot/internal/tools"
)

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	reg.Register(&tools.Tool{
		Name:        "echo",
		Description: "Echo back the input.",
		Params:      []tools.Param{{Name: "text"}},
		Handler: func(ctx context.Context, args map[string]any) (*tools.Result, error) {
			return tools.OK(tools.StringArg(args, "text", "")), nil
		},
	})
	reg.Register(&tools.Tool{
		Name:        "explode",
		Description: "Always panics.",
		Handler: func(ctx context.Context, args map[string]any) (*tools.Result, error) {
			panic("boom")
		},
	})
	return reg
}

func TestDispatchAlignsResultsWithBatch(t *testing.T) {
	d := newDispatcher(testRegistry(t), 2, nil)
	actions := []Action{
		{ID: "a1", Name: "echo", Args: []any{"first"}, Source: `echo("first")`},
		{ID: "a2", Name: "echo", Args: []any{"second"}, Source: `echo("second")`},
	}
	results := d.run(context.Background(), actions)
	if len(results) != 2 {
		t.Fatalf("len = %d", len(results))
	}
	if results[0].ActionID != "a1" || results[0].Result.Message != "first" {
		t.Errorf("result[0] = %+v", results[0])
	}
	if results[1].ActionID != "a2" || results[1].Result.Message != "second" {
		t.Errorf("result[1] = %+v", results[1])
	}
}

func TestDispatchIsolatesFailures(t *testing.T) {
	d := newDispatcher(testRegistry(t), 4, nil)
	actions := []Action{
		{ID: "a1", Name: "echo", Args: []any{"fine"}, Source: `echo("fine")`},
		{ID: "a2", Source: `frobnicate(x)`, ParseError: `argument "x" is unsafe, use literals only`},
		{ID: "a3", Name: "explode", Source: `explode()`},
		{ID: "a4", Name: "echo", Args: []any{"also fine"}, Source: `echo("also fine")`},
	}
	results := d.run(context.Background(), actions)

	if results[0].Result.Status != tools.StatusOK {
		t.Errorf("valid action failed: %+v", results[0].Result)
	}
	if results[1].Result.Status != tools.StatusError ||
		!strings.Contains(results[1].Result.Message, "unsafe") {
		t.Errorf("parse error not surfaced: %+v", results[1].Result)
	}
	if results[2].Result.Status != tools.StatusError ||
		!strings.Contains(results[2].Result.Message, "boom") {
		t.Errorf("panic not converted to error: %+v", results[2].Result)
	}
	if results[3].Result.Status != tools.StatusOK {
		t.Errorf("sibling affected by failures: %+v", results[3].Result)
	}
}

func TestDispatchBoundsConcurrency(t *testing.T) {
	const limit = 2

	var mu sync.Mutex
	var inFlight, peak int32
	release := make(chan struct{})

	reg := tools.NewRegistry()
	reg.Register(&tools.Tool{
		Name: "slow",
		Handler: func(ctx context.Context, args map[string]any) (*tools.Result, error) {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()
			<-release
			mu.Lock()
			inFlight--
			mu.Unlock()
			return tools.OK("done"), nil
		},
	})

	d := newDispatcher(reg, limit, nil)
	actions := make([]Action, 6)
	for i := range actions {
		actions[i] = Action{ID: newID(), Name: "slow", Source: "slow()"}
	}

	done := make(chan []ToolResult)
	go func() { done <- d.run(context.Background(), actions) }()

	// Let the first wave park, then drain everything.
	close(release)
	results := <-done

	if int(peak) > limit {
		t.Errorf("peak in-flight = %d, want <= %d", peak, limit)
	}
	for i, r := range results {
		if r.Result == nil || r.Result.Status != tools.StatusOK {
			t.Errorf("result[%d] = %+v", i, r.Result)
		}
	}
}

func TestResultMessagesCarryActionIDs(t *testing.T) {
	results := []ToolResult{
		{ActionID: "a1", Result: tools.OK("hello")},
		{ActionID: "a2", Result: tools.Errorf("nope")},
	}
	msgs := resultMessages(results)
	if len(msgs) != 2 {
		t.Fatalf("len = %d", len(msgs))
	}
	for i, m := range msgs {
		if m.Role != RoleTool {
			t.Errorf("msgs[%d].Role = %q", i, m.Role)
		}
		if m.ID == "" {
			t.Errorf("msgs[%d] missing ID", i)
		}
	}
	if msgs[0].ActionID != "a1" || msgs[0].Content != "hello" {
		t.Errorf("msgs[0] = %+v", msgs[0])
	}
	if msgs[1].Content != "nope" {
		t.Errorf("msgs[1] = %+v", msgs[1])
	}
}
