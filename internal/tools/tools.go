// Package tools defines the capability registry for the agent engine.
//
// A tool is a named callable the model can request by writing an
// `Action:` line. The registry is a plain lookup table from stable
// string keys to a uniform handler interface, resolved once at startup.
// Tool results are structured: ordinary output, a compaction hint for
// the folding pass, and an optional out-of-band control signal are all
// explicit fields rather than conventions sniffed out of free text.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Result statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Kind hints tell the folding pass how a result's payload may be
// compacted.
type Kind string

const (
	// KindPlain results pass through folding untouched.
	KindPlain Kind = "plain"
	// KindScrape results carry bulky page text that may be summarized
	// in place when it exceeds the fold threshold.
	KindScrape Kind = "scrape"
	// KindSearch results carry a result list that may be relevance-
	// filtered in place.
	KindSearch Kind = "search"
)

// SignalTopicChange is the signal kind emitted by the topic tool.
const SignalTopicChange = "TopicChange"

// Signal is an out-of-band instruction from a tool to the orchestrator.
// It rides alongside the normal result text (which the model still
// sees) and is consumed exactly once per turn, first-wins.
type Signal struct {
	Kind  string `json:"kind"`
	Topic string `json:"topic,omitempty"`
}

// Result is the structured outcome of one tool invocation.
type Result struct {
	// Status is ok or error.
	Status string `json:"status"`
	// Message is the human/model-readable text fed back into history.
	Message string `json:"message"`
	// Payload holds structured output (e.g., a search result list).
	// The engine treats it opaquely except during folding.
	Payload any `json:"result,omitempty"`
	// Kind hints the folding pass. Zero value means plain.
	Kind Kind `json:"kind,omitempty"`
	// Signal, when non-nil, requests an out-of-band action.
	Signal *Signal `json:"-"`
}

// OK builds a plain successful result.
func OK(message string) *Result {
	return &Result{Status: StatusOK, Message: message, Kind: KindPlain}
}

// Errorf builds an error result. Error results are fed back to the
// model like any other tool output so it can adapt its plan.
func Errorf(format string, args ...any) *Result {
	return &Result{Status: StatusError, Message: fmt.Sprintf(format, args...), Kind: KindPlain}
}

// Param describes one parameter of a tool's call signature.
type Param struct {
	Name string
	// Default is used when the argument is omitted. Only meaningful
	// when HasDefault is true; parameters without defaults are required.
	Default    any
	HasDefault bool
	// Doc is a short description shown in the system prompt.
	Doc string
}

// Handler executes a tool. Arguments arrive already bound by name
// (positional arguments are matched to parameters in declaration
// order). Handlers may block; the dispatcher runs them off the
// coordinating goroutine.
type Handler func(ctx context.Context, args map[string]any) (*Result, error)

// Tool represents a callable capability.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// Signature renders the tool's call signature for the system prompt,
// e.g. `run_cmd(command, user='root')`.
func (t *Tool) Signature() string {
	var sb strings.Builder
	sb.WriteString(t.Name)
	sb.WriteByte('(')
	for i, p := range t.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		if p.HasDefault {
			switch v := p.Default.(type) {
			case string:
				fmt.Fprintf(&sb, "='%s'", v)
			case nil:
				sb.WriteString("=None")
			default:
				fmt.Fprintf(&sb, "=%v", v)
			}
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// Bind matches positional and keyword argument values to the tool's
// parameters and returns a by-name argument map. It rejects excess
// positional arguments, unknown or duplicate keywords, and missing
// required parameters.
func (t *Tool) Bind(args []any, kwargs map[string]any) (map[string]any, error) {
	if len(args) > len(t.Params) {
		return nil, fmt.Errorf("%s takes at most %d arguments, got %d", t.Name, len(t.Params), len(args))
	}

	bound := make(map[string]any, len(t.Params))
	for i, v := range args {
		bound[t.Params[i].Name] = v
	}

	for name, v := range kwargs {
		idx := -1
		for i, p := range t.Params {
			if p.Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%s has no parameter %q", t.Name, name)
		}
		if _, dup := bound[name]; dup {
			return nil, fmt.Errorf("%s got multiple values for %q", t.Name, name)
		}
		bound[name] = v
	}

	for _, p := range t.Params {
		if _, ok := bound[p.Name]; ok {
			continue
		}
		if !p.HasDefault {
			return nil, fmt.Errorf("%s missing required argument %q", t.Name, p.Name)
		}
		bound[p.Name] = p.Default
	}

	return bound, nil
}

// Registry holds available tools.
type Registry struct {
	tools map[string]*Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool to the registry. Registering the same name
// twice replaces the earlier entry.
func (r *Registry) Register(t *Tool) {
	r.tools[t.Name] = t
}

// Get retrieves a tool by name, or nil if absent.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the registered tools sorted by name, for prompt
// generation.
func (r *Registry) List() []*Tool {
	tools := make([]*Tool, 0, len(r.tools))
	for _, name := range r.Names() {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Execute binds the given arguments and runs the named tool. An
// unknown name or a binding failure returns an error without invoking
// anything. A handler error is converted to an error Result so tool
// failures flow back to the model rather than aborting the batch.
func (r *Registry) Execute(ctx context.Context, name string, args []any, kwargs map[string]any) *Result {
	tool := r.tools[name]
	if tool == nil {
		return Errorf("Tool %q is not defined or allowed.", name)
	}

	bound, err := tool.Bind(args, kwargs)
	if err != nil {
		return Errorf("Bad arguments: %v", err)
	}

	res, err := tool.Handler(ctx, bound)
	if err != nil {
		return Errorf("Tool Execution Error: %v", err)
	}
	if res == nil {
		return Errorf("Tool %q returned no result.", name)
	}
	if res.Kind == "" {
		res.Kind = KindPlain
	}
	return res
}
