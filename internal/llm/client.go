package llm

import "context"

// Client is the interface the engine uses to invoke a model. Both the
// reasoning model and the lighter folding model are handles of this
// type; they are passed into the engine explicitly, never read from
// package-level state.
type Client interface {
	// Chat sends a chat completion request and returns the response.
	// Implementations retry transient failures a bounded number of
	// times before returning an error.
	Chat(ctx context.Context, model string, messages []Message) (*ChatResponse, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
