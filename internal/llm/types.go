// Package llm provides LLM client implementations.
package llm

import "time"

// Message represents a chat message for the LLM.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the unified response from a chat completion call.
// Wire format conversion happens at provider boundaries (openai.go).
type ChatResponse struct {
	Model     string
	Message   Message
	CreatedAt time.Time

	// Token usage (provider-neutral)
	InputTokens  int
	OutputTokens int

	// Elapsed is the client-measured call duration.
	Elapsed time.Duration
}
