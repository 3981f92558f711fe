// Package agent implements the reason/act/fold execution engine.
//
// Given a conversation history and a tool registry, the engine
// repeatedly asks the model what to do next, executes the requested
// actions concurrently, folds bulky tool output back into the working
// history, and returns a final answer plus an optional out-of-band
// signal. All state lives in the per-invocation working history; the
// engine holds nothing between invocations.
package agent

import (
	"github.com/google/uuid"

	"github.com/weissjeffm/mybot/internal/tools"
)

// Role identifies who produced a message.
type Role string

const (
	// RoleSystem is the engine-supplied system prompt and tool output
	// framing.
	RoleSystem Role = "system"
	// RoleHuman is a chat participant.
	RoleHuman Role = "human"
	// RoleAI is the model's own output.
	RoleAI Role = "ai"
	// RoleTool is the result of one tool invocation.
	RoleTool Role = "tool"
)

// Message is one entry in the working history. Messages are owned by
// the invocation that created them; callers keep their own copies for
// anything they want to persist.
type Message struct {
	// ID is the identity key for history upserts. Empty IDs are
	// assigned during reduction.
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// ActionID correlates a tool message back to the action that
	// produced it.
	ActionID string `json:"action_id,omitempty"`
	// result retains the structured tool result so the folding pass
	// can inspect the payload kind. Cleared once a message is folded.
	result *tools.Result
}

// ToolResult correlates one structured tool outcome to its originating
// action. The dispatcher returns these positionally aligned with the
// input batch.
type ToolResult struct {
	ActionID string
	// Source is the original action line, for notifications.
	Source string
	Result *tools.Result
}

// TopicChange is the one out-of-band signal surfaced to callers.
type TopicChange struct {
	Topic string `json:"topic"`
}

// Outcome classifies how a run ended.
type Outcome string

const (
	// OutcomeOK means the model produced a final answer.
	OutcomeOK Outcome = "ok"
	// OutcomeBudgetExceeded means the cycle budget ran out first.
	OutcomeBudgetExceeded Outcome = "budget_exceeded"
	// OutcomeTimeout means the wall-clock deadline expired first.
	OutcomeTimeout Outcome = "timeout"
)

// Request is one engine invocation.
type Request struct {
	// Messages is the ordered prior conversation. The engine copies
	// it; the caller's slice is not mutated.
	Messages []Message
	// BotName is the display name used in the system prompt.
	BotName string
	// Callback receives progress notifications (may be nil). It is
	// invoked fire-and-forget; failures never affect the run.
	Callback Callback
}

// Response is the engine's final output for one invocation.
type Response struct {
	// Text is the final answer (or an apology-style fallback for
	// budget/timeout outcomes).
	Text string
	// TopicChange is the latched signal, if any tool raised one.
	TopicChange *TopicChange
	// Outcome classifies the ending.
	Outcome Outcome
	// Cycles is the number of REASON phases executed.
	Cycles int
}

// newID returns a time-ordered unique identifier. Falls back to a
// random UUID if V7 generation fails (which requires a broken clock).
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
