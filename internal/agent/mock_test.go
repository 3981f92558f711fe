package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/weissjeffm/mybot/internal/llm"
)

// mockLLM returns pre-configured responses in sequence and records each call.
type mockLLM struct {
	mu        sync.Mutex
	responses []*llm.ChatResponse
	errs      []error
	callIndex int
	calls     []mockLLMCall
}

type mockLLMCall struct {
	Model    string
	Messages []llm.Message
}

func reply(content string) *llm.ChatResponse {
	return &llm.ChatResponse{Message: llm.Message{Role: "assistant", Content: content}}
}

func (m *mockLLM) Chat(_ context.Context, model string, msgs []llm.Message) (*llm.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, mockLLMCall{Model: model, Messages: msgs})

	i := m.callIndex
	m.callIndex++
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.responses) {
		return nil, fmt.Errorf("mockLLM: no more responses (call %d)", i)
	}
	return m.responses[i], nil
}

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockLLM) call(i int) mockLLMCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}
