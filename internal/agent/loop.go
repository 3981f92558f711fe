package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/weissjeffm/mybot/internal/events"
	"github.com/weissjeffm/mybot/internal/llm"
	"github.com/weissjeffm/mybot/internal/prompts"
	"github.com/weissjeffm/mybot/internal/tools"
)

// Fallback answers for runs that end without the model producing one.
const (
	budgetExceededText = "I'm sorry, I wasn't able to finish working on that before running out of steps. Could you break the request into smaller pieces?"
	timeoutText        = "I'm sorry, that took longer than I'm allowed to spend on one request. Could you try a narrower question?"
)

// Config holds the tunable parameters of the execution loop. Zero
// values are replaced with working defaults, so an empty Config is
// usable.
type Config struct {
	// Model is the primary reasoning model.
	Model string
	// AuxModel handles folding work. Defaults to Model.
	AuxModel string
	// MaxCycles bounds the number of reason phases per invocation.
	MaxCycles int
	// Concurrency bounds in-flight tool invocations per batch.
	Concurrency int
	// FoldThreshold is the content length above which scrape-like
	// output is summarized.
	FoldThreshold int
	// FoldInputCap limits how much of a page the auxiliary model sees.
	FoldInputCap int
	// Timeout is the wall-clock budget for one invocation.
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.AuxModel == "" {
		c.AuxModel = c.Model
	}
	if c.MaxCycles < 1 {
		c.MaxCycles = 150
	}
	if c.Concurrency < 1 {
		c.Concurrency = 5
	}
	if c.FoldThreshold < 1 {
		c.FoldThreshold = 3000
	}
	if c.FoldInputCap < c.FoldThreshold {
		c.FoldInputCap = 12000
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Minute
	}
	return c
}

// Loop is the reason/act/fold execution engine. One Loop serves many
// concurrent invocations; all per-request state lives in Run.
type Loop struct {
	logger   *slog.Logger
	client   llm.Client
	registry *tools.Registry
	bus      *events.Bus
	cfg      Config
}

// NewLoop creates an execution loop. bus may be nil to disable event
// publication.
func NewLoop(logger *slog.Logger, client llm.Client, registry *tools.Registry, bus *events.Bus, cfg Config) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger:   logger,
		client:   client,
		registry: registry,
		bus:      bus,
		cfg:      cfg.withDefaults(),
	}
}

// Run executes one full invocation: reason, act, fold, repeat, until
// the model answers without requesting actions or a budget runs out.
// Budget and deadline exhaustion are outcomes, not errors; a non-nil
// error means the model itself could not be reached.
func (l *Loop) Run(ctx context.Context, req *Request) (*Response, error) {
	cfg := l.cfg
	requestID := newID()
	logger := l.logger.With("request_id", requestID)
	notify := &notifier{cb: req.Callback}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	botName := req.BotName
	if botName == "" {
		botName = "Assistant"
	}
	system := prompts.SystemPrompt(botName, l.registry)

	// Copy the caller's history into the working set, assigning IDs to
	// anything that arrived without one.
	history := Reduce(nil, req.Messages...)

	d := newDispatcher(l.registry, cfg.Concurrency, logger)
	f := newFolder(l.client, cfg.AuxModel, cfg.FoldThreshold, cfg.FoldInputCap, logger)

	var topicChange *TopicChange

	logger.Info("run started", "messages", len(history), "model", cfg.Model)
	l.publish(events.KindTurnStart, map[string]any{"request_id": requestID, "messages": len(history)})

	for cycle := 1; cycle <= cfg.MaxCycles; cycle++ {
		resp, err := l.client.Chat(ctx, cfg.Model, wireMessages(system, history))
		if err != nil {
			if ctx.Err() != nil {
				logger.Warn("run timed out", "cycle", cycle)
				l.publish(events.KindTurnComplete, map[string]any{"request_id": requestID, "outcome": string(OutcomeTimeout)})
				return &Response{Text: timeoutText, TopicChange: topicChange, Outcome: OutcomeTimeout, Cycles: cycle}, nil
			}
			logger.Error("model call failed", "cycle", cycle, "error", err)
			notify.post(err.Error(), PhaseError, nil)
			l.publish(events.KindError, map[string]any{"request_id": requestID, "error": err.Error()})
			return nil, fmt.Errorf("model call: %w", err)
		}

		text := resp.Message.Content
		history = Reduce(history, Message{Role: RoleAI, Content: text})

		actions := ParseActions(text, l.registry.Has)

		logger.Debug("reason complete", "cycle", cycle, "actions", len(actions),
			"input_tokens", resp.InputTokens, "output_tokens", resp.OutputTokens)
		notify.post(text, PhaseReason, map[string]any{"cycle": cycle, "actions": len(actions)})
		l.publish(events.KindReason, map[string]any{"request_id": requestID, "cycle": cycle, "actions": len(actions)})

		if len(actions) == 0 {
			logger.Info("run complete", "cycles", cycle)
			l.publish(events.KindTurnComplete, map[string]any{"request_id": requestID, "outcome": string(OutcomeOK), "cycles": cycle})
			return &Response{Text: text, TopicChange: topicChange, Outcome: OutcomeOK, Cycles: cycle}, nil
		}

		sources := make([]string, len(actions))
		for i, a := range actions {
			sources[i] = a.Source
		}
		notify.post("", PhaseActStart, map[string]any{"cycle": cycle, "actions": sources})
		l.publish(events.KindActStart, map[string]any{"request_id": requestID, "cycle": cycle, "actions": sources})

		results := d.run(ctx, actions)

		for _, r := range results {
			sig := r.Result.Signal
			if sig == nil {
				continue
			}
			if sig.Kind == tools.SignalTopicChange && topicChange == nil {
				topicChange = &TopicChange{Topic: sig.Topic}
				logger.Info("topic change latched", "topic", sig.Topic)
			}
		}

		notify.post("", PhaseActFinish, map[string]any{"cycle": cycle, "results": batchSummary(results)})
		l.publish(events.KindActFinish, map[string]any{"request_id": requestID, "cycle": cycle, "results": batchSummary(results)})

		fresh := resultMessages(results)
		history = Reduce(history, fresh...)

		if ctx.Err() != nil {
			logger.Warn("run timed out after tool batch", "cycle", cycle)
			l.publish(events.KindTurnComplete, map[string]any{"request_id": requestID, "outcome": string(OutcomeTimeout)})
			return &Response{Text: timeoutText, TopicChange: topicChange, Outcome: OutcomeTimeout, Cycles: cycle}, nil
		}

		if folded := f.fold(ctx, history, fresh); len(folded) > 0 {
			ids := make([]string, len(folded))
			for i, m := range folded {
				ids[i] = m.ID
			}
			logger.Debug("folded tool output", "cycle", cycle, "messages", ids)
			notify.post("", PhaseFold, map[string]any{"cycle": cycle, "folded": len(folded)})
			l.publish(events.KindFold, map[string]any{"request_id": requestID, "cycle": cycle, "folded": len(folded)})
			history = Reduce(history, folded...)
		}
	}

	logger.Warn("cycle budget exhausted", "max_cycles", cfg.MaxCycles)
	l.publish(events.KindTurnComplete, map[string]any{"request_id": requestID, "outcome": string(OutcomeBudgetExceeded)})
	return &Response{Text: budgetExceededText, TopicChange: topicChange, Outcome: OutcomeBudgetExceeded, Cycles: cfg.MaxCycles}, nil
}

// Ping reports whether the underlying model endpoint is reachable.
func (l *Loop) Ping(ctx context.Context) error {
	if l.client == nil {
		return errors.New("no model client configured")
	}
	return l.client.Ping(ctx)
}

func (l *Loop) publish(kind string, data map[string]any) {
	l.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceEngine,
		Kind:      kind,
		Data:      data,
	})
}

// wireMessages converts the working history to the model's wire roles.
// Tool output is presented as system messages with an explicit frame so
// the model cannot mistake the text for a participant speaking.
func wireMessages(system string, history []Message) []llm.Message {
	out := make([]llm.Message, 0, len(history)+1)
	out = append(out, llm.Message{Role: "system", Content: system})
	for _, m := range history {
		switch m.Role {
		case RoleHuman:
			out = append(out, llm.Message{Role: "user", Content: m.Content})
		case RoleAI:
			out = append(out, llm.Message{Role: "assistant", Content: m.Content})
		case RoleTool:
			out = append(out, llm.Message{Role: "system", Content: "Tool Output: " + m.Content})
		case RoleSystem:
			out = append(out, llm.Message{Role: "system", Content: m.Content})
		}
	}
	return out
}
