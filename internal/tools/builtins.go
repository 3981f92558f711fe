package tools

import (
	"context"
	"fmt"
	"time"
)

// RegisterBuiltins adds the tools that have no external dependencies:
// the current date/time lookup and the topic-change signal.
func RegisterBuiltins(r *Registry) {
	r.Register(&Tool{
		Name:        "current_date",
		Description: "Returns the current date and time. Call this when the user asks about 'today', 'now', or anything time-relative.",
		Handler: func(_ context.Context, _ map[string]any) (*Result, error) {
			now := time.Now()
			return OK(now.Format("Monday, January 2, 2006 15:04 MST")), nil
		},
	})

	r.Register(&Tool{
		Name: "signal_topic_change",
		Description: "Call this when the user changes the conversation topic significantly, " +
			"so the orchestration program can file different discussions into different threads. " +
			"All you have to do is call this function when the subject changes; the program does the rest.",
		Params: []Param{
			{Name: "subject", Doc: "A 3-6 word title for the new topic (e.g. 'Server Disk Space')."},
		},
		Handler: func(_ context.Context, args map[string]any) (*Result, error) {
			subject := StringArg(args, "subject", "")
			if subject == "" {
				return Errorf("signal_topic_change: subject is required"), nil
			}
			return &Result{
				Status:  StatusOK,
				Message: fmt.Sprintf("Topic change noted: %s", subject),
				Kind:    KindPlain,
				Signal:  &Signal{Kind: SignalTopicChange, Topic: subject},
			}, nil
		},
	})
}
