package agent

// Phase tags passed to the progress callback. Consumers (a chat UI,
// the events bus) use these to render live progress.
const (
	PhaseReason    = "reason"
	PhaseActStart  = "act_start"
	PhaseActFinish = "act_finish"
	PhaseFold      = "fold"
	PhaseError     = "error"
)

// Callback receives progress notifications: a free-text message, a
// phase tag, and an optional structured payload (e.g., the list of
// actions in a batch). It is a pure side-channel — the engine's
// control flow never depends on whether a notification succeeded.
type Callback func(text string, phase string, data map[string]any)

// notifier wraps a Callback with nil-safety and panic isolation.
// Notifications are fire-and-forget: they run on their own goroutine
// so a slow or broken callback cannot block a phase transition.
type notifier struct {
	cb Callback
}

func (n *notifier) post(text, phase string, data map[string]any) {
	if n == nil || n.cb == nil {
		return
	}
	go func() {
		defer func() {
			// A panicking callback is the consumer's bug; the state
			// machine keeps going.
			_ = recover()
		}()
		n.cb(text, phase, data)
	}()
}
