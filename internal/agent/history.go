package agent

// Reduce merges incoming messages into an existing ordered history
// using identity-keyed upsert: an incoming message whose ID already
// exists replaces that entry in place, preserving its position;
// anything else appends. Messages without an ID are assigned one.
//
// This is the only mechanism by which folding can rewrite history —
// replacement or append, never deletion — so the result never grows
// beyond len(existing) plus the number of genuinely new messages.
// Reduce is pure: the existing slice is not mutated.
func Reduce(existing []Message, incoming ...Message) []Message {
	merged := make([]Message, len(existing))
	index := make(map[string]int, len(existing))

	for i, m := range existing {
		if m.ID == "" {
			m.ID = newID()
		}
		merged[i] = m
		index[m.ID] = i
	}

	for _, m := range incoming {
		if m.ID == "" {
			m.ID = newID()
		}
		if i, ok := index[m.ID]; ok {
			merged[i] = m
			continue
		}
		index[m.ID] = len(merged)
		merged = append(merged, m)
	}

	return merged
}

// lookup returns the message with the given ID, or nil.
func lookup(history []Message, id string) *Message {
	for i := range history {
		if history[i].ID == id {
			return &history[i]
		}
	}
	return nil
}
