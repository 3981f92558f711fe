package api

import (
	"encoding/json"
	"net/http"

	"github.com/weissjeffm/mybot/internal/agent"
)

// ChatRequest is one incoming chat turn.
type ChatRequest struct {
	// Message is the user's text.
	Message string `json:"message"`
	// ConversationID selects the history to continue. Empty means a
	// one-off turn with no persistence.
	ConversationID string `json:"conversation_id,omitempty"`
	// Sender is the display name of the person speaking, for group
	// chats where the model should know who said what.
	Sender string `json:"sender,omitempty"`
}

// ChatResponse is the completed turn.
type ChatResponse struct {
	Response       string `json:"response"`
	ResponseHTML   string `json:"response_html,omitempty"`
	TopicChange    string `json:"topic_change,omitempty"`
	Outcome        string `json:"outcome"`
	Cycles         int    `json:"cycles"`
	ConversationID string `json:"conversation_id,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), s.logger)
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required", s.logger)
		return
	}

	ctx := r.Context()

	var history []agent.Message
	if req.ConversationID != "" && s.store != nil {
		var err error
		history, err = s.store.Messages(ctx, req.ConversationID)
		if err != nil {
			s.logger.Error("loading conversation", "conversation", req.ConversationID, "error", err)
			writeError(w, http.StatusInternalServerError, "loading conversation failed", s.logger)
			return
		}
	}

	content := req.Message
	if req.Sender != "" {
		content = req.Sender + ": " + content
	}
	turn := agent.Reduce(history, agent.Message{Role: agent.RoleHuman, Content: content})

	resp, err := s.loop.Run(ctx, &agent.Request{
		Messages: turn,
		BotName:  s.botName,
	})
	if err != nil {
		s.logger.Error("chat turn failed", "conversation", req.ConversationID, "error", err)
		writeError(w, http.StatusBadGateway, "model is unavailable", s.logger)
		return
	}

	if req.ConversationID != "" && s.store != nil {
		// Persist the human turn and the final answer. Intermediate
		// tool chatter stays in the engine.
		persisted := agent.Reduce(turn, agent.Message{Role: agent.RoleAI, Content: resp.Text})
		if err := s.store.Append(ctx, req.ConversationID, persisted...); err != nil {
			s.logger.Error("persisting conversation", "conversation", req.ConversationID, "error", err)
		}
	}

	out := ChatResponse{
		Response:       resp.Text,
		ResponseHTML:   renderMarkdown(resp.Text, s.logger),
		Outcome:        string(resp.Outcome),
		Cycles:         resp.Cycles,
		ConversationID: req.ConversationID,
	}
	if resp.TopicChange != nil {
		out.TopicChange = resp.TopicChange.Topic
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, out, s.logger)
}

func (s *Server) handleConversationGet(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "no conversation store configured", s.logger)
		return
	}
	id := r.PathValue("id")
	msgs, err := s.store.Messages(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), s.logger)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"conversation_id": id, "messages": msgs}, s.logger)
}

func (s *Server) handleConversationClear(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "no conversation store configured", s.logger)
		return
	}
	id := r.PathValue("id")
	if err := s.store.Clear(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), s.logger)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "cleared", "conversation_id": id}, s.logger)
}
