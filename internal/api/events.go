package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The UI is served from wherever the operator put it; this is a
	// LAN service, not a public one.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	eventWriteTimeout = 10 * time.Second
	pingInterval      = 30 * time.Second
)

// handleEvents streams engine progress events over a WebSocket. Each
// frame is one JSON-encoded events.Event. Slow clients miss events
// rather than stalling the engine.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		writeError(w, http.StatusNotFound, "event stream not configured", s.logger)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := s.bus.Subscribe(64)
	defer s.bus.Unsubscribe(sub)

	s.logger.Debug("event stream client connected", "remote", r.RemoteAddr)

	// Reader goroutine: we never expect frames from the client, but
	// reading is how gorilla surfaces close frames.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case ev, ok := <-sub:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Debug("event stream write failed", "error", err)
				return
			}
		}
	}
}
