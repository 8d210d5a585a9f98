package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mirrorme/mirrord/internal/mirror"
	"github.com/mirrorme/mirrord/internal/protocol"
)

// handleChatWS runs a streaming chat connection. The client sends
// {"type":"message","message":...} frames; each one produces exactly one
// reply frame. Replies are written from the read loop, so websocket writes
// stay single-threaded.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromQuery(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sess := s.sessions.Acquire(r.Context(), userID)
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		if msgType != websocket.TextMessage {
			continue
		}

		msg, err := protocol.ParseClientMessage(data)
		if err != nil {
			code := "invalid_client_message"
			if errors.Is(err, protocol.ErrEmptyMessage) {
				code = "empty_message"
			}
			if !s.writeWS(conn, protocol.NewErrorEvent(code, err.Error())) {
				return
			}
			continue
		}

		start := time.Now()
		reply, err := sess.Respond(r.Context(), msg.Message)
		s.metrics.ObserveTurnLatency(time.Since(start))

		degraded := false
		if err != nil {
			if !errors.Is(err, mirror.ErrGenerationUnavailable) {
				s.metrics.Turns.WithLabelValues("error").Inc()
				if !s.writeWS(conn, protocol.NewErrorEvent("turn_failed", err.Error())) {
					return
				}
				continue
			}
			degraded = true
			s.countProviderError(err)
			s.metrics.Turns.WithLabelValues("degraded").Inc()
			s.metrics.CountIndicator("generation_fallback")
		} else {
			s.metrics.Turns.WithLabelValues("ok").Inc()
		}

		if !s.writeWS(conn, protocol.NewReply(reply, degraded)) {
			return
		}
	}
}

func (s *Server) writeWS(conn *websocket.Conn, msg any) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(msg) == nil
}
