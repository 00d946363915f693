package websocket

import (
	"encoding/json"

	"ai-ghostwriter-be/internal/editor"
	"ai-ghostwriter-be/internal/pkg/logger"
)

// SessionSink forwards editor events to whichever connection currently holds
// the session. Events for a detached session are dropped.
type SessionSink struct {
	hub       *Hub
	sessionID string
	logger    logger.ILogger
}

func NewSessionSink(hub *Hub, sessionID string, log logger.ILogger) *SessionSink {
	return &SessionSink{hub: hub, sessionID: sessionID, logger: log}
}

func (s *SessionSink) Emit(e editor.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("SessionSink", "Failed to marshal event", map[string]interface{}{"error": err.Error()})
		return
	}
	if !s.hub.SendToSession(s.sessionID, data) {
		s.logger.Debug("SessionSink", "Event dropped, no connection", map[string]interface{}{
			"session_id": s.sessionID,
			"type":       string(e.Type),
		})
	}
}
