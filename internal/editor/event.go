package editor

import "ai-ghostwriter-be/pkg/diff"

type EventType string

const (
	EventState             EventType = "state"
	EventSuggestion        EventType = "suggestion"
	EventSuggestionCleared EventType = "suggestion_cleared"
	EventDiff              EventType = "diff"
	EventDocument          EventType = "document"
	EventError             EventType = "error"
)

// Resolution reasons carried by suggestion_cleared and state events.
const (
	ReasonAccepted   = "accepted"
	ReasonRejected   = "rejected"
	ReasonStale      = "stale"
	ReasonErrored    = "errored"
	ReasonSuperseded = "superseded"
	ReasonStopped    = "stopped"
)

type Event struct {
	Type       EventType      `json:"type"`
	SessionID  string         `json:"session_id"`
	State      string         `json:"state,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
	Text       string         `json:"text,omitempty"`
	Cursor     int            `json:"cursor"`
	Start      int            `json:"start,omitempty"`
	End        int            `json:"end,omitempty"`
	Diff       []diff.Segment `json:"diff,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Sink receives session events in order. Emit is called with the session lock
// held, so it must not block or call back into the session.
type Sink interface {
	Emit(Event)
}

type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }
