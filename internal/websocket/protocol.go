package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ai-ghostwriter-be/internal/editor"
	"ai-ghostwriter-be/internal/pkg/logger"
)

// Inbound message types.
const (
	MessageInput              = "input"
	MessageKey                = "key"
	MessageCursor             = "cursor"
	MessageSelectModify       = "select_modify"
	MessageAcceptModification = "accept_modification"
	MessageRejectModification = "reject_modification"
	MessageStop               = "stop"
	MessageConfigure          = "configure"
)

const (
	KeyTab    = "Tab"
	KeyEscape = "Escape"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownMessage   = errors.New("unknown message type")
	ErrUnknownKey       = errors.New("unknown key")
	ErrNoOwnedSources   = errors.New("none of the requested sources are available")
)

// ClientMessage is one frame from the editor. Only the fields of its Type are read.
type ClientMessage struct {
	Type string `json:"type"`

	// input, cursor
	Text   string `json:"text"`
	Cursor int    `json:"cursor"`
	Origin string `json:"origin"`

	// key
	Key string `json:"key"`

	// select_modify
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Instruction string `json:"instruction"`

	// configure
	SourceIDs []string `json:"source_ids"`
	Model     string   `json:"model"`
}

// SourceAuthorizer narrows requested source ids to the ones an owner may use.
type SourceAuthorizer interface {
	OwnedSourceIDs(ctx context.Context, ownerId string, ids []string) ([]string, error)
}

type Dispatcher struct {
	authorizer SourceAuthorizer
	logger     logger.ILogger
}

func NewDispatcher(authorizer SourceAuthorizer, log logger.ILogger) *Dispatcher {
	return &Dispatcher{authorizer: authorizer, logger: log}
}

// Dispatch decodes one frame and applies it to the session.
func (d *Dispatcher) Dispatch(ctx context.Context, session *editor.Session, raw []byte) error {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch msg.Type {
	case MessageInput:
		origin := editor.OriginManual
		if msg.Origin == editor.OriginProgrammatic.String() {
			origin = editor.OriginProgrammatic
		}
		return session.ApplyChange(editor.TextChange{Text: msg.Text, Cursor: msg.Cursor, Origin: origin})

	case MessageKey:
		switch msg.Key {
		case KeyTab:
			// Without a suggestion the client keeps the key's default behavior.
			session.AcceptSuggestion()
		case KeyEscape:
			session.Dismiss()
		default:
			return fmt.Errorf("%w: %q", ErrUnknownKey, msg.Key)
		}
		return nil

	case MessageCursor:
		session.MoveCursor(msg.Cursor)
		return nil

	case MessageSelectModify:
		return session.RequestModification(msg.Start, msg.End, msg.Instruction)

	case MessageAcceptModification:
		return session.AcceptModification()

	case MessageRejectModification:
		return session.RejectModification()

	case MessageStop:
		session.Stop()
		return nil

	case MessageConfigure:
		ids := msg.SourceIDs
		if d.authorizer != nil && len(ids) > 0 {
			owned, err := d.authorizer.OwnedSourceIDs(ctx, session.OwnerID(), ids)
			if err != nil {
				return err
			}
			if len(owned) == 0 {
				// An empty scope would mean owner-wide retrieval.
				return fmt.Errorf("%w: %d requested", ErrNoOwnedSources, len(ids))
			}
			if len(owned) < len(ids) {
				d.logger.Warn("Dispatcher", "Dropped sources not owned by session owner", map[string]interface{}{
					"session_id": session.ID(),
					"requested":  len(ids),
					"kept":       len(owned),
				})
			}
			ids = owned
		}
		session.Configure(ids, msg.Model)
		return nil
	}

	return fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
}

// IsClientError reports whether err came from a frame the client can correct.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedMessage) ||
		errors.Is(err, ErrUnknownMessage) ||
		errors.Is(err, ErrUnknownKey) ||
		errors.Is(err, ErrNoOwnedSources) ||
		editor.IsClientError(err)
}
