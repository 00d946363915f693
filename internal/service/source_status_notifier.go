package service

import (
	"context"
	"encoding/json"

	"ai-ghostwriter-be/internal/pkg/logger"
	"ai-ghostwriter-be/pkg/events"
	pktNats "ai-ghostwriter-be/pkg/nats"
)

const (
	sourceStatusSubject = "events.source.>"
	sourceStatusDurable = "source-status-notifier"
)

// StatusDelivery pushes a payload to every connection of an owner.
// Typically implemented by the WebSocket Hub.
type StatusDelivery interface {
	SendToOwner(ownerID string, message []byte)
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, subject string, durableName string, handler pktNats.EventHandler) error
}

// SourceStatusMessage is what an owner's connections receive when an
// ingestion run finishes.
type SourceStatusMessage struct {
	Type string              `json:"type"`
	Data events.SourceStatus `json:"data"`
}

type SourceStatusNotifier struct {
	subscriber EventSubscriber
	delivery   StatusDelivery
	logger     logger.ILogger
}

func NewSourceStatusNotifier(sub EventSubscriber, delivery StatusDelivery, log logger.ILogger) *SourceStatusNotifier {
	return &SourceStatusNotifier{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to ingestion outcomes on the event bus.
func (s *SourceStatusNotifier) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, sourceStatusSubject, sourceStatusDurable, s.handleEvent); err != nil {
		s.logger.Error("SourceStatusNotifier", "Failed to start subscriber", map[string]interface{}{"error": err})
		return err
	}
	s.logger.Info("SourceStatusNotifier", "Listening to "+sourceStatusSubject, nil)
	return nil
}

func (s *SourceStatusNotifier) handleEvent(ctx context.Context, event events.Event) error {
	status, ok := events.SourceStatusFrom(event)
	if !ok {
		s.logger.Debug("SourceStatusNotifier", "Ignoring event", map[string]interface{}{"type": event.EventType()})
		return nil
	}
	if status.OwnerID == "" {
		s.logger.Warn("SourceStatusNotifier", "Status event without owner", map[string]interface{}{"source_id": status.SourceID})
		return nil
	}

	payload, err := json.Marshal(SourceStatusMessage{Type: "source_status", Data: status})
	if err != nil {
		return err
	}

	if s.delivery != nil {
		s.delivery.SendToOwner(status.OwnerID, payload)
	}
	return nil
}
