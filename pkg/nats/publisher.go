package nats

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-ghostwriter-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	StreamName    = "EVENTS"
	subjectPrefix = "events."
)

// Subject maps an event type to its JetStream subject.
func Subject(eventType string) string {
	return subjectPrefix + eventType
}

func connect(url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return nc, js, nil
}

// Publisher sends events to the NATS bus.
type Publisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(url string) (*Publisher, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{subjectPrefix + ">"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		// The stream may already exist with a different config, or the server is still starting.
		log.Printf("Warn: Failed to ensure stream '%s': %v", StreamName, err)
	}

	return &Publisher{nc: nc, js: js}, nil
}

func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	data, err := events.Encode(event)
	if err != nil {
		return err
	}

	subject := Subject(event.EventType())
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
