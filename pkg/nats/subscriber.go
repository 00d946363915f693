package nats

import (
	"context"
	"fmt"
	"log"

	"ai-ghostwriter-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler processes one event. A returned error makes JetStream redeliver it.
type EventHandler func(ctx context.Context, event events.Event) error

type Subscriber struct {
	nc       *nats.Conn
	js       jetstream.JetStream
	consumes []jetstream.ConsumeContext
}

func NewSubscriber(url string) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js}, nil
}

// Subscribe attaches a durable consumer for subject on the events stream.
func (s *Subscriber) Subscribe(ctx context.Context, subject string, durableName string, handler EventHandler) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		event, err := events.Decode(msg.Data())
		if err != nil {
			// Redelivery cannot fix a payload we cannot read.
			log.Printf("Error decoding event on %s: %v", msg.Subject(), err)
			_ = msg.Term()
			return
		}

		if err := handler(ctx, event); err != nil {
			log.Printf("Handler failed for event %s: %v", msg.Subject(), err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	s.consumes = append(s.consumes, cc)

	log.Printf("Subscribed to %s with durable %s", subject, durableName)
	return nil
}

func (s *Subscriber) Close() {
	for _, cc := range s.consumes {
		cc.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
