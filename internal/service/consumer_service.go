package service

import (
	"context"
	"encoding/json"
	"errors"

	"ai-ghostwriter-be/internal/dto"
	"ai-ghostwriter-be/internal/entity"
	"ai-ghostwriter-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	ingestion  IIngestionService
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	ingestion IIngestionService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		ingestion:  ingestion,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks. Retrying a failed run is left to whoever
// re-enqueues the source; the failure is already recorded on it.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.PublishIngestSourceMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal ingest job", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err,
		})
		return
	}

	if _, err := cs.ingestion.Ingest(ctx, payload.SourceId); err != nil {
		level := cs.logger.Error
		if errors.Is(err, entity.ErrSourceNotFound) {
			// Deleted between enqueue and run.
			level = cs.logger.Warn
		}
		level("ConsumerService", "Ingest job failed", map[string]interface{}{
			"source_id": payload.SourceId.String(),
			"error":     err,
		})
	}
}
