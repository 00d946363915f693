package service

import (
	"context"
	"encoding/json"

	"ai-ghostwriter-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IPublisherService interface {
	SendIngestJob(ctx context.Context, sourceId uuid.UUID) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) SendIngestJob(ctx context.Context, sourceId uuid.UUID) error {
	payload, err := json.Marshal(dto.PublishIngestSourceMessage{SourceId: sourceId})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return ps.publisher.Publish(ps.topicName, msg)
}
