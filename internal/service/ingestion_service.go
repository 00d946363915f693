package service

import (
	"context"
	"fmt"
	"strings"

	"ai-ghostwriter-be/internal/entity"
	"ai-ghostwriter-be/internal/pkg/logger"
	"ai-ghostwriter-be/internal/repository/specification"
	"ai-ghostwriter-be/internal/repository/unitofwork"
	"ai-ghostwriter-be/pkg/events"
	"ai-ghostwriter-be/pkg/utils"
	"ai-ghostwriter-be/pkg/vectorindex"

	"github.com/google/uuid"
)

const ingestionModule = "IngestionService"

// IIngestionService owns Source.Processed, Source.ChunkCount and Source.LastError.
type IIngestionService interface {
	// Enqueue marks the source as pending and schedules an asynchronous run.
	Enqueue(ctx context.Context, sourceId uuid.UUID) error
	// Ingest chunks the source, writes the chunks to the index and records the
	// outcome. A failed run leaves the source unprocessed and is not retried.
	Ingest(ctx context.Context, sourceId uuid.UUID) (*entity.Source, error)
}

type ingestionService struct {
	uowFactory unitofwork.RepositoryFactory
	index      vectorindex.Index
	splitter   *utils.RecursiveSplitter
	queue      IPublisherService
	events     events.Publisher
	logger     logger.ILogger
}

func NewIngestionService(
	uowFactory unitofwork.RepositoryFactory,
	index vectorindex.Index,
	splitter *utils.RecursiveSplitter,
	queue IPublisherService,
	eventPublisher events.Publisher,
	log logger.ILogger,
) IIngestionService {
	return &ingestionService{
		uowFactory: uowFactory,
		index:      index,
		splitter:   splitter,
		queue:      queue,
		events:     eventPublisher,
		logger:     log,
	}
}

func (s *ingestionService) Enqueue(ctx context.Context, sourceId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	source, err := uow.SourceRepository().FindOne(ctx, specification.ByID{ID: sourceId})
	if err != nil {
		return err
	}
	if source == nil {
		return entity.ErrSourceNotFound
	}

	if err := uow.SourceRepository().UpdateIngestStatus(ctx, source.Id, false, source.ChunkCount, ""); err != nil {
		return err
	}
	if s.queue == nil {
		return fmt.Errorf("ingestion queue not configured")
	}
	return s.queue.SendIngestJob(ctx, source.Id)
}

func (s *ingestionService) Ingest(ctx context.Context, sourceId uuid.UUID) (*entity.Source, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.SourceRepository()

	source, err := repo.FindOne(ctx, specification.ByID{ID: sourceId})
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, entity.ErrSourceNotFound
	}

	sourceID := source.Id.String()
	chunks := s.splitter.Split(source.Text)

	entries := make([]vectorindex.Entry, 0, len(chunks))
	keep := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		// Blank chunks carry nothing to retrieve and most embedders reject them.
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		id := uuid.NewString()
		entries = append(entries, vectorindex.Entry{
			ID:   id,
			Text: chunk,
			Metadata: vectorindex.Metadata{
				OwnerID:    source.OwnerId,
				SourceID:   sourceID,
				ChunkIndex: i,
			},
		})
		keep = append(keep, id)
	}

	s.logger.Info(ingestionModule, "Ingesting source", map[string]interface{}{
		"source_id": sourceID,
		"chunks":    len(entries),
		"length":    len([]rune(source.Text)),
	})

	if len(entries) > 0 {
		if err := s.index.Upsert(ctx, entries); err != nil {
			return nil, s.fail(ctx, source, source.ChunkCount, fmt.Errorf("upsert chunks: %w", err))
		}
	}
	// Chunks from earlier runs are replaced, never edited.
	if err := s.index.DeleteSource(ctx, source.OwnerId, sourceID, keep); err != nil {
		s.rollback(ctx, sourceID, keep)
		return nil, s.fail(ctx, source, source.ChunkCount, fmt.Errorf("delete stale chunks: %w", err))
	}

	// The source may have been deleted while this run was writing chunks.
	current, err := repo.FindOne(ctx, specification.ByID{ID: source.Id})
	if err != nil {
		s.rollback(ctx, sourceID, keep)
		return nil, s.fail(ctx, source, 0, fmt.Errorf("reload source: %w", err))
	}
	if current == nil {
		s.rollback(ctx, sourceID, keep)
		s.logger.Warn(ingestionModule, "Source deleted during ingestion", map[string]interface{}{
			"source_id": sourceID,
		})
		return nil, entity.ErrSourceNotFound
	}

	if err := repo.UpdateIngestStatus(ctx, source.Id, true, len(entries), ""); err != nil {
		s.rollback(ctx, sourceID, keep)
		return nil, s.fail(ctx, source, 0, fmt.Errorf("record status: %w", err))
	}
	source.Processed = true
	source.ChunkCount = len(entries)
	source.LastError = ""

	s.publish(ctx, events.NewSourceIngested(sourceID, source.OwnerId, len(entries)))
	s.logger.Info(ingestionModule, "Source ingested", map[string]interface{}{
		"source_id":   sourceID,
		"chunk_count": len(entries),
	})
	return source, nil
}

// rollback removes the chunks written by a run that did not complete, so a
// failed run never leaves its own chunks next to the previous run's.
func (s *ingestionService) rollback(ctx context.Context, sourceID string, ids []string) {
	if len(ids) == 0 {
		return
	}
	if err := s.index.Delete(ctx, ids); err != nil {
		s.logger.Error(ingestionModule, "Failed to remove chunks of failed run", map[string]interface{}{
			"source_id": sourceID,
			"chunks":    len(ids),
			"error":     err,
		})
	}
}

// fail records the failure. chunkCount is what is left in the index for the
// source: the previous count while stale chunks were untouched, zero after.
func (s *ingestionService) fail(ctx context.Context, source *entity.Source, chunkCount int, cause error) error {
	sourceID := source.Id.String()
	s.logger.Error(ingestionModule, "Ingestion failed", map[string]interface{}{
		"source_id": sourceID,
		"error":     cause,
	})

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SourceRepository().UpdateIngestStatus(ctx, source.Id, false, chunkCount, cause.Error()); err != nil {
		s.logger.Error(ingestionModule, "Failed to record ingestion failure", map[string]interface{}{
			"source_id": sourceID,
			"error":     err,
		})
	}

	s.publish(ctx, events.NewSourceIngestFailed(sourceID, source.OwnerId, cause.Error()))
	return cause
}

func (s *ingestionService) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn(ingestionModule, "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err,
		})
	}
}
