package contract

import (
	"context"

	"ai-ghostwriter-be/internal/entity"
	"ai-ghostwriter-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SourceRepository interface {
	Create(ctx context.Context, source *entity.Source) error
	// UpdateContent rewrites title, text and origin. Ingestion status is untouched.
	UpdateContent(ctx context.Context, source *entity.Source) error
	// UpdateIngestStatus is last-write-wins per source id.
	UpdateIngestStatus(ctx context.Context, id uuid.UUID, processed bool, chunkCount int, lastError string) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Source, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Source, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type SourceChunkRepository interface {
	// Upsert inserts chunks or overwrites rows with the same id in one transaction.
	Upsert(ctx context.Context, chunks []*entity.SourceChunk) error
	DeleteBySourceExcept(ctx context.Context, ownerId string, sourceId uuid.UUID, keep []uuid.UUID) error
	DeleteBySourceId(ctx context.Context, sourceId uuid.UUID) error
	DeleteByIds(ctx context.Context, ids []uuid.UUID) error
	// SearchSimilarWithScore orders by similarity descending, then insertion order.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, ownerId string, sourceIds []uuid.UUID) ([]*entity.ScoredSourceChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
