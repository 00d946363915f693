package implementation

import (
	"context"
	"fmt"

	"ai-ghostwriter-be/internal/entity"
	"ai-ghostwriter-be/internal/repository/contract"
	"ai-ghostwriter-be/pkg/embedding"
	"ai-ghostwriter-be/pkg/vectorindex"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PgVectorIndex implements vectorindex.Index on the source_chunks table.
// Embeddings are computed before anything is written, so a batch is either
// fully stored or not at all.
type PgVectorIndex struct {
	chunks   contract.SourceChunkRepository
	embedder embedding.EmbeddingProvider
}

var _ vectorindex.Index = (*PgVectorIndex)(nil)

func NewPgVectorIndex(db *gorm.DB, embedder embedding.EmbeddingProvider) *PgVectorIndex {
	return &PgVectorIndex{
		chunks:   NewSourceChunkRepository(db),
		embedder: embedder,
	}
}

func (p *PgVectorIndex) Upsert(ctx context.Context, entries []vectorindex.Entry) error {
	chunks := make([]*entity.SourceChunk, len(entries))
	for i, e := range entries {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return fmt.Errorf("invalid chunk id %q: %w", e.ID, err)
		}
		sourceId, err := uuid.Parse(e.Metadata.SourceID)
		if err != nil {
			return fmt.Errorf("invalid source id %q: %w", e.Metadata.SourceID, err)
		}

		res, err := p.embedder.Generate(ctx, e.Text, embedding.TaskRetrievalDocument)
		if err != nil {
			return fmt.Errorf("%w: chunk %s: %v", vectorindex.ErrEmbedding, e.ID, err)
		}

		chunks[i] = &entity.SourceChunk{
			Id:         id,
			SourceId:   sourceId,
			OwnerId:    e.Metadata.OwnerID,
			ChunkIndex: e.Metadata.ChunkIndex,
			Text:       e.Text,
			Embedding:  res.Embedding.Values,
		}
	}
	return p.chunks.Upsert(ctx, chunks)
}

func (p *PgVectorIndex) Query(ctx context.Context, text string, topK int, filter vectorindex.Filter, includeData bool) ([]vectorindex.Match, error) {
	sourceIds := make([]uuid.UUID, 0, len(filter.SourceIDs))
	for _, raw := range filter.SourceIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			// An id that cannot exist matches nothing.
			continue
		}
		sourceIds = append(sourceIds, id)
	}
	if len(filter.SourceIDs) > 0 && len(sourceIds) == 0 {
		return nil, nil
	}

	res, err := p.embedder.Generate(ctx, text, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", vectorindex.ErrEmbedding, err)
	}

	scored, err := p.chunks.SearchSimilarWithScore(ctx, res.Embedding.Values, topK, filter.OwnerID, sourceIds)
	if err != nil {
		return nil, err
	}

	matches := make([]vectorindex.Match, len(scored))
	for i, s := range scored {
		matches[i] = vectorindex.Match{
			ID:    s.Chunk.Id.String(),
			Score: s.Similarity,
			Metadata: vectorindex.Metadata{
				OwnerID:    s.Chunk.OwnerId,
				SourceID:   s.Chunk.SourceId.String(),
				ChunkIndex: s.Chunk.ChunkIndex,
			},
		}
		if includeData {
			matches[i].Data = s.Chunk.Text
		}
	}
	return matches, nil
}

func (p *PgVectorIndex) DeleteSource(ctx context.Context, ownerID, sourceID string, keep []string) error {
	sourceId, err := uuid.Parse(sourceID)
	if err != nil {
		return fmt.Errorf("invalid source id %q: %w", sourceID, err)
	}
	keepIds := make([]uuid.UUID, 0, len(keep))
	for _, raw := range keep {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid chunk id %q: %w", raw, err)
		}
		keepIds = append(keepIds, id)
	}
	return p.chunks.DeleteBySourceExcept(ctx, ownerID, sourceId, keepIds)
}

func (p *PgVectorIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	chunkIds := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			// Never stored under this index.
			continue
		}
		chunkIds = append(chunkIds, id)
	}
	return p.chunks.DeleteByIds(ctx, chunkIds)
}
