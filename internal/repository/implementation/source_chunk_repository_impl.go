package implementation

import (
	"context"

	"ai-ghostwriter-be/internal/entity"
	"ai-ghostwriter-be/internal/mapper"
	"ai-ghostwriter-be/internal/model"
	"ai-ghostwriter-be/internal/repository/contract"
	"ai-ghostwriter-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SourceChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SourceChunkMapper
}

func NewSourceChunkRepository(db *gorm.DB) contract.SourceChunkRepository {
	return &SourceChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewSourceChunkMapper(),
	}
}

func (r *SourceChunkRepositoryImpl) Upsert(ctx context.Context, chunks []*entity.SourceChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := r.mapper.ToModels(chunks)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"source_id", "owner_id", "chunk_index", "text", "embedding", "metadata"}),
		}).Create(&models).Error
	})
	return classifyError(err)
}

func (r *SourceChunkRepositoryImpl) DeleteBySourceExcept(ctx context.Context, ownerId string, sourceId uuid.UUID, keep []uuid.UUID) error {
	query := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerId).
		Where("source_id = ?", sourceId)
	if len(keep) > 0 {
		query = query.Where("id NOT IN ?", keep)
	}
	return classifyError(query.Delete(&model.SourceChunk{}).Error)
}

func (r *SourceChunkRepositoryImpl) DeleteByIds(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return classifyError(r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.SourceChunk{}).Error)
}

func (r *SourceChunkRepositoryImpl) DeleteBySourceId(ctx context.Context, sourceId uuid.UUID) error {
	return classifyError(r.db.WithContext(ctx).Where("source_id = ?", sourceId).Delete(&model.SourceChunk{}).Error)
}

func (r *SourceChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, ownerId string, sourceIds []uuid.UUID) ([]*entity.ScoredSourceChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	// pgvector's <=> is cosine distance, so 1 - distance is the similarity.
	type result struct {
		model.SourceChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("source_chunks").
		Select("source_chunks.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("owner_id = ?", ownerId)
	if len(sourceIds) > 0 {
		query = query.Where("source_id IN ?", sourceIds)
	}
	err := query.
		Order("similarity DESC").
		Order("seq ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, classifyError(err)
	}

	scored := make([]*entity.ScoredSourceChunk, len(results))
	for i := range results {
		scored[i] = &entity.ScoredSourceChunk{
			Chunk:      r.mapper.ToEntity(&results[i].SourceChunk),
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}

func (r *SourceChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx)
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	err := db.Model(&model.SourceChunk{}).Count(&count).Error
	return count, classifyError(err)
}
