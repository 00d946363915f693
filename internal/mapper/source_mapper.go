package mapper

import (
	"time"

	"ai-ghostwriter-be/internal/entity"
	"ai-ghostwriter-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SourceMapper struct{}

func NewSourceMapper() *SourceMapper {
	return &SourceMapper{}
}

func (m *SourceMapper) ToEntity(s *model.Source) *entity.Source {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.Source{
		Id:         s.Id,
		OwnerId:    s.OwnerId,
		Title:      s.Title,
		Text:       s.Text,
		OriginURL:  s.OriginURL,
		Processed:  s.Processed,
		ChunkCount: s.ChunkCount,
		LastError:  s.LastError,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
		IsDeleted:  s.DeletedAt.Valid,
	}
}

func (m *SourceMapper) ToModel(s *entity.Source) *model.Source {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.Source{
		Id:         s.Id,
		OwnerId:    s.OwnerId,
		Title:      s.Title,
		Text:       s.Text,
		OriginURL:  s.OriginURL,
		Processed:  s.Processed,
		ChunkCount: s.ChunkCount,
		LastError:  s.LastError,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
	}
}

func (m *SourceMapper) ToEntities(sources []*model.Source) []*entity.Source {
	entities := make([]*entity.Source, len(sources))
	for i, s := range sources {
		entities[i] = m.ToEntity(s)
	}
	return entities
}

type SourceChunkMapper struct{}

func NewSourceChunkMapper() *SourceChunkMapper {
	return &SourceChunkMapper{}
}

func (m *SourceChunkMapper) ToEntity(c *model.SourceChunk) *entity.SourceChunk {
	if c == nil {
		return nil
	}
	return &entity.SourceChunk{
		Id:         c.Id,
		SourceId:   c.SourceId,
		OwnerId:    c.OwnerId,
		ChunkIndex: c.ChunkIndex,
		Text:       c.Text,
		Embedding:  c.Embedding.Slice(),
		Seq:        c.Seq,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *SourceChunkMapper) ToModel(c *entity.SourceChunk) *model.SourceChunk {
	if c == nil {
		return nil
	}
	return &model.SourceChunk{
		Id:         c.Id,
		SourceId:   c.SourceId,
		OwnerId:    c.OwnerId,
		ChunkIndex: c.ChunkIndex,
		Text:       c.Text,
		Embedding:  pgvector.NewVector(c.Embedding),
		Metadata: datatypes.JSONMap{
			"owner_id":    c.OwnerId,
			"source_id":   c.SourceId.String(),
			"chunk_index": c.ChunkIndex,
		},
		CreatedAt: c.CreatedAt,
	}
}

func (m *SourceChunkMapper) ToModels(chunks []*entity.SourceChunk) []*model.SourceChunk {
	models := make([]*model.SourceChunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}
