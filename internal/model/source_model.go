package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Source struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerId    string         `gorm:"type:text;not null;index"`
	Title      string         `gorm:"type:text"`
	Text       string         `gorm:"type:text"`
	OriginURL  *string        `gorm:"type:text"`
	Processed  bool           `gorm:"default:false"`
	ChunkCount int            `gorm:"default:0"`
	LastError  string         `gorm:"type:text"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (Source) TableName() string {
	return "sources"
}

// SourceChunk rows are written once per ingestion run and never edited.
// Seq is assigned by the database and breaks score ties in insertion order.
type SourceChunk struct {
	Id         uuid.UUID         `gorm:"type:uuid;primaryKey"`
	SourceId   uuid.UUID         `gorm:"type:uuid;not null;index"`
	OwnerId    string            `gorm:"type:text;not null;index"`
	ChunkIndex int               `gorm:"default:0"`
	Text       string            `gorm:"type:text"`
	Embedding  pgvector.Vector   `gorm:"type:vector(768)"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb"`
	Seq        int64             `gorm:"->;type:bigserial;index"`
	CreatedAt  time.Time         `gorm:"autoCreateTime"`
}

func (SourceChunk) TableName() string {
	return "source_chunks"
}
