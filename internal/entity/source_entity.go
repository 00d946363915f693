package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrSourceNotFound = errors.New("source not found")

// Source is an owned piece of already-extracted text that grounds completions.
// Processed, ChunkCount and LastError are written only by the ingestion pipeline.
type Source struct {
	Id         uuid.UUID
	OwnerId    string
	Title      string
	Text       string
	OriginURL  *string
	Processed  bool
	ChunkCount int
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}

type SourceChunk struct {
	Id         uuid.UUID
	SourceId   uuid.UUID
	OwnerId    string
	ChunkIndex int
	Text       string
	Embedding  []float32
	Seq        int64
	CreatedAt  time.Time
}

type ScoredSourceChunk struct {
	Chunk      *SourceChunk
	Similarity float64
}
