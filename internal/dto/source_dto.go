package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSourceRequest struct {
	Title     string  `json:"title" validate:"required,max=255"`
	Text      string  `json:"text"`
	OriginURL *string `json:"origin_url" validate:"omitempty,url"`
}

type UpdateSourceRequest struct {
	Id        uuid.UUID `json:"-"`
	Title     string    `json:"title" validate:"required,max=255"`
	Text      string    `json:"text"`
	OriginURL *string   `json:"origin_url" validate:"omitempty,url"`
}

type ListSourcesRequest struct {
	Limit     int   `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset    int   `query:"offset" validate:"omitempty,min=0"`
	Processed *bool `query:"processed"`
}

type SourceResponse struct {
	Id         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	OriginURL  *string    `json:"origin_url"`
	Processed  bool       `json:"processed"`
	ChunkCount int        `json:"chunk_count"`
	LastError  string     `json:"last_error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

type ListSourcesResponse struct {
	Items []*SourceResponse `json:"items"`
	Total int64             `json:"total"`
}

type ShowSourceResponse struct {
	SourceResponse
	Text string `json:"text"`
}

// PublishIngestSourceMessage is the payload of an ingestion job on the queue.
type PublishIngestSourceMessage struct {
	SourceId uuid.UUID `json:"source_id"`
}
