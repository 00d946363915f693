// Package vectorindex is the contract between the retrieval core and the store
// that owns chunk embeddings.
package vectorindex

import (
	"context"
	"errors"
)

var (
	// ErrIndexUnavailable means the backing service could not be reached. An
	// ingestion run that sees it must fail as a whole.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	ErrEmbedding        = errors.New("embedding failed")
)

// Metadata travels with every entry and is what filters match on.
type Metadata struct {
	OwnerID    string `json:"owner_id"`
	SourceID   string `json:"source_id"`
	ChunkIndex int    `json:"chunk_index"`
}

type Entry struct {
	ID       string
	Text     string
	Metadata Metadata
}

// Filter restricts a query to one owner and, when SourceIDs is non-empty, to
// those sources only.
type Filter struct {
	OwnerID   string
	SourceIDs []string
}

func (f Filter) Matches(m Metadata) bool {
	if m.OwnerID != f.OwnerID {
		return false
	}
	if len(f.SourceIDs) == 0 {
		return true
	}
	for _, id := range f.SourceIDs {
		if id == m.SourceID {
			return true
		}
	}
	return false
}

type Match struct {
	ID       string
	Data     string
	Score    float64
	Metadata Metadata
}

// Index stores chunk embeddings and answers similarity queries.
//
// Query results are ordered by descending score. Equal scores keep the order in
// which entries were first inserted.
type Index interface {
	// Upsert is idempotent by entry id and all-or-nothing.
	Upsert(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, text string, topK int, filter Filter, includeData bool) ([]Match, error)
	// DeleteSource removes the chunks of a source except the ids in keep.
	DeleteSource(ctx context.Context, ownerID, sourceID string, keep []string) error
	// Delete removes exactly the given ids. Unknown ids are ignored.
	Delete(ctx context.Context, ids []string) error
}
