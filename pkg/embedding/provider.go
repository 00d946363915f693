package embedding

import "context"

// Task types understood by providers that distinguish documents from queries.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}
