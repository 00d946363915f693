// Package retriever turns an owner-scoped query into grounding context.
package retriever

import (
	"context"
	"strings"

	"ai-ghostwriter-be/internal/pkg/logger"
	"ai-ghostwriter-be/pkg/vectorindex"
)

const logModule = "Retriever"

// Config holds the empirical relevance thresholds. Scores are cosine similarities.
type Config struct {
	TopK int
	// FallbackThreshold: a scoped query whose best score does not exceed this is
	// re-run with the owner-only filter.
	FallbackThreshold float64
	// MinScore: matches scoring at or below this are dropped.
	MinScore float64
}

func DefaultConfig() Config {
	return Config{
		TopK:              5,
		FallbackThreshold: 0.875,
		MinScore:          0.8,
	}
}

type Query struct {
	Text      string
	OwnerID   string
	SourceIDs []string
	TopK      int
}

type Retriever struct {
	index  vectorindex.Index
	config Config
	logger logger.ILogger
}

func New(index vectorindex.Index, config Config, log logger.ILogger) *Retriever {
	def := DefaultConfig()
	if config.TopK <= 0 {
		config.TopK = def.TopK
	}
	return &Retriever{
		index:  index,
		config: config,
		logger: log,
	}
}

// Retrieve returns the newline-joined text of relevant chunks, best first. An
// error means no context could be built; callers should carry on with "".
func (r *Retriever) Retrieve(ctx context.Context, q Query) (string, error) {
	matches, err := r.Search(ctx, q)
	if err != nil {
		return "", err
	}

	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Data
	}
	return strings.Join(texts, "\n"), nil
}

// Search runs the scoped query, falls back to the owner-wide query when the
// scope is not relevant enough, and keeps matches above MinScore.
func (r *Retriever) Search(ctx context.Context, q Query) ([]vectorindex.Match, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, nil
	}

	topK := q.TopK
	if topK <= 0 {
		topK = r.config.TopK
	}

	filter := vectorindex.Filter{OwnerID: q.OwnerID, SourceIDs: q.SourceIDs}
	matches, err := r.index.Query(ctx, q.Text, topK, filter, true)
	if err != nil {
		return nil, err
	}

	if len(q.SourceIDs) > 0 && !anyAbove(matches, r.config.FallbackThreshold) {
		broad, err := r.index.Query(ctx, q.Text, topK, vectorindex.Filter{OwnerID: q.OwnerID}, true)
		if err != nil {
			// Keep what the scoped query found rather than nothing.
			r.logger.Warn(logModule, "Owner-wide fallback query failed", map[string]interface{}{
				"owner_id": q.OwnerID,
				"error":    err.Error(),
			})
		} else {
			r.logger.Debug(logModule, "Scoped sources below fallback threshold, using owner-wide results", map[string]interface{}{
				"owner_id":     q.OwnerID,
				"source_count": len(q.SourceIDs),
			})
			matches = broad
		}
	}

	kept := make([]vectorindex.Match, 0, len(matches))
	for _, m := range matches {
		if m.Score > r.config.MinScore {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

func anyAbove(matches []vectorindex.Match, threshold float64) bool {
	for _, m := range matches {
		if m.Score > threshold {
			return true
		}
	}
	return false
}
