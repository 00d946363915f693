package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"ai-ghostwriter-be/pkg/embedding"
)

type memoryEntry struct {
	Entry
	vector []float32
	seq    int64
}

// MemoryIndex keeps entries in process and scores them by cosine similarity.
type MemoryIndex struct {
	embedder embedding.EmbeddingProvider

	mu      sync.RWMutex
	entries map[string]*memoryEntry
	nextSeq int64
}

var _ Index = (*MemoryIndex)(nil)

func NewMemoryIndex(embedder embedding.EmbeddingProvider) *MemoryIndex {
	return &MemoryIndex{
		embedder: embedder,
		entries:  make(map[string]*memoryEntry),
	}
}

func (m *MemoryIndex) Upsert(ctx context.Context, entries []Entry) error {
	vectors := make([][]float32, len(entries))
	for i, e := range entries {
		res, err := m.embedder.Generate(ctx, e.Text, embedding.TaskRetrievalDocument)
		if err != nil {
			return fmt.Errorf("%w: entry %s: %v", ErrEmbedding, e.ID, err)
		}
		vectors[i] = res.Embedding.Values
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range entries {
		if existing, ok := m.entries[e.ID]; ok {
			existing.Entry = e
			existing.vector = vectors[i]
			continue
		}
		m.entries[e.ID] = &memoryEntry{Entry: e, vector: vectors[i], seq: m.nextSeq}
		m.nextSeq++
	}
	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, text string, topK int, filter Filter, includeData bool) ([]Match, error) {
	res, err := m.embedder.Generate(ctx, text, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrEmbedding, err)
	}
	query := res.Embedding.Values

	type scored struct {
		*memoryEntry
		score float64
	}

	m.mu.RLock()
	candidates := make([]scored, 0, len(m.entries))
	for _, e := range m.entries {
		if filter.Matches(e.Metadata) {
			candidates = append(candidates, scored{memoryEntry: e, score: CosineSimilarity(query, e.vector)})
		}
	}
	m.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].seq < candidates[j].seq
	})

	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}

	matches := make([]Match, len(candidates))
	for i, c := range candidates {
		matches[i] = Match{ID: c.ID, Score: c.score, Metadata: c.Metadata}
		if includeData {
			matches[i].Data = c.Text
		}
	}
	return matches, nil
}

func (m *MemoryIndex) DeleteSource(ctx context.Context, ownerID, sourceID string, keep []string) error {
	kept := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if e.Metadata.OwnerID != ownerID || e.Metadata.SourceID != sourceID {
			continue
		}
		if _, ok := kept[id]; !ok {
			delete(m.entries, id)
		}
	}
	return nil
}

func (m *MemoryIndex) Delete(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.entries, id)
	}
	return nil
}

// Len reports the number of stored entries.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
