package implementation

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-ghostwriter-be/internal/entity"
	"ai-ghostwriter-be/internal/model"
	"ai-ghostwriter-be/internal/repository/specification"
	"ai-ghostwriter-be/pkg/database"
	"ai-ghostwriter-be/pkg/embedding"
	"ai-ghostwriter-be/pkg/vectorindex"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// axisEmbedder maps known texts onto 768-dim vectors built from two axes.
type axisEmbedder map[string][2]float32

func (a axisEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	v := make([]float32, 768)
	xy := a[text]
	v[0], v[1] = xy[0], xy[1]
	if xy == [2]float32{} {
		v[2] = 1
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: v}}, nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))
	return db
}

func TestPgVectorIndex_Integration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	owner := "it-" + uuid.NewString()

	sources := NewSourceRepository(db)
	first := &entity.Source{Id: uuid.New(), OwnerId: owner, Title: "first", Text: "x", CreatedAt: time.Now()}
	second := &entity.Source{Id: uuid.New(), OwnerId: owner, Title: "second", Text: "y", CreatedAt: time.Now()}
	require.NoError(t, sources.Create(ctx, first))
	require.NoError(t, sources.Create(ctx, second))
	t.Cleanup(func() {
		chunks := NewSourceChunkRepository(db)
		for _, s := range []*entity.Source{first, second} {
			_ = chunks.DeleteBySourceId(ctx, s.Id)
			_ = sources.Delete(ctx, s.Id)
		}
	})

	idx := NewPgVectorIndex(db, axisEmbedder{
		"query":   {1, 0},
		"exact":   {1, 0},
		"near":    {0.9, 0.1},
		"far":     {0, 1},
		"tie-one": {0.5, 0.5},
		"tie-two": {0.5, 0.5},
	})

	entry := func(text string, s *entity.Source, i int) vectorindex.Entry {
		return vectorindex.Entry{
			ID:       uuid.NewString(),
			Text:     text,
			Metadata: vectorindex.Metadata{OwnerID: owner, SourceID: s.Id.String(), ChunkIndex: i},
		}
	}
	batch := []vectorindex.Entry{
		entry("far", first, 0),
		entry("tie-one", first, 1),
		entry("tie-two", first, 2),
		entry("near", second, 0),
		entry("exact", second, 1),
	}
	require.NoError(t, idx.Upsert(ctx, batch))
	// Same ids again: nothing duplicates.
	require.NoError(t, idx.Upsert(ctx, batch))

	t.Run("owner wide ordering", func(t *testing.T) {
		matches, err := idx.Query(ctx, "query", 10, vectorindex.Filter{OwnerID: owner}, true)
		require.NoError(t, err)
		require.Len(t, matches, 5)

		texts := make([]string, len(matches))
		for i, m := range matches {
			texts[i] = m.Data
		}
		assert.Equal(t, []string{"exact", "near", "tie-one", "tie-two", "far"}, texts)
		assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	})

	t.Run("source filter", func(t *testing.T) {
		matches, err := idx.Query(ctx, "query", 10, vectorindex.Filter{OwnerID: owner, SourceIDs: []string{first.Id.String()}}, false)
		require.NoError(t, err)
		require.Len(t, matches, 3)
		for _, m := range matches {
			assert.Equal(t, first.Id.String(), m.Metadata.SourceID)
			assert.Empty(t, m.Data)
		}
	})

	t.Run("other owner sees nothing", func(t *testing.T) {
		matches, err := idx.Query(ctx, "query", 10, vectorindex.Filter{OwnerID: "someone-else"}, true)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("delete source keeps listed chunks", func(t *testing.T) {
		keep := batch[4].ID
		require.NoError(t, idx.DeleteSource(ctx, owner, second.Id.String(), []string{keep}))

		matches, err := idx.Query(ctx, "query", 10, vectorindex.Filter{OwnerID: owner, SourceIDs: []string{second.Id.String()}}, true)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, keep, matches[0].ID)

		remaining, err := NewSourceChunkRepository(db).Count(ctx, specification.BySourceID{SourceID: second.Id})
		require.NoError(t, err)
		assert.Equal(t, int64(1), remaining)
	})
}
