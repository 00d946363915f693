package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"ai-ghostwriter-be/internal/entity"
	"ai-ghostwriter-be/internal/pkg/logger"
	"ai-ghostwriter-be/pkg/events"
	"ai-ghostwriter-be/pkg/utils"
	"ai-ghostwriter-be/pkg/vectorindex"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ingestionHarness struct {
	svc       IIngestionService
	repo      *memorySourceRepository
	index     *flakyIndex
	queue     *recordingQueue
	publisher *recordingPublisher
}

func newIngestionHarness() *ingestionHarness {
	factory, repo := newFakeFactory()
	index := &flakyIndex{MemoryIndex: vectorindex.NewMemoryIndex(constantEmbedder{})}
	queue := &recordingQueue{}
	publisher := &recordingPublisher{}
	svc := NewIngestionService(factory, index, utils.NewRecursiveSplitter(), queue, publisher, logger.NewNopLogger())
	return &ingestionHarness{svc: svc, repo: repo, index: index, queue: queue, publisher: publisher}
}

func (h *ingestionHarness) seed(t *testing.T, owner, text string) uuid.UUID {
	t.Helper()
	source := entity.Source{Id: uuid.New(), OwnerId: owner, Title: "doc", Text: text, CreatedAt: time.Now()}
	require.NoError(t, h.repo.Create(context.Background(), &source))
	return source.Id
}

func longText() string {
	return strings.Repeat("lorem ipsum dolor sit amet ", 100)[:2500]
}

func TestIngest_ChunksAndMarksProcessed(t *testing.T) {
	h := newIngestionHarness()
	id := h.seed(t, "u1", longText())

	source, err := h.svc.Ingest(context.Background(), id)
	require.NoError(t, err)

	assert.True(t, source.Processed)
	assert.Equal(t, 3, source.ChunkCount)
	assert.Equal(t, 3, h.index.Len())

	stored := h.repo.get(id)
	assert.True(t, stored.Processed)
	assert.Equal(t, 3, stored.ChunkCount)
	assert.Empty(t, stored.LastError)
	assert.Equal(t, []string{events.SourceIngested}, h.publisher.types())

	matches, err := h.index.Query(context.Background(), "lorem", 10, vectorindex.Filter{OwnerID: "u1"}, true)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for _, m := range matches {
		assert.Equal(t, id.String(), m.Metadata.SourceID)
	}
}

func TestIngest_ReingestReplacesChunks(t *testing.T) {
	h := newIngestionHarness()
	id := h.seed(t, "u1", longText())

	_, err := h.svc.Ingest(context.Background(), id)
	require.NoError(t, err)

	require.NoError(t, h.repo.UpdateContent(context.Background(), &entity.Source{Id: id, Title: "doc", Text: "short now"}))
	source, err := h.svc.Ingest(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, 1, source.ChunkCount)
	assert.Equal(t, 1, h.index.Len())
}

func TestIngest_EmptySourceHasNoChunks(t *testing.T) {
	h := newIngestionHarness()
	id := h.seed(t, "u1", "")

	source, err := h.svc.Ingest(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, source.Processed)
	assert.Equal(t, 0, source.ChunkCount)
	assert.Equal(t, 0, h.index.Len())
}

func TestIngest_FailedReingestKeepsOnlyPreviousChunks(t *testing.T) {
	h := newIngestionHarness()
	id := h.seed(t, "u1", longText())

	_, err := h.svc.Ingest(context.Background(), id)
	require.NoError(t, err)
	before, err := h.index.Query(context.Background(), "lorem", 10, vectorindex.Filter{OwnerID: "u1"}, false)
	require.NoError(t, err)
	require.Len(t, before, 3)

	require.NoError(t, h.repo.UpdateContent(context.Background(), &entity.Source{Id: id, Title: "doc", Text: longText() + " more"}))
	h.index.deleteDown = true

	_, err = h.svc.Ingest(context.Background(), id)
	require.Error(t, err)
	assert.ErrorIs(t, err, vectorindex.ErrIndexUnavailable)

	assert.Equal(t, 3, h.index.Len())
	after, err := h.index.Query(context.Background(), "lorem", 10, vectorindex.Filter{OwnerID: "u1"}, false)
	require.NoError(t, err)
	ids := func(ms []vectorindex.Match) []string {
		res := make([]string, len(ms))
		for i, m := range ms {
			res[i] = m.ID
		}
		return res
	}
	assert.ElementsMatch(t, ids(before), ids(after))

	stored := h.repo.get(id)
	assert.False(t, stored.Processed)
	assert.Equal(t, 3, stored.ChunkCount)
	assert.Contains(t, stored.LastError, "delete stale chunks")
	assert.Equal(t, []string{events.SourceIngested, events.SourceIngestFailed}, h.publisher.types())
}

func TestIngest_SourceDeletedDuringRunLeavesNoChunks(t *testing.T) {
	h := newIngestionHarness()
	id := h.seed(t, "u1", longText())
	h.index.beforeDelete = func() {
		require.NoError(t, h.repo.Delete(context.Background(), id))
	}

	_, err := h.svc.Ingest(context.Background(), id)
	assert.ErrorIs(t, err, entity.ErrSourceNotFound)
	assert.Equal(t, 0, h.index.Len())
	assert.Empty(t, h.publisher.types())
}

func TestIngest_IndexFailureLeavesSourceUnprocessed(t *testing.T) {
	h := newIngestionHarness()
	id := h.seed(t, "u1", longText())
	h.index.down = true

	_, err := h.svc.Ingest(context.Background(), id)
	require.Error(t, err)
	assert.ErrorIs(t, err, vectorindex.ErrIndexUnavailable)

	stored := h.repo.get(id)
	assert.False(t, stored.Processed)
	assert.Contains(t, stored.LastError, "connection refused")
	assert.Equal(t, 0, h.index.Len())
	assert.Equal(t, []string{events.SourceIngestFailed}, h.publisher.types())
}

func TestIngest_NotFound(t *testing.T) {
	h := newIngestionHarness()

	_, err := h.svc.Ingest(context.Background(), uuid.New())
	assert.ErrorIs(t, err, entity.ErrSourceNotFound)
	assert.Empty(t, h.publisher.types())
}

func TestEnqueue_MarksPendingAndSendsJob(t *testing.T) {
	h := newIngestionHarness()
	id := h.seed(t, "u1", longText())
	_, err := h.svc.Ingest(context.Background(), id)
	require.NoError(t, err)

	require.NoError(t, h.svc.Enqueue(context.Background(), id))

	stored := h.repo.get(id)
	assert.False(t, stored.Processed)
	assert.Equal(t, 3, stored.ChunkCount)
	assert.Equal(t, []uuid.UUID{id}, h.queue.jobs)
}

func TestConsumer_AcksEveryMessage(t *testing.T) {
	h := newIngestionHarness()
	id := h.seed(t, "u1", longText())
	h.index.down = true

	cs := NewConsumerService(nil, "INGEST_SOURCE", h.svc, logger.NewNopLogger()).(*consumerService)

	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "failing run", payload: []byte(`{"source_id":"` + id.String() + `"}`)},
		{name: "unknown source", payload: []byte(`{"source_id":"` + uuid.NewString() + `"}`)},
		{name: "garbage", payload: []byte(`not json`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := message.NewMessage("m-"+tt.name, tt.payload)
			cs.processMessage(context.Background(), msg)

			select {
			case <-msg.Acked():
			default:
				t.Fatal("message was not acked")
			}
		})
	}

	assert.False(t, h.repo.get(id).Processed)
}

func TestPublisherService_SendsJobPayload(t *testing.T) {
	pub := &capturingWatermillPublisher{}
	svc := NewPublisherService("INGEST_SOURCE", pub)
	id := uuid.New()

	require.NoError(t, svc.SendIngestJob(context.Background(), id))

	require.Len(t, pub.messages, 1)
	assert.Equal(t, "INGEST_SOURCE", pub.topic)
	assert.JSONEq(t, `{"source_id":"`+id.String()+`"}`, string(pub.messages[0].Payload))
}

type capturingWatermillPublisher struct {
	topic    string
	messages []*message.Message
}

func (p *capturingWatermillPublisher) Publish(topic string, messages ...*message.Message) error {
	p.topic = topic
	p.messages = append(p.messages, messages...)
	return nil
}

func (p *capturingWatermillPublisher) Close() error { return nil }
