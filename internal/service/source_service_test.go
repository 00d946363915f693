package service

import (
	"context"
	"testing"

	"ai-ghostwriter-be/internal/dto"
	"ai-ghostwriter-be/internal/entity"
	"ai-ghostwriter-be/internal/pkg/logger"
	"ai-ghostwriter-be/pkg/events"
	"ai-ghostwriter-be/pkg/vectorindex"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSourceHarness() (ISourceService, *ingestionHarness) {
	h := newIngestionHarness()
	factory := &fakeRepositoryFactory{uow: &fakeUnitOfWork{sources: h.repo}}
	return NewSourceService(factory, h.svc, h.index, logger.NewNopLogger()), h
}

func TestSourceService_CreateEnqueues(t *testing.T) {
	svc, h := newSourceHarness()

	res, err := svc.Create(context.Background(), "u1", &dto.CreateSourceRequest{Title: "Notes", Text: "some text"})
	require.NoError(t, err)

	assert.False(t, res.Processed)
	assert.Equal(t, []uuid.UUID{res.Id}, h.queue.jobs)
	assert.Equal(t, "u1", h.repo.get(res.Id).OwnerId)
}

func TestSourceService_OwnerScoping(t *testing.T) {
	svc, h := newSourceHarness()
	id := h.seed(t, "u1", "private")

	_, err := svc.Show(context.Background(), "u2", id)
	assert.ErrorIs(t, err, entity.ErrSourceNotFound)

	err = svc.Delete(context.Background(), "u2", id)
	assert.ErrorIs(t, err, entity.ErrSourceNotFound)

	list, err := svc.List(context.Background(), "u2", &dto.ListSourcesRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
	assert.Zero(t, list.Total)

	shown, err := svc.Show(context.Background(), "u1", id)
	require.NoError(t, err)
	assert.Equal(t, "private", shown.Text)
}

func TestSourceService_UpdateReingests(t *testing.T) {
	svc, h := newSourceHarness()
	id := h.seed(t, "u1", longText())
	_, err := h.svc.Ingest(context.Background(), id)
	require.NoError(t, err)

	res, err := svc.Update(context.Background(), "u1", &dto.UpdateSourceRequest{Id: id, Title: "v2", Text: "rewritten"})
	require.NoError(t, err)

	assert.False(t, res.Processed)
	assert.Equal(t, "rewritten", h.repo.get(id).Text)
	assert.Equal(t, []uuid.UUID{id}, h.queue.jobs)
}

func TestSourceService_DeleteRemovesChunks(t *testing.T) {
	svc, h := newSourceHarness()
	id := h.seed(t, "u1", longText())
	_, err := h.svc.Ingest(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, 3, h.index.Len())

	require.NoError(t, svc.Delete(context.Background(), "u1", id))

	assert.Equal(t, 0, h.index.Len())
	_, err = svc.Show(context.Background(), "u1", id)
	assert.ErrorIs(t, err, entity.ErrSourceNotFound)
}

func TestSourceService_OwnedSourceIDs(t *testing.T) {
	svc, h := newSourceHarness()
	mine := h.seed(t, "u1", "a")
	theirs := h.seed(t, "u2", "b")

	tests := []struct {
		name string
		ids  []string
		want []string
	}{
		{name: "owned kept", ids: []string{mine.String()}, want: []string{mine.String()}},
		{name: "foreign dropped", ids: []string{theirs.String(), mine.String()}, want: []string{mine.String()}},
		{name: "unparseable dropped", ids: []string{"nope"}, want: []string{}},
		{name: "empty", ids: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.OwnedSourceIDs(context.Background(), "u1", tt.ids)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type recordingDelivery struct {
	owners   []string
	messages [][]byte
}

func (d *recordingDelivery) SendToOwner(ownerID string, message []byte) {
	d.owners = append(d.owners, ownerID)
	d.messages = append(d.messages, message)
}

func TestSourceStatusNotifier_HandleEvent(t *testing.T) {
	tests := []struct {
		name      string
		event     events.Event
		wantOwner string
		wantJSON  string
	}{
		{
			name:      "ingested",
			event:     events.NewSourceIngested("s1", "u1", 3),
			wantOwner: "u1",
			wantJSON:  `{"type":"source_status","data":{"source_id":"s1","owner_id":"u1","processed":true,"chunk_count":3}}`,
		},
		{
			name:      "failed",
			event:     events.NewSourceIngestFailed("s1", "u1", "boom"),
			wantOwner: "u1",
			wantJSON:  `{"type":"source_status","data":{"source_id":"s1","owner_id":"u1","processed":false,"chunk_count":0,"error":"boom"}}`,
		},
		{
			name:  "unrelated",
			event: events.BaseEvent{Type: "note.created", Data: map[string]interface{}{"source_id": "s1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delivery := &recordingDelivery{}
			notifier := NewSourceStatusNotifier(nil, delivery, logger.NewNopLogger())

			require.NoError(t, notifier.handleEvent(context.Background(), tt.event))

			if tt.wantOwner == "" {
				assert.Empty(t, delivery.owners)
				return
			}
			require.Len(t, delivery.messages, 1)
			assert.Equal(t, tt.wantOwner, delivery.owners[0])
			assert.JSONEq(t, tt.wantJSON, string(delivery.messages[0]))
		})
	}
}

var _ vectorindex.Index = (*flakyIndex)(nil)

func TestSourceService_ListFiltersByProcessed(t *testing.T) {
	svc, h := newSourceHarness()
	done := h.seed(t, "u1", "ready")
	h.seed(t, "u1", "pending")
	_, err := h.svc.Ingest(context.Background(), done)
	require.NoError(t, err)

	processed := true
	list, err := svc.List(context.Background(), "u1", &dto.ListSourcesRequest{Processed: &processed})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, done, list.Items[0].Id)
	assert.Equal(t, int64(1), list.Total)

	all, err := svc.List(context.Background(), "u1", &dto.ListSourcesRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	assert.Equal(t, int64(2), all.Total)
}
