package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_SourceIngested(t *testing.T) {
	raw, err := Encode(NewSourceIngested("src", "owner", 3))
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, SourceIngested, decoded.EventType())

	status, ok := SourceStatusFrom(decoded)
	require.True(t, ok)
	assert.Equal(t, SourceStatus{SourceID: "src", OwnerID: "owner", Processed: true, ChunkCount: 3}, status)
}

func TestSourceStatusFrom(t *testing.T) {
	tests := []struct {
		name   string
		event  Event
		want   SourceStatus
		wantOk bool
	}{
		{
			name:   "failed",
			event:  NewSourceIngestFailed("src", "owner", "vector index unavailable"),
			want:   SourceStatus{SourceID: "src", OwnerID: "owner", Error: "vector index unavailable"},
			wantOk: true,
		},
		{
			name:  "unknown type",
			event: BaseEvent{Type: "other", Data: map[string]interface{}{"source_id": "x"}},
		},
		{
			name:  "missing source id",
			event: BaseEvent{Type: SourceIngested, Data: map[string]interface{}{}},
			want:  SourceStatus{Processed: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SourceStatusFrom(tt.event)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"data":{}}`))
	assert.Error(t, err)
}
