package events

import "time"

const (
	SourceIngested     = "source.ingested"
	SourceIngestFailed = "source.ingest_failed"
)

func NewSourceIngested(sourceID, ownerID string, chunkCount int) BaseEvent {
	return BaseEvent{
		Type: SourceIngested,
		Data: map[string]interface{}{
			"source_id":   sourceID,
			"owner_id":    ownerID,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewSourceIngestFailed(sourceID, ownerID, reason string) BaseEvent {
	return BaseEvent{
		Type: SourceIngestFailed,
		Data: map[string]interface{}{
			"source_id": sourceID,
			"owner_id":  ownerID,
			"error":     reason,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// SourceStatus is the decoded form of either source event.
type SourceStatus struct {
	SourceID   string `json:"source_id"`
	OwnerID    string `json:"owner_id"`
	Processed  bool   `json:"processed"`
	ChunkCount int    `json:"chunk_count"`
	Error      string `json:"error,omitempty"`
}

func SourceStatusFrom(e Event) (SourceStatus, bool) {
	data := e.Payload()
	status := SourceStatus{
		SourceID: stringField(data, "source_id"),
		OwnerID:  stringField(data, "owner_id"),
	}
	switch e.EventType() {
	case SourceIngested:
		status.Processed = true
		// JSON numbers decode as float64.
		switch n := data["chunk_count"].(type) {
		case float64:
			status.ChunkCount = int(n)
		case int:
			status.ChunkCount = n
		}
	case SourceIngestFailed:
		status.Error = stringField(data, "error")
	default:
		return SourceStatus{}, false
	}
	return status, status.SourceID != ""
}

func stringField(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}
