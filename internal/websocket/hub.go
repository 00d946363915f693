package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-ghostwriter-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "cluster_events"

// clusterMessage is what instances exchange over Redis. Origin lets an instance
// skip its own publications, which it has already delivered locally.
type clusterMessage struct {
	Origin        string          `json:"origin"`
	TargetOwnerID string          `json:"target_owner_id"`
	Message       json.RawMessage `json:"message"`
}

type Hub struct {
	// Registered clients: OwnerID -> connections (multi-device)
	owners map[string]map[*Client]bool

	// The connection currently attached to each editor session.
	sessions map[string]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance owner fan-out. Editor session
	// traffic never leaves the instance holding the session.
	rdb        *redis.Client
	instanceID string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		owners:     make(map[string]map[*Client]bool),
		sessions:   make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.owners[client.OwnerID] == nil {
				h.owners[client.OwnerID] = make(map[*Client]bool)
			}
			h.owners[client.OwnerID][client] = true
			if client.SessionID != "" {
				if prev, ok := h.sessions[client.SessionID]; ok && prev != client {
					h.logger.Info("Hub", "Session taken over by new connection", map[string]interface{}{"session_id": client.SessionID})
				}
				h.sessions[client.SessionID] = client
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"owner_id":   client.OwnerID,
				"session_id": client.SessionID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Register(client *Client)   { h.register <- client }
func (h *Hub) Unregister(client *Client) { h.unregister <- client }

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.owners[client.OwnerID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.owners, client.OwnerID)
		h.logger.Info("Hub", "Owner completely unregistered", map[string]interface{}{"owner_id": client.OwnerID})
	}
	if h.sessions[client.SessionID] == client {
		delete(h.sessions, client.SessionID)
	}
	close(client.Send)
}

// OwnerConnections reports how many local connections an owner has.
func (h *Hub) OwnerConnections(ownerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.owners[ownerID])
}

// SendToSession delivers to the connection attached to an editor session on
// this instance. It never blocks and reports whether a connection took the
// message.
func (h *Hub) SendToSession(sessionID string, message []byte) bool {
	h.mu.RLock()
	client, ok := h.sessions[sessionID]
	delivered := ok && h.deliverLocked(client, message)
	h.mu.RUnlock()
	return delivered
}

// SendToOwner delivers to every connection of an owner, here and on other
// instances.
func (h *Hub) SendToOwner(ownerID string, message []byte) {
	h.sendLocal(ownerID, message)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{
			Origin:        h.instanceID,
			TargetOwnerID: ownerID,
			Message:       message,
		})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) sendLocal(ownerID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.owners[ownerID] {
		h.deliverLocked(client, message)
	}
}

// deliverLocked needs at least the read lock. A client whose buffer is full is
// dropped; the unregister is handed off so the lock is never held across it.
func (h *Hub) deliverLocked(client *Client, message []byte) bool {
	select {
	case client.Send <- message:
		return true
	default:
		h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{
			"owner_id":   client.OwnerID,
			"session_id": client.SessionID,
		})
		go func() { h.unregister <- client }()
		return false
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleClusterMessage([]byte(msg.Payload))
		}
	}
}

func (h *Hub) handleClusterMessage(raw []byte) {
	var payload clusterMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
		return
	}
	if payload.Origin == h.instanceID || payload.TargetOwnerID == "" {
		return
	}
	h.sendLocal(payload.TargetOwnerID, payload.Message)
}
