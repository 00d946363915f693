package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// Attachment describes what a connection is bound to.
type Attachment struct {
	OwnerID   string
	SessionID string
	// Greeting, when set, is the first frame the connection receives.
	Greeting  []byte
	OnMessage func(data []byte)
}

// ServeWs attaches a connection to the hub and blocks until it closes.
func ServeWs(hub *Hub, c *websocket.Conn, a Attachment) {
	client := &Client{
		Hub:       hub,
		Conn:      c,
		OwnerID:   a.OwnerID,
		SessionID: a.SessionID,
		Send:      make(chan []byte, sendBuffer),
		OnMessage: a.OnMessage,
	}
	if a.Greeting != nil {
		client.Send <- a.Greeting
	}
	hub.Register(client)

	go client.writePump()
	client.readPump()
}
