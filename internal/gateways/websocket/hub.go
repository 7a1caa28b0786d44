package websocket

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"openchat/internal/transcript"
)

const (
	FrameAck    = "ack"
	FrameChange = "change"

	sendBuffer = 64
)

// Frame is the only server-to-client message shape on the socket.
type Frame struct {
	Type   string             `json:"type"`
	Tables []string           `json:"tables,omitempty"`
	Change *transcript.Change `json:"change,omitempty"`
}

type Client struct {
	hub    *Hub
	conn   ClientConn
	ID     string
	tables map[string]bool
	send   chan Frame
}

type ClientConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

func generateClientID() string {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "xxxxx"
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

func (c *Client) wants(table string) bool {
	return len(c.tables) == 0 || c.tables[table]
}

func (c *Client) tableList() []string {
	tables := make([]string, 0, len(c.tables))
	for t := range c.tables {
		tables = append(tables, t)
	}
	return tables
}

type Hub struct {
	clients     map[*Client]bool
	register    chan *Client
	unregister  chan *Client
	broadcast   chan transcript.Change
	done        chan struct{}
	known       map[string]bool
	connections atomic.Int64

	PingInterval time.Duration
	logger       *zap.SugaredLogger
}

// NewHub creates a hub that serves the given tables. With no tables every
// table name is accepted.
func NewHub(logger *zap.Logger, tables ...string) *Hub {
	known := make(map[string]bool, len(tables))
	for _, t := range tables {
		known[t] = true
	}
	return &Hub{
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		broadcast:    make(chan transcript.Change, 256),
		done:         make(chan struct{}),
		clients:      make(map[*Client]bool),
		known:        known,
		PingInterval: 30 * time.Second,
		logger:       logger.Sugar(),
	}
}

// Connections is the number of registered sockets.
func (h *Hub) Connections() int {
	return int(h.connections.Load())
}

// Broadcast queues a change for every interested client. It never blocks.
func (h *Hub) Broadcast(change transcript.Change) {
	select {
	case h.broadcast <- change:
	default:
		h.logger.Warnw("Broadcast queue full, change dropped", "table", change.Table, "type", change.Type)
	}
}

func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket Hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			h.logger.Info("WebSocket Hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.connections.Store(int64(len(h.clients)))
			// the ack is queued first so it precedes every change the client sees
			client.send <- Frame{Type: FrameAck, Tables: client.tableList()}
			h.logger.Infow("Client connected",
				"client_id", client.ID,
				"tables", client.tableList(),
				"clients_count", len(h.clients),
			)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Infow("Client disconnected",
					"client_id", client.ID,
					"clients_count", len(h.clients),
				)
			}

		case change := <-h.broadcast:
			for client := range h.clients {
				if !client.wants(change.Table) {
					continue
				}
				c := change
				select {
				case client.send <- Frame{Type: FrameChange, Change: &c}:
				default:
					h.drop(client)
					h.logger.Warnw("Slow client dropped", "client_id", client.ID)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.connections.Store(int64(len(h.clients)))
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
