// Package stream pushes refreshed boards to websocket subscribers.
package stream

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
)

const broadcastBuffer = 64

// BoardUpdate is one refreshed board pushed to subscribers.
type BoardUpdate struct {
	Sport   string                   `json:"sport"`
	Scope   string                   `json:"scope"`
	Results []models.EvaluatedMarket `json:"results"`
}

// ServerMessage is the envelope written to clients.
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts board updates to
// them. All client set mutation happens on the Run goroutine.
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan BoardUpdate
	register   chan *Client
	unregister chan *Client

	logger *logrus.Logger
}

// NewHub creates a new hub
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan BoardUpdate, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run starts the hub's main loop and blocks until the context is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case update := <-h.broadcast:
			h.broadcastUpdate(update)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// Broadcast queues a board update for all subscribed clients. A full buffer
// drops the update; the next refresh supersedes it anyway.
func (h *Hub) Broadcast(update BoardUpdate) {
	select {
	case h.broadcast <- update:
	default:
		h.logger.WithField("sport", update.Sport).Warn("Broadcast buffer full, dropping board update")
	}
}

// ClientCount returns the number of active clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	metrics.StreamClients.Set(float64(len(h.clients)))
	h.logger.WithFields(logrus.Fields{
		"client_id": c.ID,
		"clients":   len(h.clients),
	}).Info("Stream client connected")
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		metrics.StreamClients.Set(float64(len(h.clients)))
		h.logger.WithFields(logrus.Fields{
			"client_id": c.ID,
			"clients":   len(h.clients),
		}).Info("Stream client disconnected")
	}
}

func (h *Hub) broadcastUpdate(update BoardUpdate) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := ServerMessage{
		Type:      "board_update",
		Payload:   update,
		Timestamp: time.Now().UTC(),
	}

	for _, c := range clients {
		if !c.WantsSport(update.Sport) {
			continue
		}
		if !c.trySend(message) {
			// Slow client: its buffer is full, cut it loose rather than
			// stall the broadcast.
			h.logger.WithField("client_id", c.ID).Warn("Stream client too slow, disconnecting")
			go h.Unregister(c)
		}
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.StreamClients.Set(0)
}
