package stream

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 16
)

// clientMessage is the inbound control message from a subscriber.
type clientMessage struct {
	Action string `json:"action"`
	Sport  string `json:"sport"`
}

// Client represents one websocket subscriber. A client with no sport filter
// receives every board.
type Client struct {
	ID string

	conn   *websocket.Conn
	send   chan ServerMessage
	hub    *Hub
	logger *logrus.Logger

	filterMu sync.RWMutex
	sports   map[string]bool
}

// NewClient creates a client for an upgraded connection.
func NewClient(id string, conn *websocket.Conn, hub *Hub, logger *logrus.Logger) *Client {
	return &Client{
		ID:     id,
		conn:   conn,
		send:   make(chan ServerMessage, sendBufferSize),
		hub:    hub,
		logger: logger,
		sports: make(map[string]bool),
	}
}

// WantsSport reports whether the client subscribed to the sport. An empty
// filter matches everything.
func (c *Client) WantsSport(sport string) bool {
	c.filterMu.RLock()
	defer c.filterMu.RUnlock()
	if len(c.sports) == 0 {
		return true
	}
	return c.sports[strings.ToUpper(sport)]
}

// trySend queues a message without blocking.
func (c *Client) trySend(message ServerMessage) bool {
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// ReadPump consumes subscribe/unsubscribe messages until the connection
// drops, then unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).WithField("client_id", c.ID).Debug("Stream client closed unexpectedly")
			}
			return
		}
		c.handleMessage(msg)
	}
}

// WritePump drains the send channel to the connection and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg clientMessage) {
	sport := strings.ToUpper(strings.TrimSpace(msg.Sport))

	c.filterMu.Lock()
	defer c.filterMu.Unlock()

	switch msg.Action {
	case "subscribe":
		if sport != "" {
			c.sports[sport] = true
		}
	case "unsubscribe":
		delete(c.sports, sport)
	}
}
