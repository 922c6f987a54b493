// Package monitor exposes the body unit's observability surface: a small
// HTTP server with health, state and metrics endpoints, and a websocket
// hub pushing device state snapshots to connected observers. It never
// mutates device state.
package monitor

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shaveenudayanga/lumina/internal/device"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Observers come from the local network; same trust model as the
		// UDP command channel.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of connected observers and fans device state
// snapshots out to them.
type Hub struct {
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan device.Snapshot

	latest atomic.Pointer[device.Snapshot]

	logger *zap.Logger
}

// NewHub creates a monitor hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan device.Snapshot, 8),
		logger:     logger,
	}
}

// Run starts the hub's main loop. Runs on its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Info("observer connected", zap.Int("observers", len(h.clients)))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.logger.Info("observer disconnected", zap.Int("observers", len(h.clients)))

		case snap := <-h.broadcast:
			payload, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					// Slow observer: drop it rather than stall the hub.
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Publish records the latest snapshot and broadcasts it. Never blocks the
// caller; an overloaded hub drops intermediate snapshots.
func (h *Hub) Publish(snap device.Snapshot) {
	h.latest.Store(&snap)
	select {
	case h.broadcast <- snap:
	default:
	}
}

// Latest returns the most recently published snapshot.
func (h *Hub) Latest() device.Snapshot {
	if s := h.latest.Load(); s != nil {
		return *s
	}
	return device.Snapshot{}
}

// client is a middleman between one websocket connection and the hub.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// HandleWebSocket upgrades the request and registers an observer.
func HandleWebSocket(h *Hub, c echo.Context, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("websocket upgrade failed", zap.Error(err))
		return err
	}

	cl := &client{hub: h, conn: conn, send: make(chan []byte, 16)}
	h.register <- cl

	go cl.writePump()
	go cl.readPump()
	return nil
}

// readPump drains inbound frames; observers never send commands, but the
// read loop is what notices a dropped connection.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
