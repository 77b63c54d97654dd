package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dicekv/dicekv/pkg/types"
	"github.com/dicekv/dicekv/server/internal/api"
	"github.com/dicekv/dicekv/server/internal/store"
)

const (
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10 // must be below pongWait
	sendBufSize  = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans record snapshots out to every connected client.
type Hub struct {
	store *store.Store

	mu       sync.RWMutex
	clients  map[*client]struct{}
	interval time.Duration
	stopped  bool

	notify chan struct{}
	reset  chan struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub that reads from st and broadcasts every interval.
func New(st *store.Store, interval time.Duration) *Hub {
	return &Hub{
		store:    st,
		clients:  make(map[*client]struct{}),
		interval: interval,
		notify:   make(chan struct{}, 1),
		reset:    make(chan struct{}, 1),
	}
}

// Run broadcasts on every tick and on every Notify until ctx is cancelled,
// then closes all connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.Interval())
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.broadcast()
		case <-h.notify:
			h.broadcast()
		case <-h.reset:
			t.Reset(h.Interval())
		}
	}
}

// Notify requests an out-of-band broadcast. It never blocks; notifications
// arriving while one is pending are coalesced.
func (h *Hub) Notify() {
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// Interval returns the current broadcast interval.
func (h *Hub) Interval() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.interval
}

// SetInterval changes the broadcast interval of a running hub.
func (h *Hub) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	h.mu.Lock()
	changed := d != h.interval
	h.interval = d
	h.mu.Unlock()
	if !changed {
		return
	}
	select {
	case h.reset <- struct{}{}:
	default:
	}
}

// ServeHTTP upgrades the connection, sends the current snapshot and then
// streams broadcasts until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return // upgrader already replied
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufSize)}
	if data, err := h.message(); err == nil {
		c.send <- data // queued before register so shutdown cannot race it
	}
	if !h.register(c) {
		conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeTimeout))
		conn.Close()
		return
	}
	defer h.unregister(c)

	go c.writePump()
	c.readPump()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// register adds c to the broadcast set. It refuses once Run has stopped.
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	slog.Debug("ws: client connected", "remote", c.conn.RemoteAddr().String(), "clients", n)
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		slog.Debug("ws: client disconnected", "remote", c.conn.RemoteAddr().String(), "clients", n)
	}
}

func (h *Hub) broadcast() {
	data, err := h.message()
	if err != nil {
		slog.Error("ws: encode snapshot", "error", err)
		return
	}

	// Sends happen under the read lock: unregister closes send channels
	// only while holding the write lock.
	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("ws: dropping slow client", "remote", c.conn.RemoteAddr().String())
		h.unregister(c)
	}
}

func (h *Hub) message() ([]byte, error) {
	return json.Marshal(types.StreamMessage{
		Event: "snapshot",
		Data:  api.BuildSnapshot(h.store),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump forwards queued messages and keeps the connection alive with
// pings. A closed send channel ends the connection with a close frame.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames and returns once the peer disconnects.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
