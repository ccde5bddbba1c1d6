package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/htmlssg/htmlssg/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 50 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Outgoing messages buffered per client before it is dropped.
	clientBuffer = 16
)

// UpdateMessage is sent to connected browsers.
type UpdateMessage struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// client is one connected live reload browser tab.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans reload messages out to every connected browser.
type Hub struct {
	clients    map[*client]struct{}
	count      int
	countMutex sync.RWMutex
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	logger     logging.Logger
}

// NewHub creates a Hub. Call Run before serving connections.
func NewHub(logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, clientBuffer),
		done:       make(chan struct{}),
		logger:     logger.WithComponent("livereload"),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c, websocket.StatusGoingAway)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.setCount(len(h.clients))
			h.logger.Debug(ctx, "Client connected", "clients", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c, websocket.StatusNormalClosure)
				h.logger.Debug(ctx, "Client disconnected", "clients", len(h.clients))
			}

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Client's send channel is full
					h.drop(c, websocket.StatusPolicyViolation)
				}
			}
		}
	}
}

// drop must only be called from Run. The close handshake runs in the
// background so one slow peer cannot stall the hub.
func (h *Hub) drop(c *client, code websocket.StatusCode) {
	delete(h.clients, c)
	h.setCount(len(h.clients))
	close(c.send)
	go c.conn.Close(code, "")
}

func (h *Hub) setCount(n int) {
	h.countMutex.Lock()
	h.count = n
	h.countMutex.Unlock()
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.countMutex.RLock()
	defer h.countMutex.RUnlock()
	return h.count
}

// Broadcast queues msg for every client. It never blocks; when the queue is
// full the message is dropped, since a later reload supersedes it.
func (h *Hub) Broadcast(msg UpdateMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		payload = []byte(`{"type":"reload"}`)
	}

	select {
	case h.broadcast <- payload:
	case <-h.done:
	default:
		h.logger.Debug(context.Background(), "Broadcast queue full; dropping message", "type", msg.Type)
	}
}

// ServeHTTP upgrades the request and keeps the connection until the browser
// leaves or the hub stops.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !checkOrigin(r) {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost", "localhost:*", "127.0.0.1", "127.0.0.1:*", "[::1]", "[::1]:*"},
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "WebSocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	go c.writePump()
	c.readPump(r.Context())

	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// checkOrigin accepts browser origins served from this host or from a
// loopback address.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return false
	}
	if originURL.Host == r.Host {
		return true
	}

	switch originURL.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// readPump drains the connection so control frames are handled, and returns
// when the peer goes away.
func (c *client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

// writePump pumps messages to the websocket connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	ctx := context.Background()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.conn.CloseNow()
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.conn.CloseNow()
				return
			}
		}
	}
}
