// Package broadcast pushes status frames produced by the control loop to
// live observers.
package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pet_feeder/internal/engine"
	"pet_feeder/internal/logger"
	"pet_feeder/internal/models"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMsgSize     = 1 << 12 // 4 KB
	clientBuffer   = 16
	maxSlowFrames  = 32 // dropped frames in a row before a client is evicted
	defaultCleanup = 10 * time.Second
)

// envelope is the wire format of every websocket message.
type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	misses int // guarded by Hub.mu
}

// Hub fans status frames out to websocket clients. Broadcast never blocks:
// a client whose buffer is full misses the frame.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	snapshot func() models.MachineStatus
	log      *logger.Logger
}

var _ engine.StatusPublisher = (*Hub)(nil)

// NewHub builds a hub. snapshot, when set, provides the status sent to a
// client right after it connects.
func NewHub(snapshot func() models.MachineStatus, log *logger.Logger) *Hub {
	return &Hub{
		clients:  make(map[*client]struct{}),
		snapshot: snapshot,
		log:      log,
	}
}

// Clients returns the number of connected observers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(frame models.StatusFrame) {
	msg, err := json.Marshal(envelope{Type: "status", Data: frame})
	if err != nil {
		h.log.Errorw("ws_marshal_failed", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
			c.misses = 0
		default:
			c.misses++
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// ServeWS upgrades the request and streams frames until the peer leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c := &client{conn: conn, send: make(chan []byte, clientBuffer), done: make(chan struct{})}
	go h.startReader(c)

	if h.snapshot != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(envelope{Type: "status", Data: models.StatusFrame{Status: h.snapshot()}}); err != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
			return
		}
	}

	h.register(c)
	defer h.unregister(c)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.log.Infow("ws_ping_failed", "err", err)
				return
			}
		case msg := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Infow("ws_write_failed", "err", err)
				return
			}
		}
	}
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Hub) startReader(c *client) {
	defer close(c.done)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.log.Debugw("ws_read_closed", "err", err)
			return
		}
	}
}

// RunCleanup evicts closed and persistently slow clients every interval
// until ctx is cancelled, then closes every remaining connection.
func (h *Hub) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultCleanup
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			if n := h.cleanup(); n > 0 {
				h.log.Infow("ws_clients_evicted", "count", n)
			}
		}
	}
}

func (h *Hub) cleanup() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	evicted := 0
	for c := range h.clients {
		closed := false
		select {
		case <-c.done:
			closed = true
		default:
		}
		if closed || c.misses >= maxSlowFrames {
			delete(h.clients, c)
			_ = c.conn.Close()
			evicted++
		}
	}
	return evicted
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
			time.Now().Add(time.Second))
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}
