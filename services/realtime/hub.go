package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// wsConn is the slice of *websocket.Conn the hub needs. Narrowed to an
// interface so tests can register fakes.
type wsConn interface {
	WriteJSON(v any) error
	Close() error
}

// Conn is one registered subscriber connection.
//
// Gorilla websockets allow a single concurrent writer, so all writes go
// through WriteJSON which serializes on a per-connection mutex.
type Conn struct {
	id string
	ws wsConn

	writeMu sync.Mutex
}

// NewConn wraps a websocket connection with a fresh identity.
func NewConn(ws wsConn) *Conn {
	return &Conn{id: uuid.New().String(), ws: ws}
}

// ID returns the connection's unique identity.
func (c *Conn) ID() string { return c.id }

// WriteJSON writes one JSON frame, serialized against concurrent writers.
func (c *Conn) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

// Close closes the underlying websocket.
func (c *Conn) Close() error { return c.ws.Close() }

// HubOptions configures liveness bookkeeping.
type HubOptions struct {
	// IdleTimeout is how long a connection may be silent before the
	// reaper force-disconnects it.
	IdleTimeout time.Duration

	// ReapInterval is how often the reaper wakes.
	ReapInterval time.Duration
}

// Hub tracks subscriber connections and broadcasts push messages.
//
// # Description
//
// Broadcast delivers to every connection registered at the moment the
// broadcast begins, concurrently and independently: one dead subscriber
// fails its own delivery and is removed without affecting the others. A
// background reaper closes connections idle past the configured
// threshold.
//
// # Thread Safety
//
// Safe for concurrent use. The connection map mutex is never held while
// writing to a socket.
type Hub struct {
	opts HubOptions

	mu      sync.Mutex
	conns   map[*Conn]time.Time // last activity per connection
	done    chan struct{}
	exited  chan struct{}
	reaping bool
}

// NewHub creates a hub. Call StartReaper to begin idle cleanup.
func NewHub(opts HubOptions) *Hub {
	return &Hub{
		opts:  opts,
		conns: make(map[*Conn]time.Time),
	}
}

// Add registers a connection and stamps its initial liveness.
func (h *Hub) Add(conn *Conn) {
	h.mu.Lock()
	h.conns[conn] = time.Now()
	n := len(h.conns)
	h.mu.Unlock()

	activeConnections.Set(float64(n))
	slog.Info("Subscriber connected", "conn", conn.ID(), "total", n)
}

// Remove unregisters a connection. Idempotent.
func (h *Hub) Remove(conn *Conn) {
	h.mu.Lock()
	_, present := h.conns[conn]
	delete(h.conns, conn)
	n := len(h.conns)
	h.mu.Unlock()

	if present {
		activeConnections.Set(float64(n))
		slog.Info("Subscriber disconnected", "conn", conn.ID(), "total", n)
	}
}

// Touch refreshes a connection's liveness timestamp. Heartbeats count.
func (h *Hub) Touch(conn *Conn) {
	h.mu.Lock()
	if _, ok := h.conns[conn]; ok {
		h.conns[conn] = time.Now()
	}
	h.mu.Unlock()
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast delivers msg to all currently registered connections,
// concurrently. A connection whose write fails is logged, closed, and
// removed; the failure is not visible to other deliveries or to the
// caller.
func (h *Hub) Broadcast(msg any) {
	h.mu.Lock()
	snapshot := make([]*Conn, 0, len(h.conns))
	for conn := range h.conns {
		snapshot = append(snapshot, conn)
	}
	h.mu.Unlock()

	if len(snapshot) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, conn := range snapshot {
		wg.Add(1)
		go func(conn *Conn) {
			defer wg.Done()
			if err := conn.WriteJSON(msg); err != nil {
				slog.Warn("Broadcast delivery failed, dropping connection",
					"conn", conn.ID(),
					"error", err)
				h.Remove(conn)
				conn.Close()
				return
			}
			h.Touch(conn)
		}(conn)
	}
	wg.Wait()

	broadcastsTotal.Inc()
}

// StartReaper launches the idle-connection reaper. No-op if already
// running.
func (h *Hub) StartReaper() {
	h.mu.Lock()
	if h.reaping {
		h.mu.Unlock()
		return
	}
	h.reaping = true
	h.done = make(chan struct{})
	h.exited = make(chan struct{})
	done, exited := h.done, h.exited
	h.mu.Unlock()

	go h.reapLoop(done, exited)
}

func (h *Hub) reapLoop(done, exited chan struct{}) {
	defer close(exited)

	ticker := time.NewTicker(h.opts.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			h.reapIdle()
		}
	}
}

// reapIdle force-disconnects connections silent past IdleTimeout.
func (h *Hub) reapIdle() {
	now := time.Now()

	h.mu.Lock()
	var stale []*Conn
	for conn, lastSeen := range h.conns {
		if now.Sub(lastSeen) > h.opts.IdleTimeout {
			stale = append(stale, conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range stale {
		slog.Warn("Reaping idle connection", "conn", conn.ID(), "idle_limit", h.opts.IdleTimeout)
		h.Remove(conn)
		conn.Close()
		reapedConnections.Inc()
	}
}

// StopReaper halts the reaper cooperatively. The reaper never runs a
// cycle after StopReaper returns. Safe to call multiple times.
func (h *Hub) StopReaper() {
	h.mu.Lock()
	if !h.reaping {
		h.mu.Unlock()
		return
	}
	h.reaping = false
	done, exited := h.done, h.exited
	h.mu.Unlock()

	close(done)
	<-exited
}
