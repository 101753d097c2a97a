package chat

import (
	"sync"
)

const sendBuffer = 64

// Conn is the outbound side of one websocket: a bounded queue drained by the
// connection's writer goroutine.
type Conn struct {
	UserID string

	send chan []byte
	done chan struct{}
	once sync.Once
}

func NewConn(userID string) *Conn {
	return &Conn{
		UserID: userID,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// Reply queues a frame for the sender, waiting for room if the queue is full.
// Returns false once the connection is closed.
func (c *Conn) Reply(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	case <-c.done:
		return false
	}
}

// Push queues a frame without waiting. A full queue drops the frame.
func (c *Conn) Push(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Send is drained by the writer.
func (c *Conn) Send() <-chan []byte { return c.send }

// Done is closed when the connection is shut down.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Close is idempotent.
func (c *Conn) Close() {
	c.once.Do(func() { close(c.done) })
}

// Registry maps user ids to their live connection. One connection per user;
// a newer connection replaces the older one.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Conn)}
}

// Register stores c and closes the connection it replaces, if any.
func (r *Registry) Register(c *Conn) {
	r.mu.Lock()
	old := r.conns[c.UserID]
	r.conns[c.UserID] = c
	r.mu.Unlock()

	if old != nil && old != c {
		old.Close()
	}
}

// Deregister removes c, but only if it is still the registered connection.
func (r *Registry) Deregister(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[c.UserID] == c {
		delete(r.conns, c.UserID)
	}
}

func (r *Registry) Get(userID string) *Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conns[userID]
}

// Push delivers frame to userID if connected. Best effort.
func (r *Registry) Push(userID string, frame []byte) bool {
	c := r.Get(userID)
	if c == nil {
		return false
	}
	return c.Push(frame)
}

// Len returns the number of connected users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
