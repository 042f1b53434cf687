package stats

import (
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// State is a connection's position in the proxy pipeline.
type State int32

const (
	StateNegotiating State = iota
	StateConnecting
	StateRelaying
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNegotiating:
		return "negotiating"
	case StateConnecting:
		return "connecting"
	case StateRelaying:
		return "relaying"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection is the live record of one accepted client socket. It is owned by
// the handler goroutine; the registry keeps a handle for monitoring and
// shutdown. Byte counters are append-only until the record leaves the
// registry.
type Connection struct {
	id         uint64
	clientAddr string
	startedAt  time.Time

	registry *Registry

	bytesIn  atomic.Uint64
	bytesOut atomic.Uint64
	state    atomic.Int32

	mu      sync.Mutex
	target  string
	closers []io.Closer
}

func (c *Connection) ID() uint64 {
	return c.id
}

func (c *Connection) ClientAddr() string {
	return c.clientAddr
}

func (c *Connection) State() State {
	return State(c.state.Load())
}

func (c *Connection) SetState(s State) {
	c.state.Store(int32(s))
}

func (c *Connection) Target() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *Connection) SetTarget(target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
}

// AddBytesIn records n bytes received from the tunnel/origin direction, on
// this record and on the process aggregates.
func (c *Connection) AddBytesIn(n int) {
	c.bytesIn.Add(uint64(n))
	c.registry.totalBytesIn.Add(uint64(n))
}

// AddBytesOut records n bytes sent toward the tunnel/origin direction.
func (c *Connection) AddBytesOut(n int) {
	c.bytesOut.Add(uint64(n))
	c.registry.totalBytesOut.Add(uint64(n))
}

// Attach registers a socket to be torn down with the connection.
func (c *Connection) Attach(closer io.Closer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, closer)
}

// Close closes every attached socket. Safe to call more than once and from
// shutdown concurrently with the handler.
func (c *Connection) Close() {
	c.mu.Lock()
	closers := c.closers
	c.closers = nil
	c.mu.Unlock()

	for _, closer := range closers {
		closer.Close()
	}
}

func (c *Connection) info() ConnectionInfo {
	return ConnectionInfo{
		ID:         c.id,
		ClientAddr: c.clientAddr,
		Target:     c.Target(),
		StartedAt:  c.startedAt.Unix(),
		BytesIn:    c.bytesIn.Load(),
		BytesOut:   c.bytesOut.Load(),
		State:      c.State().String(),
	}
}
