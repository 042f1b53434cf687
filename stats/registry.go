// Package stats is the process-wide connection registry: the data source
// behind the monitoring panel. Snapshots are cheap copies; nothing here may
// block a relay.
package stats

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WaenMax/jumptiger/connection"
	"github.com/WaenMax/jumptiger/manager"
)

// ConnectionInfo is the read-only view of one live connection.
type ConnectionInfo struct {
	ID         uint64 `json:"id"`
	ClientAddr string `json:"client_addr"`
	Target     string `json:"target"`
	StartedAt  int64  `json:"started_at"`
	BytesIn    uint64 `json:"bytes_in"`
	BytesOut   uint64 `json:"bytes_out"`
	State      string `json:"state"`
}

// Snapshot is a point-in-time copy of the registry.
type Snapshot struct {
	TotalConnections  uint64           `json:"total_connections"`
	ActiveConnections int              `json:"active_connections"`
	TotalBytesIn      uint64           `json:"total_bytes_in"`
	TotalBytesOut     uint64           `json:"total_bytes_out"`
	Uptime            int64            `json:"uptime"`
	Connections       []ConnectionInfo `json:"connections"`
}

// Registry tracks every live connection plus monotonic process aggregates.
type Registry struct {
	conns *manager.Manager[*Connection]

	totalConnections atomic.Uint64
	totalBytesIn     atomic.Uint64
	totalBytesOut    atomic.Uint64

	mu        sync.RWMutex
	startedAt time.Time
}

func New() *Registry {
	return &Registry{
		conns:     manager.New[*Connection](),
		startedAt: time.Now(),
	}
}

// Register admits a new client socket and returns its record in the
// negotiating state.
func (r *Registry) Register(clientAddr string) *Connection {
	c := &Connection{
		id:         connection.NextID(),
		clientAddr: clientAddr,
		startedAt:  time.Now(),
		registry:   r,
	}
	c.SetState(StateNegotiating)

	r.totalConnections.Add(1)
	r.conns.Set(strconv.FormatUint(c.id, 10), c)

	return c
}

// Unregister finishes a record's lifetime. The record leaves the registry and
// its counters freeze.
func (r *Registry) Unregister(c *Connection) {
	c.SetState(StateClosed)
	r.conns.Remove(strconv.FormatUint(c.id, 10))
}

// Active is the number of live connections.
func (r *Registry) Active() int {
	return r.conns.Size()
}

// Range calls f for every live connection.
func (r *Registry) Range(f func(*Connection)) {
	for _, id := range r.conns.Keys() {
		if c, err := r.conns.Get(id); err == nil {
			f(c)
		}
	}
}

// Snapshot copies the registry without holding any lock across the walk.
func (r *Registry) Snapshot() *Snapshot {
	r.mu.RLock()
	startedAt := r.startedAt
	r.mu.RUnlock()

	snapshot := &Snapshot{
		TotalConnections: r.totalConnections.Load(),
		TotalBytesIn:     r.totalBytesIn.Load(),
		TotalBytesOut:    r.totalBytesOut.Load(),
		Uptime:           int64(time.Since(startedAt).Seconds()),
		Connections:      []ConnectionInfo{},
	}

	r.Range(func(c *Connection) {
		snapshot.Connections = append(snapshot.Connections, c.info())
	})
	snapshot.ActiveConnections = len(snapshot.Connections)

	return snapshot
}

// Reset rewinds the aggregate counters and the uptime epoch. Live connections
// are untouched.
func (r *Registry) Reset() {
	r.totalConnections.Store(0)
	r.totalBytesIn.Store(0)
	r.totalBytesOut.Store(0)

	r.mu.Lock()
	r.startedAt = time.Now()
	r.mu.Unlock()
}

// CloseAll tears down every registered connection's sockets. Used by
// shutdown; handler goroutines observe the closed sockets and exit.
func (r *Registry) CloseAll() {
	r.Range(func(c *Connection) {
		c.SetState(StateClosing)
		c.Close()
	})
}
