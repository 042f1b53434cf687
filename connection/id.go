package connection

import "sync/atomic"

var lastID uint64

// NextID returns a connection id unique within the process lifetime.
func NextID() uint64 {
	return atomic.AddUint64(&lastID, 1)
}
