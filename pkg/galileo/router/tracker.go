package router

import (
	"bufio"
	"sync"
)

// tracker is the Go rendering of the Transmission Tracker (§3): a bounded
// FIFO of outbound framed payloads and a partial read-assembly buffer.
// It is exclusively owned by its connection's reader/writer goroutines
// while the connection is live; the writeQueue channel is the only
// field any other goroutine touches, and channels are safe for
// concurrent send/receive by construction.
type tracker struct {
	writeQueue chan []byte
	reader     *bufio.Reader
	closed     chan struct{}
	closeOnce  sync.Once
}

// Len reports the number of frames currently queued for write. tracker is
// unexported and no Router method returns it, so this occupancy count is
// available only inside the router package; SendMessage callers outside
// it cannot check it before sending.
func (t *tracker) Len() int {
	return len(t.writeQueue)
}

// Cap reports the write queue's capacity (maxWriteQueueSize).
func (t *tracker) Cap() int {
	return cap(t.writeQueue)
}
