package router

import (
	"net"

	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
)

// connection bundles a live (or being-dialed) socket with its tracker and
// the destination it was dialed for, if any. Accepted connections have a
// nil dest — they aren't subject to the client-side "exactly one
// connection per destination" invariant, only dialed ones are.
type connection struct {
	conn    net.Conn
	dest    *types.NetworkDestination
	tracker *tracker
	engine  *engine
}

func (c *connection) peerString() string {
	if c.dest != nil {
		return c.dest.String()
	}
	if c.conn != nil {
		return c.conn.RemoteAddr().String()
	}
	return "unknown"
}

// connHandle is the concrete types.ConnHandle the router hands to every
// GalileoMessage: enough to reply over the exact connection a request
// arrived on, without ever touching the destination maps.
type connHandle struct {
	c *connection
}

func (h connHandle) Reply(tag types.EventType, body []byte) error {
	return h.c.engine.replyOn(h.c, tag, body)
}

func (h connHandle) Peer() string {
	return h.c.peerString()
}

func (h connHandle) Destination() (types.NetworkDestination, bool) {
	if h.c.dest == nil {
		return types.NetworkDestination{}, false
	}
	return *h.c.dest, true
}

func (e *engine) replyOn(c *connection, tag types.EventType, body []byte) error {
	frame := encodeFrame(tag, body)
	select {
	case c.tracker.writeQueue <- frame:
		return nil
	case <-c.tracker.closed:
		return ErrConnectionClosed
	}
}
