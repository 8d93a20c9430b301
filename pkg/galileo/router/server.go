package router

import "github.com/amilaSuriarachchi/galileo/pkg/galileo/types"

// ServerRouter is the accept-only MR shape: it listens and delivers
// inbound frames to its listeners, replying over the connection a
// request arrived on. It embeds the shared engine, so it technically
// also exposes SendMessage/Broadcast — nothing in the protocol forbids a
// server-shaped router from also dialing out, but a node that wants a
// true dual shape should use NewDualRouter instead (see the Open
// Question resolution in SPEC_FULL.md §9).
type ServerRouter struct {
	*engine
}

// NewServerRouter builds a router bound to addr. Listen() must be called
// explicitly to start accepting, matching §4.1's "listen() (server side
// starts accepting)".
func NewServerRouter(addr string, maxWriteQueueSize int, log types.Logger) *ServerRouter {
	return &ServerRouter{engine: newEngine(addr, maxWriteQueueSize, log)}
}
