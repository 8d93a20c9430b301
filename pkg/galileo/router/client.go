package router

import "github.com/amilaSuriarachchi/galileo/pkg/galileo/types"

// ClientRouter is the dial-only MR shape: it never listens, only
// lazily connects to destinations on SendMessage/Broadcast.
type ClientRouter struct {
	*engine
}

// NewClientRouter builds a router with no bound listen address.
func NewClientRouter(maxWriteQueueSize int, log types.Logger) *ClientRouter {
	return &ClientRouter{engine: newEngine("", maxWriteQueueSize, log)}
}

// Listen is a no-op for a client-shaped router: there is nothing to
// accept. It returns nil so a ClientRouter still satisfies Router.
func (c *ClientRouter) Listen() error {
	return nil
}
