package router

import "github.com/amilaSuriarachchi/galileo/pkg/galileo/types"

// DualRouter is both a server and a client, with independent goroutines
// for their read and write sides (§4.1's "dual" shape).
//
// Resolves the Open Question on the empty DualMessageRouter constructors
// in the source: this rendering instantiates two wholly separate engine
// instances — one server-shaped, one client-shaped — rather than one
// engine wearing both hats. They share nothing: a frame accepted by the
// server engine and a frame sent by the client engine never touch the
// same destination/connection maps. A Listener registered via AddListener
// is attached to both, so it sees inbound frames from either side.
type DualRouter struct {
	Server *ServerRouter
	Client *ClientRouter
}

// NewDualRouter builds a DualRouter listening on addr for inbound
// connections while dialing out independently for SendMessage/Broadcast.
func NewDualRouter(addr string, maxWriteQueueSize int, log types.Logger) *DualRouter {
	return &DualRouter{
		Server: NewServerRouter(addr, maxWriteQueueSize, log),
		Client: NewClientRouter(maxWriteQueueSize, log),
	}
}

func (d *DualRouter) Listen() error {
	return d.Server.Listen()
}

func (d *DualRouter) SendMessage(dest types.NetworkDestination, tag types.EventType, body []byte) error {
	return d.Client.SendMessage(dest, tag, body)
}

func (d *DualRouter) Broadcast(dests []types.NetworkDestination, tag types.EventType, body []byte) error {
	return d.Client.Broadcast(dests, tag, body)
}

func (d *DualRouter) AddListener(l Listener) {
	d.Server.AddListener(l)
	d.Client.AddListener(l)
}

func (d *DualRouter) Shutdown() {
	d.Server.Shutdown()
	d.Client.Shutdown()
}

func (d *DualRouter) ForceShutdown() {
	d.Server.ForceShutdown()
	d.Client.ForceShutdown()
}
