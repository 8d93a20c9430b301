package node

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/amilaSuriarachchi/galileo/pkg/galileo/query"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/reactor"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/router"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/wire"
)

// Node is the Storage Node Coordinator: one Message Router, one Event
// Reactor, one Query Tracker Table, and the handler registry binding
// them together (§4.4).
type Node struct {
	log types.Logger

	router  router.Router
	reactor *reactor.Reactor
	qtt     *query.Table

	fs          types.FS
	partitioner types.Partitioner
	network     types.NetworkInfo
	selector    types.TargetSelector

	queryDeadline time.Duration
	sweepInterval time.Duration
	poolSize      int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New assembles a Node from cfg. It does not start listening or
// dispatching — call Serve for that.
func New(cfg Config) (*Node, error) {
	cfg = cfg.withDefaults()
	if err := checkVersion(cfg.MinSupportedVersion); err != nil {
		return nil, err
	}

	sessionID, err := sessionIDFor(cfg.Listen)
	if err != nil {
		return nil, err
	}

	n := &Node{
		log:           cfg.Log,
		qtt:           query.NewTable(sessionID),
		fs:            cfg.FS,
		partitioner:   cfg.Partitioner,
		network:       cfg.Network,
		selector:      cfg.Selector,
		queryDeadline: cfg.QueryDeadline,
		sweepInterval: cfg.SweepInterval,
		poolSize:      cfg.PoolSize,
	}

	events := reactor.EventMap{
		types.StorageRequest: decodeStorageRequest,
		types.Storage:        decodeStorage,
		types.QueryRequest:   decodeQueryRequest,
		types.Query:          decodeQuery,
		types.QueryResponse:  decodeQueryResponse,
	}
	handlers := reactor.Registry{
		types.StorageRequest: n.handleStorageRequest,
		types.Storage:        n.handleStorage,
		types.QueryRequest:   n.handleQueryRequest,
		types.Query:          n.handleQuery,
		types.QueryResponse:  n.handleQueryResponse,
	}
	n.reactor = reactor.New(events, handlers, cfg.Log)

	n.router = router.NewDualRouter(cfg.Listen, cfg.MaxWriteQueueSize, cfg.Log)
	n.router.AddListener(n.reactor)

	return n, nil
}

// sessionIDFor derives the QTT's id prefix from the node's listening
// port (§3's "query id" definition: globally unique without
// coordination across nodes that each bind a distinct port).
func sessionIDFor(listen string) (string, error) {
	_, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "", err
	}
	return port, nil
}

// Serve starts the router, the reactor worker pool, and the QTT sweep
// goroutine, then blocks until ctx is cancelled.
func (n *Node) Serve(ctx context.Context) error {
	if err := n.router.Listen(); err != nil {
		return err
	}

	ctx, n.cancel = context.WithCancel(ctx)
	n.reactor.StartPool(ctx, n.poolSize)

	n.wg.Add(1)
	go n.sweepLoop(ctx)

	<-ctx.Done()
	n.reactor.Stop()
	n.router.Shutdown()
	n.wg.Wait()
	return ctx.Err()
}

// Shutdown cancels Serve's context and returns without waiting. Serve
// itself stops the reactor, the router and the sweep goroutine before it
// returns.
func (n *Node) Shutdown() {
	if n.cancel != nil {
		n.cancel()
	}
}

// Each decoder adapts a wire.Decode* (which returns its own concrete
// body type) to reactor.Decoder's interface{} return, so it can live in
// an EventMap alongside the others.
func decodeStorageRequest(body []byte) (interface{}, error) { return wire.DecodeStorageRequest(body) }
func decodeStorage(body []byte) (interface{}, error)        { return wire.DecodeStorage(body) }
func decodeQueryRequest(body []byte) (interface{}, error)   { return wire.DecodeQueryRequest(body) }
func decodeQuery(body []byte) (interface{}, error)          { return wire.DecodeQuery(body) }
func decodeQueryResponse(body []byte) (interface{}, error)  { return wire.DecodeQueryResponse(body) }
