// Package router implements the Message Router (MR): a non-blocking,
// length-prefixed TCP transport maintaining persistent duplex connections
// to peers. The selector-based reactor loop of §4.1 is rendered as an
// owner goroutine confining the shared connection-bookkeeping maps, plus
// one reader and one writer goroutine per live connection — the
// collapsing Design Notes §9 explicitly sanctions, as long as those maps
// stay single-owner and frames from one peer stay in order.
package router

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/wire"
	"github.com/cockroachdb/errors"
)

// DefaultMaxWriteQueueSize is used when a caller passes <= 0.
const DefaultMaxWriteQueueSize = 256

var (
	// ErrConnectionClosed is returned by SendMessage/Reply when the
	// underlying connection has already gone away.
	ErrConnectionClosed = errors.New("router: connection closed")
)

// Listener receives fully-assembled frames from the router. It must not
// block — any work beyond a trivial hand-off belongs on the Event
// Reactor's queue (§4.2).
type Listener interface {
	OnMessage(msg types.GalileoMessage)
	OnDisconnect(dest types.NetworkDestination)
}

// Router is the contract §4.1 pins: Listen/SendMessage/Broadcast/
// AddListener/Shutdown/ForceShutdown. ServerRouter, ClientRouter, and
// DualRouter all satisfy it.
type Router interface {
	Listen() error
	SendMessage(dest types.NetworkDestination, tag types.EventType, body []byte) error
	Broadcast(dests []types.NetworkDestination, tag types.EventType, body []byte) error
	AddListener(l Listener)
	Shutdown()
	ForceShutdown()
}

// envelope kinds posted to the owner goroutine. Only cheap, non-blocking
// bookkeeping happens here — the potentially-blocking write-queue send
// happens on the caller's own goroutine, never the owner's, so one slow
// destination can never stall the router for every other destination.
type getTrackerEnvelope struct {
	dest types.NetworkDestination
	resp chan trackerOrError
}

type trackerOrError struct {
	tracker *tracker
	err     error
}

type registerAcceptedEnvelope struct {
	c *connection
}

type disconnectEnvelope struct {
	c *connection
}

type snapshotEnvelope struct {
	resp chan []*connection
}

// stopEnvelope is always the last envelope the owner goroutine ever
// processes, sent by Shutdown/ForceShutdown once every connection has
// been torn down.
type stopEnvelope struct{}

// engine is the one Message Router implementation shared by all three
// shapes. A ServerRouter only calls Listen; a ClientRouter only calls
// SendMessage/Broadcast; a DualRouter wraps one of each (see dual.go) —
// matching the source's three constructors over one engine.
type engine struct {
	log               types.Logger
	addr              string
	maxWriteQueueSize int

	listener net.Listener

	pending chan interface{}

	// destinationToConn is touched only by the owner goroutine, reached
	// exclusively through the pending channel — the reactor-confinement
	// approach Design Notes §9 prefers over a mutex.
	destinationToConn map[types.NetworkDestination]*connection
	conns             map[*connection]struct{}

	listenersMu sync.RWMutex
	listeners   []Listener

	wg         sync.WaitGroup
	shutdownCh chan struct{}
	closeOnce  sync.Once
}

func newEngine(addr string, maxWriteQueueSize int, log types.Logger) *engine {
	if maxWriteQueueSize <= 0 {
		maxWriteQueueSize = DefaultMaxWriteQueueSize
	}
	e := &engine{
		log:               log,
		addr:              addr,
		maxWriteQueueSize: maxWriteQueueSize,
		pending:           make(chan interface{}, 1024),
		destinationToConn: make(map[types.NetworkDestination]*connection),
		conns:             make(map[*connection]struct{}),
		shutdownCh:        make(chan struct{}),
	}
	e.wg.Add(1)
	go e.ownerLoop()
	return e
}

// AddListener registers l to receive every frame the engine assembles.
func (e *engine) AddListener(l Listener) {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()
	e.listeners = append(e.listeners, l)
}

func (e *engine) notifyMessage(msg types.GalileoMessage) {
	e.listenersMu.RLock()
	defer e.listenersMu.RUnlock()
	for _, l := range e.listeners {
		l.OnMessage(msg)
	}
}

func (e *engine) notifyDisconnect(dest types.NetworkDestination) {
	e.listenersMu.RLock()
	defer e.listenersMu.RUnlock()
	for _, l := range e.listeners {
		l.OnDisconnect(dest)
	}
}

// Listen starts the accept goroutine. Only meaningful for server-shaped
// engines.
func (e *engine) Listen() error {
	ln, err := net.Listen("tcp", e.addr)
	if err != nil {
		return errors.Wrap(err, "router: listen")
	}
	e.listener = ln
	e.wg.Add(1)
	go e.acceptLoop(ln)
	return nil
}

// Addr returns the listener's bound address, useful when addr was
// "host:0" and the OS picked an ephemeral port. Nil until Listen
// succeeds.
func (e *engine) Addr() net.Addr {
	if e.listener == nil {
		return nil
	}
	return e.listener.Addr()
}

func (e *engine) acceptLoop(ln net.Listener) {
	defer e.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-e.shutdownCh:
				return
			default:
				e.log.Warnf("router: accept failed on %s: %v", e.addr, err)
				return
			}
		}
		c := e.newConnection(conn, nil)
		e.startConnection(c)
	}
}

// SendMessage queues a frame for dest, lazily (re)connecting if needed.
// Blocks the caller — never the owner goroutine — when the destination's
// write queue is full, per §4.1's back-pressure contract.
func (e *engine) SendMessage(dest types.NetworkDestination, tag types.EventType, body []byte) error {
	frame := encodeFrame(tag, body)
	resp := make(chan trackerOrError, 1)
	e.pending <- getTrackerEnvelope{dest: dest, resp: resp}
	got := <-resp
	if got.err != nil {
		return got.err
	}
	select {
	case got.tracker.writeQueue <- frame:
		return nil
	case <-got.tracker.closed:
		return ErrConnectionClosed
	}
}

// Broadcast sends the same event to every destination independently.
func (e *engine) Broadcast(dests []types.NetworkDestination, tag types.EventType, body []byte) error {
	var firstErr error
	for _, dest := range dests {
		if err := e.SendMessage(dest, tag, body); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ownerLoop is the only goroutine allowed to touch destinationToConn and
// conns. It renders §4.1's "drain pending registrations" / "drain
// interest changes" steps as one channel of envelopes.
func (e *engine) ownerLoop() {
	defer e.wg.Done()
	for {
		switch v := (<-e.pending).(type) {
		case getTrackerEnvelope:
			e.handleGetTracker(v)
		case registerAcceptedEnvelope:
			e.conns[v.c] = struct{}{}
		case disconnectEnvelope:
			e.handleDisconnect(v.c)
		case snapshotEnvelope:
			out := make([]*connection, 0, len(e.conns))
			for c := range e.conns {
				out = append(out, c)
			}
			v.resp <- out
		case stopEnvelope:
			return
		}
	}
}

func (e *engine) handleGetTracker(req getTrackerEnvelope) {
	if c, ok := e.destinationToConn[req.dest]; ok {
		req.resp <- trackerOrError{tracker: c.tracker}
		return
	}

	select {
	case <-e.shutdownCh:
		req.resp <- trackerOrError{err: ErrConnectionClosed}
		return
	default:
	}

	c := e.newConnection(nil, &req.dest)
	e.destinationToConn[req.dest] = c
	e.conns[c] = struct{}{}
	req.resp <- trackerOrError{tracker: c.tracker}
	go e.dialAndServe(c)
}

func (e *engine) handleDisconnect(c *connection) {
	delete(e.conns, c)
	if c.dest != nil {
		if cur, ok := e.destinationToConn[*c.dest]; ok && cur == c {
			delete(e.destinationToConn, *c.dest)
		}
	}
}

func (e *engine) newConnection(conn net.Conn, dest *types.NetworkDestination) *connection {
	c := &connection{
		conn:   conn,
		dest:   dest,
		engine: e,
		tracker: &tracker{
			writeQueue: make(chan []byte, e.maxWriteQueueSize),
			closed:     make(chan struct{}),
		},
	}
	if conn != nil {
		c.tracker.reader = bufio.NewReader(conn)
	}
	return c
}

// dialAndServe performs the (potentially slow) outbound connect on its
// own goroutine, never on the owner's, then wires up the reader/writer
// pair. On failure it reports a disconnect and tears the placeholder
// down.
func (e *engine) dialAndServe(c *connection) {
	conn, err := net.Dial("tcp", c.dest.String())
	if err != nil {
		e.log.Warnf("router: dial %s failed: %v", c.dest, err)
		close(c.tracker.closed)
		e.pending <- disconnectEnvelope{c: c}
		e.notifyDisconnect(*c.dest)
		return
	}
	select {
	case <-c.tracker.closed:
		// disconnect(c) already ran while the dial was in flight (e.g. a
		// racing Shutdown/ForceShutdown) and found c.conn nil, so it
		// closed nothing. The socket we just opened would otherwise
		// never be closed and its reader would block in ReadFrame
		// forever; close it here instead of starting the connection.
		conn.Close()
		return
	default:
	}
	c.conn = conn
	c.tracker.reader = bufio.NewReader(conn)
	e.startConnection(c)
}

func (e *engine) startConnection(c *connection) {
	if c.dest == nil {
		e.registerAccepted(c)
	}
	e.wg.Add(2)
	go e.readerLoop(c)
	go e.writerLoop(c)
}

func (e *engine) registerAccepted(c *connection) {
	e.pending <- registerAcceptedEnvelope{c: c}
}

func (e *engine) readerLoop(c *connection) {
	defer e.wg.Done()
	defer e.disconnect(c)
	for {
		payload, err := wire.ReadFrame(c.tracker.reader)
		if err != nil {
			return
		}
		e.notifyMessage(types.GalileoMessage{Body: payload, Conn: connHandle{c: c}})
	}
}

func (e *engine) writerLoop(c *connection) {
	defer e.wg.Done()
	for {
		select {
		case frame, ok := <-c.tracker.writeQueue:
			if !ok {
				return
			}
			if err := wire.WriteFrame(c.conn, frame); err != nil {
				e.log.Warnf("router: write to %s failed: %v", c.peerString(), err)
				e.disconnect(c)
				return
			}
		case <-c.tracker.closed:
			return
		}
	}
}

func (e *engine) disconnect(c *connection) {
	c.tracker.closeOnce.Do(func() {
		close(c.tracker.closed)
		if c.conn != nil {
			c.conn.Close()
		}
		e.pending <- disconnectEnvelope{c: c}
		if c.dest != nil {
			e.notifyDisconnect(*c.dest)
		}
	})
}

func encodeFrame(tag types.EventType, body []byte) []byte {
	return wire.EncodeContainer(types.EventContainer{Tag: tag, Body: body})
}

func (e *engine) snapshot() []*connection {
	resp := make(chan []*connection, 1)
	e.pending <- snapshotEnvelope{resp: resp}
	return <-resp
}

// Shutdown drains every connection's write queue with the escalating
// wait described in §4.1 (1s, 2s, ... capped at 5s) before closing the
// socket, then waits for every goroutine to exit.
func (e *engine) Shutdown() {
	e.closeOnce.Do(func() {
		close(e.shutdownCh)
		if e.listener != nil {
			e.listener.Close()
		}
	})
	for _, c := range e.snapshot() {
		wait := time.Second
		for {
			select {
			case <-c.tracker.closed:
				wait = 0
			default:
			}
			if wait == 0 || len(c.tracker.writeQueue) == 0 {
				break
			}
			time.Sleep(wait)
			if wait < 5*time.Second {
				wait += time.Second
			}
		}
		e.disconnect(c)
	}
	e.pending <- stopEnvelope{}
	e.wg.Wait()
}

// ForceShutdown discards every pending write queue and closes every
// connection immediately. Callers must not invoke SendMessage
// concurrently with Shutdown/ForceShutdown: the contract is that the
// router is quiescing, not serving new traffic.
func (e *engine) ForceShutdown() {
	e.closeOnce.Do(func() {
		close(e.shutdownCh)
		if e.listener != nil {
			e.listener.Close()
		}
	})
	for _, c := range e.snapshot() {
		e.disconnect(c)
	}
	e.pending <- stopEnvelope{}
	e.wg.Wait()
}
