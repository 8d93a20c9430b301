// Package reactor implements the Event Reactor (ER): it takes framed
// payloads handed off by the Message Router, decodes each to a typed
// event via the registered EventMap, and dispatches it to the handler
// registered for its tag. Two scheduling modes are offered, matching
// §4.2: single-threaded cooperative, and a fixed worker pool sharing one
// intake queue.
package reactor

import (
	"context"
	"sync"

	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/wire"
)

// Decoder turns an event body into a typed, decoded value. Registered per
// tag in an EventMap.
type Decoder func(body []byte) (interface{}, error)

// EventMap maps an event tag to its decoder. The tag set is closed per
// §6; an unregistered tag is handled as "unknown" (§4.2).
type EventMap map[types.EventType]Decoder

// HandlerFunc is invoked once per frame whose tag it is registered for.
// It receives the decoded event and the GalileoMessage it arrived in (for
// reply routing). A returned error is logged and the loop continues —
// the Go rendering of "handlers may throw" (§4.2).
type HandlerFunc func(ctx context.Context, event interface{}, msg types.GalileoMessage) error

// Registry is a map[EventType]HandlerFunc built once at construction —
// the Go rendering of "discovered by type at registration" that Design
// Notes §9 leaves open to any static-dispatch mechanism.
type Registry map[types.EventType]HandlerFunc

// Reactor is both a router.Listener (it implements OnMessage/OnDisconnect
// so it can be registered directly with a Message Router) and the
// dispatcher that runs handlers.
type Reactor struct {
	log      types.Logger
	events   EventMap
	handlers Registry

	queue *intakeQueue

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a Reactor. Call Start for single-threaded mode or
// StartPool(n) for the bounded worker-pool mode; calling neither means
// frames accumulate on the intake queue undelivered.
func New(events EventMap, handlers Registry, log types.Logger) *Reactor {
	return &Reactor{
		log:      log,
		events:   events,
		handlers: handlers,
		queue:    newIntakeQueue(),
	}
}

// OnMessage implements router.Listener: it only ever performs the trivial
// hand-off onto the intake queue, never blocking, matching §4.1's
// requirement that listeners not block the router's reader goroutine.
func (r *Reactor) OnMessage(msg types.GalileoMessage) {
	r.queue.push(msg)
}

// OnDisconnect implements router.Listener as a no-op. The Event Reactor
// has no notion of peer disconnects to act on, and the Storage Node
// Coordinator (pkg/galileo/node) registers no other listener for them.
func (r *Reactor) OnDisconnect(types.NetworkDestination) {}

// ProcessNextEvent takes one framed payload (blocking until one is
// available or ctx is cancelled), decodes it, and dispatches it to its
// handler. Returns ctx.Err() once cancelled.
func (r *Reactor) ProcessNextEvent(ctx context.Context) error {
	msg, err := r.queue.pop(ctx)
	if err != nil {
		return err
	}
	r.dispatch(ctx, msg)
	return nil
}

func (r *Reactor) dispatch(ctx context.Context, msg types.GalileoMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warnf("reactor: handler panicked: %v", rec)
		}
	}()

	container, err := wire.DecodeContainer(msg.Body)
	if err != nil {
		r.log.Warnf("reactor: failed decoding frame from %s: %v", msg.Conn.Peer(), err)
		return
	}

	decode, ok := r.events[container.Tag]
	if !ok {
		r.log.Warnf("reactor: unknown event tag %d from %s", container.Tag, msg.Conn.Peer())
		return
	}

	event, err := decode(container.Body)
	if err != nil {
		r.log.Warnf("reactor: failed decoding body for tag %s from %s: %v", container.Tag, msg.Conn.Peer(), err)
		return
	}

	handler, ok := r.handlers[container.Tag]
	if !ok {
		r.log.Warnf("reactor: no handler registered for tag %s", container.Tag)
		return
	}

	if err := handler(ctx, event, msg); err != nil {
		r.log.Warnf("reactor: handler for tag %s returned error: %v", container.Tag, err)
	}
}

// Start runs the reactor cooperatively on the caller's own goroutine,
// blocking until ctx is cancelled.
func (r *Reactor) Start(ctx context.Context) {
	for {
		if err := r.ProcessNextEvent(ctx); err != nil {
			return
		}
	}
}

// StartPool launches poolSize worker goroutines, each looping on
// ProcessNextEvent, and returns immediately. This fixes the bug Design
// Notes §9 flags in the source's ConcurrentEventReactor.start(), which
// constructs its worker threads but never calls start() on them.
func (r *Reactor) StartPool(ctx context.Context, poolSize int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	ctx, r.cancel = context.WithCancel(ctx)
	for i := 0; i < poolSize; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.Start(ctx)
		}()
	}
}

// Stop cancels every running worker and waits for them to exit. A safe
// no-op if StartPool was never called.
func (r *Reactor) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}
