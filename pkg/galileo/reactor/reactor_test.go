package reactor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amilaSuriarachchi/galileo/pkg/galileo/internal/testlog"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/wire"
	"github.com/stretchr/testify/require"
)

type stubConn struct{ peer string }

func (s stubConn) Reply(types.EventType, []byte) error              { return nil }
func (s stubConn) Peer() string                                     { return s.peer }
func (s stubConn) Destination() (types.NetworkDestination, bool)     { return types.NetworkDestination{}, false }

func frame(tag types.EventType, body []byte) types.GalileoMessage {
	return types.GalileoMessage{
		Body: wire.EncodeContainer(types.EventContainer{Tag: tag, Body: body}),
		Conn: stubConn{peer: "test"},
	}
}

func TestDispatchCallsTheRegisteredHandler(t *testing.T) {
	var got string
	events := EventMap{types.Storage: func(b []byte) (interface{}, error) { return string(b), nil }}
	handlers := Registry{types.Storage: func(_ context.Context, event interface{}, _ types.GalileoMessage) error {
		got = event.(string)
		return nil
	}}

	r := New(events, handlers, testlog.New(t))
	r.OnMessage(frame(types.Storage, []byte("payload")))

	require.NoError(t, r.ProcessNextEvent(context.Background()))
	require.Equal(t, "payload", got)
}

func TestDispatchSurvivesAPanickingHandler(t *testing.T) {
	events := EventMap{types.Storage: func(b []byte) (interface{}, error) { return b, nil }}
	handlers := Registry{types.Storage: func(context.Context, interface{}, types.GalileoMessage) error {
		panic("boom")
	}}

	r := New(events, handlers, testlog.New(t))
	r.OnMessage(frame(types.Storage, nil))

	require.NoError(t, r.ProcessNextEvent(context.Background()))
}

func TestDispatchDropsUnknownTag(t *testing.T) {
	var called int32
	handlers := Registry{types.Storage: func(context.Context, interface{}, types.GalileoMessage) error {
		atomic.AddInt32(&called, 1)
		return nil
	}}

	r := New(EventMap{}, handlers, testlog.New(t))
	r.OnMessage(frame(types.Storage, nil))

	require.NoError(t, r.ProcessNextEvent(context.Background()))
	require.EqualValues(t, 0, atomic.LoadInt32(&called))
}

func TestStartPoolProcessesEveryQueuedMessage(t *testing.T) {
	const n = 50
	var count int32
	var wg sync.WaitGroup
	wg.Add(n)

	events := EventMap{types.Storage: func(b []byte) (interface{}, error) { return b, nil }}
	handlers := Registry{types.Storage: func(context.Context, interface{}, types.GalileoMessage) error {
		atomic.AddInt32(&count, 1)
		wg.Done()
		return nil
	}}

	r := New(events, handlers, testlog.New(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.StartPool(ctx, 4)
	defer r.Stop()

	for i := 0; i < n; i++ {
		r.OnMessage(frame(types.Storage, nil))
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool workers never drained the queue")
	}
	require.EqualValues(t, n, atomic.LoadInt32(&count))
}

func TestStartPoolIsIdempotent(t *testing.T) {
	r := New(EventMap{}, Registry{}, testlog.New(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.StartPool(ctx, 2)
	r.StartPool(ctx, 2) // no-op, must not double-start workers
	r.Stop()
}
