package router

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/amilaSuriarachchi/galileo/pkg/galileo/internal/testlog"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/wire"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recordingListener struct {
	mu       sync.Mutex
	messages []types.GalileoMessage
	received chan struct{}
}

func newRecordingListener() *recordingListener {
	return &recordingListener{received: make(chan struct{}, 16)}
}

func (l *recordingListener) OnMessage(msg types.GalileoMessage) {
	l.mu.Lock()
	l.messages = append(l.messages, msg)
	l.mu.Unlock()
	l.received <- struct{}{}
}

func (l *recordingListener) OnDisconnect(types.NetworkDestination) {}

// disconnectListener records each destination OnDisconnect fires for,
// used by tests that care about the async-dial-failure callback rather
// than any observed frame.
type disconnectListener struct {
	mu    sync.Mutex
	dests []types.NetworkDestination
	fired chan struct{}
}

func newDisconnectListener() *disconnectListener {
	return &disconnectListener{fired: make(chan struct{}, 16)}
}

func (l *disconnectListener) OnMessage(types.GalileoMessage) {}

func (l *disconnectListener) OnDisconnect(dest types.NetworkDestination) {
	l.mu.Lock()
	l.dests = append(l.dests, dest)
	l.mu.Unlock()
	l.fired <- struct{}{}
}

func (l *disconnectListener) waitOne(t *testing.T) types.NetworkDestination {
	t.Helper()
	select {
	case <-l.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for OnDisconnect")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dests[len(l.dests)-1]
}

func (l *recordingListener) waitOne(t *testing.T) types.GalileoMessage {
	t.Helper()
	select {
	case <-l.received:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a message")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.messages[len(l.messages)-1]
}

func ignoreNetworkGoroutines(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t, goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"))
	})
}

func TestServerAndClientRouterExchangeAMessage(t *testing.T) {
	ignoreNetworkGoroutines(t)

	log := testlog.New(t)
	server := NewServerRouter("127.0.0.1:0", 4, log)
	serverListener := newRecordingListener()
	server.AddListener(serverListener)
	require.NoError(t, server.Listen())
	defer server.ForceShutdown()

	dest := types.NetworkDestination{Host: "127.0.0.1", Port: server.Addr().(*net.TCPAddr).Port}

	client := NewClientRouter(4, log)
	defer client.ForceShutdown()

	require.NoError(t, client.SendMessage(dest, types.StorageRequest, []byte("hello")))

	got := serverListener.waitOne(t)
	container, err := wire.DecodeContainer(got.Body)
	require.NoError(t, err)
	require.Equal(t, types.StorageRequest, container.Tag)
	require.Equal(t, "hello", string(container.Body))
}

// replyingListener replies "pong" over whichever connection a message
// arrived on, exercising ConnHandle.Reply end to end.
type replyingListener struct{}

func (l *replyingListener) OnMessage(msg types.GalileoMessage) {
	_ = msg.Conn.Reply(types.QueryResponse, []byte("pong"))
}

func (l *replyingListener) OnDisconnect(types.NetworkDestination) {}

func TestReplyRoutesBackOverTheAcceptedConnection(t *testing.T) {
	ignoreNetworkGoroutines(t)

	log := testlog.New(t)
	server := NewServerRouter("127.0.0.1:0", 4, log)
	server.AddListener(&replyingListener{})
	require.NoError(t, server.Listen())
	defer server.ForceShutdown()

	dest := types.NetworkDestination{Host: "127.0.0.1", Port: server.Addr().(*net.TCPAddr).Port}
	clientListener := newRecordingListener()
	client := NewClientRouter(4, log)
	client.AddListener(clientListener)
	defer client.ForceShutdown()

	require.NoError(t, client.SendMessage(dest, types.QueryRequest, []byte("ping")))

	got := clientListener.waitOne(t)
	container, err := wire.DecodeContainer(got.Body)
	require.NoError(t, err)
	require.Equal(t, "pong", string(container.Body))
}

// SendMessage lazily dials: it hands back success as soon as the frame
// is queued on a freshly-created placeholder connection, before the
// dial has even started (§4.1). An unreachable destination is reported
// asynchronously via the disconnect listener callback, not a SendMessage
// error.
func TestSendMessageToUnreachableDestinationReportsDisconnect(t *testing.T) {
	ignoreNetworkGoroutines(t)

	log := testlog.New(t)
	client := NewClientRouter(4, log)
	listener := newDisconnectListener()
	client.AddListener(listener)
	defer client.ForceShutdown()

	dest := types.NetworkDestination{Host: "127.0.0.1", Port: 1}
	require.NoError(t, client.SendMessage(dest, types.Query, []byte("x")))

	require.Equal(t, dest, listener.waitOne(t))
}
