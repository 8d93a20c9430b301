package node

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/amilaSuriarachchi/galileo/pkg/galileo/definition"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/internal/testlog"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/router"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/wire"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsAnUnsupportedMinVersion(t *testing.T) {
	_, err := New(Config{
		Listen:              "127.0.0.1:0",
		MinSupportedVersion: "99.0.0",
		FS:                  definition.NewDefaultFS(false),
		Partitioner:         definition.NewDefaultPartitioner(types.NetworkInfo{}),
		Log:                 testlog.New(t),
	})
	require.ErrorIs(t, err, types.ErrUnsupportedVersion)
}

// TestNodeServesAQueryOverRealSocketsRoundTrip is the single end-to-end
// integration test exercising a real Node over real TCP sockets rather
// than fakeRouter/fakeConn: a single-node network names itself as its
// own partition target, so a client's QUERY_REQUEST drives a genuine
// loop-back QUERY/QUERY_RESPONSE exchange between the node and itself
// before the final result reaches the client connection.
func TestNodeServesAQueryOverRealSocketsRoundTrip(t *testing.T) {
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := probe.Addr().(*net.TCPAddr)
	require.NoError(t, probe.Close())
	listen := fmt.Sprintf("127.0.0.1:%d", addr.Port)

	self := types.NodeInfo{Host: "127.0.0.1", Port: addr.Port}
	fs := definition.NewDefaultFS(false)
	_, err = fs.StoreBlock(context.Background(), types.Block{
		ID:       "b1",
		Content:  []byte("reading"),
		Metadata: types.Metadata{"sensor": "humidity", "value": "41"},
	})
	require.NoError(t, err)

	n, err := New(Config{
		Listen:        listen,
		QueryDeadline: 5 * time.Second,
		Network:       types.NetworkInfo{Nodes: []types.NodeInfo{self}},
		FS:            fs,
		Partitioner:   definition.NewDefaultPartitioner(types.NetworkInfo{Nodes: []types.NodeInfo{self}}),
		Log:           testlog.New(t),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- n.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the router's accept loop a moment to come up before dialing
	// in as a plain client below.
	require.Eventually(t, func() bool {
		conn, dialErr := net.Dial("tcp", listen)
		if dialErr != nil {
			return false
		}
		conn.Close()
		return true
	}, time.Second, 10*time.Millisecond)

	client := router.NewClientRouter(4, testlog.New(t))
	defer client.ForceShutdown()
	clientListener := newRecordingFrameListener()
	client.AddListener(clientListener)

	dest := types.NetworkDestination{Host: "127.0.0.1", Port: addr.Port}
	reqBody := wire.EncodeQueryRequest(types.QueryRequestBody{Query: "humidity"})
	require.NoError(t, client.SendMessage(dest, types.QueryRequest, reqBody))

	preambleFrame := clientListener.waitFor(t, types.QueryPreamble)
	preamble, err := wire.DecodeQueryPreamble(preambleFrame)
	require.NoError(t, err)
	require.Len(t, preamble.Peers, 1)

	responseFrame := clientListener.waitFor(t, types.QueryResponse)
	resp, err := wire.DecodeQueryResponse(responseFrame)
	require.NoError(t, err)
	require.Equal(t, preamble.QueryID, resp.QueryID)
	require.Equal(t, []types.Metadata{{"sensor": "humidity", "value": "41"}}, resp.Results)
}

// recordingFrameListener decodes each inbound frame's container and lets
// a test block for a specific tag, used where more than one event type
// arrives over the same connection in a known but asynchronous order.
type recordingFrameListener struct {
	frames chan types.EventContainer
}

func newRecordingFrameListener() *recordingFrameListener {
	return &recordingFrameListener{frames: make(chan types.EventContainer, 16)}
}

func (l *recordingFrameListener) OnMessage(msg types.GalileoMessage) {
	container, err := wire.DecodeContainer(msg.Body)
	if err != nil {
		return
	}
	l.frames <- container
}

func (l *recordingFrameListener) OnDisconnect(types.NetworkDestination) {}

func (l *recordingFrameListener) waitFor(t *testing.T, tag types.EventType) []byte {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-l.frames:
			if c.Tag == tag {
				return c.Body
			}
		case <-deadline:
			t.Fatalf("timed out waiting for tag %s", tag)
		}
	}
}

func TestServeStopsCleanlyWhenContextIsCancelled(t *testing.T) {
	n, err := New(Config{
		Listen:      "127.0.0.1:0",
		FS:          definition.NewDefaultFS(false),
		Partitioner: definition.NewDefaultPartitioner(types.NetworkInfo{}),
		Log:         testlog.New(t),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
