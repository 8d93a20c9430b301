package query

import (
	"testing"
	"time"

	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
	"github.com/stretchr/testify/require"
)

type stubConn struct{}

func (stubConn) Reply(types.EventType, []byte) error          { return nil }
func (stubConn) Peer() string                                 { return "client" }
func (stubConn) Destination() (types.NetworkDestination, bool) { return types.NetworkDestination{}, false }

func TestOpenGeneratesSessionPrefixedIncrementingIDs(t *testing.T) {
	tab := NewTable("7583")
	first := tab.Open(stubConn{}, nil, time.Minute)
	second := tab.Open(stubConn{}, nil, time.Minute)
	require.Equal(t, "7583:0", first)
	require.Equal(t, "7583:1", second)
}

func TestRecordReportsDoneOnceEveryPeerResponds(t *testing.T) {
	tab := NewTable("7583")
	peers := []types.NodeInfo{{Host: "a", Port: 1}, {Host: "b", Port: 2}}
	id := tab.Open(stubConn{}, peers, time.Minute)

	done, tracker := tab.Record(id, peers[0].Destination(), []byte("r1"))
	require.False(t, done)
	require.NotNil(t, tracker)

	done, tracker = tab.Record(id, peers[1].Destination(), []byte("r2"))
	require.True(t, done)
	require.Equal(t, [][]byte{[]byte("r1"), []byte("r2")}, tracker.Responses())
}

func TestRecordAgainstUnknownIDReturnsNilWithoutError(t *testing.T) {
	tab := NewTable("7583")
	done, tracker := tab.Record("nonexistent:0", types.NetworkDestination{Host: "a", Port: 1}, []byte("late"))
	require.False(t, done)
	require.Nil(t, tracker)
}

func TestCloseRemovesTheTracker(t *testing.T) {
	tab := NewTable("7583")
	id := tab.Open(stubConn{}, nil, time.Minute)
	require.Equal(t, 1, tab.Len())

	require.NotNil(t, tab.Close(id))
	require.Equal(t, 0, tab.Len())
	require.Nil(t, tab.Close(id))
}

func TestExpireFindsTrackersPastDeadlineWithoutRemovingThem(t *testing.T) {
	tab := NewTable("7583")
	id := tab.Open(stubConn{}, nil, -time.Second)

	expired := tab.Expire(time.Now())
	require.Equal(t, []string{id}, expired)
	require.Equal(t, 1, tab.Len())
}
