// Package query implements the Query Tracker Table (QTT): the per-node
// table correlating outstanding client query requests with the set of
// peer responses they expect (§4.3).
package query

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
)

// Tracker is the Go rendering of the Query Tracker record (§3): the
// originating connection, the expected peer set, which peers have
// responded, the accumulated responses, and the deadline past which the
// entry is swept even if incomplete.
type Tracker struct {
	ID       string
	Origin   types.ConnHandle
	Expected map[types.NetworkDestination]struct{}

	mu        sync.Mutex
	responded map[types.NetworkDestination]struct{}
	responses [][]byte
	deadline  time.Time
}

// Responses returns a snapshot of the accumulated response bodies, in the
// order they were recorded.
func (t *Tracker) Responses() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.responses))
	copy(out, t.responses)
	return out
}

// Table is the concurrent mapping queryId -> *Tracker (§4.3). A mutex
// plus a plain map is enough at this scale: a handful of goroutines ever
// touch it concurrently, never a hot read path needing a lock-free
// structure.
type Table struct {
	sessionID string
	counter   uint64

	mu       sync.Mutex
	trackers map[string]*Tracker
}

// NewTable builds a Table whose ids are prefixed with sessionID — derived
// by the caller from the node's listening port, per §3's "Query id"
// definition, so ids are globally unique without coordination.
func NewTable(sessionID string) *Table {
	return &Table{
		sessionID: sessionID,
		trackers:  make(map[string]*Tracker),
	}
}

// Open atomically generates the next query id, inserts a tracker for it,
// and returns the id. The deadline is now+queryDeadline.
func (tab *Table) Open(origin types.ConnHandle, expected []types.NodeInfo, queryDeadline time.Duration) string {
	n := atomic.AddUint64(&tab.counter, 1) - 1
	id := fmt.Sprintf("%s:%d", tab.sessionID, n)

	expectedSet := make(map[types.NetworkDestination]struct{}, len(expected))
	for _, node := range expected {
		expectedSet[node.Destination()] = struct{}{}
	}

	t := &Tracker{
		ID:        id,
		Origin:    origin,
		Expected:  expectedSet,
		responded: make(map[types.NetworkDestination]struct{}, len(expected)),
		deadline:  time.Now().Add(queryDeadline),
	}

	tab.mu.Lock()
	tab.trackers[id] = t
	tab.mu.Unlock()
	return id
}

// Record appends body to the tracker's accumulated responses and marks
// peer as responded. done reports whether every expected peer has now
// responded. Recording against an unknown id returns (false, nil) — the
// caller is expected to log a warning, not treat it as an error, since a
// late response after timeout is an expected occurrence (§4.3 invariant).
func (tab *Table) Record(queryID string, peer types.NetworkDestination, body []byte) (done bool, tracker *Tracker) {
	tab.mu.Lock()
	t, ok := tab.trackers[queryID]
	tab.mu.Unlock()
	if !ok {
		return false, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.responded[peer] = struct{}{}
	t.responses = append(t.responses, body)
	return len(t.responded) >= len(t.Expected), t
}

// Close removes and returns the tracker for queryID, or nil if it wasn't
// present (already closed, or never opened).
func (tab *Table) Close(queryID string) *Tracker {
	tab.mu.Lock()
	defer tab.mu.Unlock()
	t, ok := tab.trackers[queryID]
	if !ok {
		return nil
	}
	delete(tab.trackers, queryID)
	return t
}

// Expire returns the ids of every tracker whose deadline is before now,
// without removing them — callers close each one themselves so the
// "close + log" policy lives in one place (the coordinator).
func (tab *Table) Expire(now time.Time) []string {
	tab.mu.Lock()
	defer tab.mu.Unlock()
	var expired []string
	for id, t := range tab.trackers {
		if t.deadline.Before(now) {
			expired = append(expired, id)
		}
	}
	return expired
}

// Len reports how many queries are currently in flight. Exposed for
// tests asserting the QTT invariant (present iff incomplete and
// unexpired).
func (tab *Table) Len() int {
	tab.mu.Lock()
	defer tab.mu.Unlock()
	return len(tab.trackers)
}
