package node

import (
	"context"

	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/wire"
)

// handleStorageRequest locates the owning peer via the partitioner and
// forwards the block as a STORAGE event (§4.4). A partitioner failure is
// logged and swallowed — there is no requester connection to report back
// to for a fire-and-forget store.
func (n *Node) handleStorageRequest(_ context.Context, event interface{}, _ types.GalileoMessage) error {
	body := event.(types.StorageRequestBody)

	target, err := n.partitioner.Locate(body.Block.Metadata)
	if err != nil {
		n.log.Errorf("node: %v", types.NewPartitionError(body.Block.Metadata, err))
		return nil
	}

	frame := wire.EncodeStorage(types.StorageBody{Block: body.Block})
	if err := n.router.SendMessage(target.Destination(), types.Storage, frame); err != nil {
		n.log.Warnf("node: forwarding STORAGE to %s failed: %v", target, err)
	}
	return nil
}

// handleStorage persists the block through the FS collaborator.
func (n *Node) handleStorage(ctx context.Context, event interface{}, _ types.GalileoMessage) error {
	body := event.(types.StorageBody)
	if _, err := n.fs.StoreBlock(ctx, body.Block); err != nil {
		n.log.Warnf("node: %v", types.NewFSError("store-block "+body.Block.ID, err))
	}
	return nil
}

// handleQueryRequest opens a QTT entry, replies with the preamble naming
// which peers were fanned out to, then forwards a QUERY to each (§4.4).
func (n *Node) handleQueryRequest(_ context.Context, event interface{}, msg types.GalileoMessage) error {
	body := event.(types.QueryRequestBody)

	targets := n.selector(body.Query, n.network)
	queryID := n.qtt.Open(msg.Conn, targets, n.queryDeadline)

	preamble := wire.EncodeQueryPreamble(types.QueryPreambleBody{QueryID: queryID, Peers: targets})
	if err := msg.Conn.Reply(types.QueryPreamble, preamble); err != nil {
		n.log.Warnf("node: sending preamble for %s failed: %v", queryID, err)
	}

	frame := wire.EncodeQuery(types.QueryBody{QueryID: queryID, Query: body.Query})
	for _, target := range targets {
		if err := n.router.SendMessage(target.Destination(), types.Query, frame); err != nil {
			n.log.Warnf("node: forwarding QUERY %s to %s failed: %v", queryID, target, err)
		}
	}
	return nil
}

// handleQuery evaluates the query against the local FS index and replies
// directly over the connection it arrived on.
func (n *Node) handleQuery(ctx context.Context, event interface{}, msg types.GalileoMessage) error {
	body := event.(types.QueryBody)

	results, err := n.fs.Query(ctx, body.Query)
	if err != nil {
		n.log.Warnf("node: %v", types.NewFSError("query "+body.QueryID, err))
		results = nil
	}

	frame := wire.EncodeQueryResponse(types.QueryResponseBody{QueryID: body.QueryID, Results: results})
	if err := msg.Conn.Reply(types.QueryResponse, frame); err != nil {
		n.log.Warnf("node: replying QUERY_RESPONSE for %s failed: %v", body.QueryID, err)
	}
	return nil
}

// handleQueryResponse records the response against the QTT and forwards
// it to the originating client. A response on a connection with no
// known destination, or against an unknown/expired query id, is logged
// and dropped — both are expected occurrences, not errors (§4.3).
func (n *Node) handleQueryResponse(_ context.Context, event interface{}, msg types.GalileoMessage) error {
	body := event.(types.QueryResponseBody)

	dest, ok := msg.Conn.Destination()
	if !ok {
		n.log.Warnf("node: QUERY_RESPONSE for %s arrived on a connection with no known peer", body.QueryID)
		return nil
	}

	done, tracker := n.qtt.Record(body.QueryID, dest, msg.Body)
	if tracker == nil {
		n.log.Warnf("node: QUERY_RESPONSE for unknown or expired query %s from %s", body.QueryID, dest)
		return nil
	}

	forward := wire.EncodeQueryResponse(body)
	if err := tracker.Origin.Reply(types.QueryResponse, forward); err != nil {
		n.log.Warnf("node: forwarding QUERY_RESPONSE %s to client failed: %v", body.QueryID, err)
	}

	if done {
		n.qtt.Close(body.QueryID)
	}
	return nil
}
