package node

import (
	"context"
	"time"
)

// sweepLoop closes any query tracker past its deadline, once per
// sweepInterval, per §5's background maintenance task. An incomplete
// query past deadline is expected — some peer may be down or slow — so
// this only logs at Warn, it never treats expiry as failure.
func (n *Node) sweepLoop(ctx context.Context) {
	defer n.wg.Done()
	ticker := time.NewTicker(n.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, id := range n.qtt.Expire(now) {
				if tracker := n.qtt.Close(id); tracker != nil {
					n.log.Warnf("node: query %s expired with %d/%d peers responded", id, len(tracker.Responses()), len(tracker.Expected))
				}
			}
		}
	}
}
