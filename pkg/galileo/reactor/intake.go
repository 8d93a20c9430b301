package reactor

import (
	"context"
	"sync"

	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
)

// intakeQueue is the single unbounded, concurrent, FIFO queue the
// reactor receives framed payloads on (§4.2). It's unbounded on purpose:
// back-pressure in this system lives only at the MR write queue, never
// here, so a slow handler pool can't stall the router's reader
// goroutines.
type intakeQueue struct {
	mu     sync.Mutex
	items  []types.GalileoMessage
	notify chan struct{}
}

func newIntakeQueue() *intakeQueue {
	return &intakeQueue{notify: make(chan struct{}, 1)}
}

func (q *intakeQueue) push(msg types.GalileoMessage) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// pop blocks until a message is available or ctx is cancelled. Take-order
// is strictly FIFO even with multiple concurrent callers.
func (q *intakeQueue) pop(ctx context.Context) (types.GalileoMessage, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items = q.items[1:]
			remaining := len(q.items)
			q.mu.Unlock()
			if remaining > 0 {
				// Chain the wakeup so another waiting worker picks up
				// the next item instead of sleeping until the next push.
				select {
				case q.notify <- struct{}{}:
				default:
				}
			}
			return msg, nil
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return types.GalileoMessage{}, ctx.Err()
		}
	}
}
