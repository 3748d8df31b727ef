package payment

import (
	"context"

	"github.com/paypulse/walletsync/internal/domain/payment"
)

// QueueQueries exposes read-only views of the durable queue to the UI layer.
type QueueQueries struct {
	queue payment.Queue
}

func NewQueueQueries(queue payment.Queue) *QueueQueries {
	return &QueueQueries{queue: queue}
}

// PendingCount returns the number of records awaiting submission or retry.
func (q *QueueQueries) PendingCount(ctx context.Context) (int, error) {
	return q.queue.PendingCount(ctx)
}

// Snapshot returns the non-terminal records for history display, oldest
// first, with status and last error attached.
func (q *QueueQueries) Snapshot(ctx context.Context) ([]*payment.Record, error) {
	return q.queue.ListPending(ctx)
}
