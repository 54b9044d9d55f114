package agent

import "sync"

// pendingCall is one main-thread-lane request waiting to be drained, paired
// with the stream its response must be written back to (spec §4.3 step 5).
type pendingCall struct {
	connID  uint64
	writer  streamWriter
	request dispatchRequest
}

// mainThreadQueue is the multi-producer/single-consumer queue that is the
// only synchronization point between reader goroutines and the drain
// (spec §4.3 "Concurrency invariants"). Readers enqueue without blocking;
// the drain removes everything currently queued in one pass.
type mainThreadQueue struct {
	mu    sync.Mutex
	items []pendingCall
}

func newMainThreadQueue() *mainThreadQueue {
	return &mainThreadQueue{}
}

// Enqueue adds call to the tail of the queue. Never blocks.
func (q *mainThreadQueue) Enqueue(call pendingCall) {
	q.mu.Lock()
	q.items = append(q.items, call)
	q.mu.Unlock()
}

// DrainAll removes and returns every item currently queued, in FIFO order.
// A concurrent Enqueue that races with DrainAll is simply picked up on the
// next drain tick, never lost.
func (q *mainThreadQueue) DrainAll() []pendingCall {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	drained := q.items
	q.items = nil
	return drained
}

// Len reports the number of currently queued items, for tests and metrics.
func (q *mainThreadQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
