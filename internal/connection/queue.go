package connection

import (
	"context"
	"sync"
)

// taskQueue is an unbounded FIFO of loop tasks. Producers never block, so
// callbacks running on the loop can safely enqueue more work.
type taskQueue struct {
	mu     sync.Mutex
	tasks  []func()
	signal chan struct{}
	closed bool
}

func newTaskQueue() *taskQueue {
	return &taskQueue{signal: make(chan struct{}, 1)}
}

// push appends a task. Returns false once the queue is closed.
func (q *taskQueue) push(task func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// pop blocks until a task is available, the queue is closed or ctx is done.
func (q *taskQueue) pop(ctx context.Context) (func(), bool) {
	for {
		q.mu.Lock()
		if len(q.tasks) > 0 {
			task := q.tasks[0]
			q.tasks[0] = nil
			q.tasks = q.tasks[1:]
			q.mu.Unlock()
			return task, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, false
		}

		select {
		case <-q.signal:
		case <-ctx.Done():
			return nil, false
		}
	}
}

// close drops pending tasks and rejects new ones.
func (q *taskQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.tasks = nil
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *taskQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
