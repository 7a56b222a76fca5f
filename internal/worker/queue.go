package worker

import (
	"context"
	"sync"
)

// task is one queued derivation together with its delivery channel.
type task struct {
	id     string
	ctx    context.Context
	job    Job
	result chan Result
}

// jobQueue is a thread-safe FIFO of tasks.
//
// The queue is unbounded so Submit never blocks the requester. Workers wait
// on the signal channel, which closes when the queue is closed.
type jobQueue struct {
	mu     sync.Mutex
	tasks  []*task
	closed bool
	signal chan struct{} // buffered, size 1
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		tasks:  make([]*task, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds t to the back of the queue. Returns false if the queue is
// closed.
func (q *jobQueue) Enqueue(t *task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.tasks = append(q.tasks, t)
	q.notifyLocked()
	return true
}

// TryDequeue removes the front task without blocking.
func (q *jobQueue) TryDequeue() (*task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}

	t := q.tasks[0]
	q.tasks[0] = nil
	if len(q.tasks) == 1 {
		q.tasks = q.tasks[:0]
	} else {
		q.tasks = q.tasks[1:]
		// The signal coalesces, so pass it on to the next idle worker.
		q.notifyLocked()
	}
	return t, true
}

// Drain removes and returns every queued task.
func (q *jobQueue) Drain() []*task {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.tasks
	q.tasks = nil
	return out
}

// Wait returns a channel that signals when tasks may be available.
func (q *jobQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued tasks.
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Closed reports whether Close has been called.
func (q *jobQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops further enqueues and wakes all waiters.
func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

func (q *jobQueue) notifyLocked() {
	if q.closed {
		return
	}
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
