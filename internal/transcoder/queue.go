package transcoder

import (
	"context"
	"errors"
	"sync"

	"xpoz/internal/logging"
)

// ErrQueueClosed is returned by Pop once the queue is closed and empty.
var ErrQueueClosed = errors.New("job queue closed")

// Queue is an unbounded FIFO of jobs shared by many producers and many
// consumers. Push never blocks. Each job is handed to exactly one Pop.
//
// There is no bound on depth: a burst of creations grows the queue for as
// long as producers outpace the workers.
type Queue struct {
	mu     sync.Mutex
	items  []*Job
	closed bool

	// notify holds at most one wakeup. A consumer that takes an item and
	// leaves more behind passes the wakeup on.
	notify chan struct{}
	done   chan struct{}
}

// NewQueue creates an empty, open queue.
func NewQueue() *Queue {
	return &Queue{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Push appends job. It returns false if the queue has been closed, in which
// case the job is dropped.
func (q *Queue) Push(job *Job) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		logging.Warn("Dropping job %s for %s: queue closed", job.ID, job.SourcePath)
		return false
	}
	q.items = append(q.items, job)
	q.mu.Unlock()

	q.wake()
	return true
}

// Pop removes and returns the oldest job, blocking until one is available.
// It returns ErrQueueClosed when the queue is closed and drained, or the
// context's error once ctx is done, even if jobs remain.
func (q *Queue) Pop(ctx context.Context) (*Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		q.mu.Lock()
		if n := len(q.items); n > 0 {
			job := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			if n == 1 {
				q.items = nil
			}
			q.mu.Unlock()

			if n > 1 {
				q.wake()
			}
			return job, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, ErrQueueClosed
		}

		select {
		case <-q.notify:
		case <-q.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len returns the number of queued jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops the queue from accepting jobs. Jobs already queued can still
// be popped. Close is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
