package poller

import "sync/atomic"

// DefaultQueueSize bounds the results waiting for the control loop.
const DefaultQueueSize = 64

// Queue hands results from pollers to the control loop. Push never blocks;
// when the loop falls behind, new results are dropped and counted, and the
// next poll cycle reports them again.
type Queue struct {
	ch      chan Result
	dropped atomic.Int64
}

// NewQueue creates a new Queue holding up to size results.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan Result, size)}
}

// Push enqueues r. It returns false if the queue is full.
func (q *Queue) Push(r Result) bool {
	select {
	case q.ch <- r:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Drain removes and returns every queued result without waiting.
func (q *Queue) Drain() []Result {
	var out []Result
	for {
		select {
		case r := <-q.ch:
			out = append(out, r)
		default:
			return out
		}
	}
}

// Dropped returns the number of results discarded because the queue was full.
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}
