// Package inject implements the bounded multi-producer queue
// external worker threads use to submit creation requests (e.g. voxel
// batches) between frames.
//
// The queue itself is a buffered channel, which already gives bounded
// MPMC semantics with no additional locking. A weighted semaphore
// bounds how many goroutines may be inside DrainBatch at once, for
// callers that fan the drain out across workers.
package inject

import (
	"context"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Request is one external creation request submitted by a worker
// thread.
type Request struct {
	Target  string
	Payload any
}

// Stats reports the queue's running counters, surfaced via the
// RenderGraph's introspection Stats() call.
type Stats struct {
	Enqueued int64
	Rejected int64
	Depth    int64
}

// Queue is a bounded multi-producer queue. Producers call Enqueue
// concurrently from worker goroutines; the owning graph thread calls
// DrainBatch between frames, never during Execute.
type Queue struct {
	ch       chan Request
	sem      *semaphore.Weighted
	enqueued atomic.Int64
	rejected atomic.Int64
}

// NewQueue creates a Queue with the given fixed capacity. maxDrainers
// bounds how many goroutines may be inside DrainBatch concurrently (use
// 1 for the common case of a single owning thread draining).
func NewQueue(capacity int, maxDrainers int64) *Queue {
	if maxDrainers < 1 {
		maxDrainers = 1
	}
	return &Queue{
		ch:  make(chan Request, capacity),
		sem: semaphore.NewWeighted(maxDrainers),
	}
}

// Enqueue submits req without blocking. It returns false, incrementing
// the Rejected counter, if the queue is at capacity.
func (q *Queue) Enqueue(req Request) bool {
	select {
	case q.ch <- req:
		q.enqueued.Add(1)
		return true
	default:
		q.rejected.Add(1)
		return false
	}
}

// DrainBatch pops up to max queued requests, non-blocking, and groups
// them by Target to maximize downstream batch efficiency while
// preserving each target's relative submission order. It must be
// called between frames, never during Execute.
func (q *Queue) DrainBatch(ctx context.Context, max int) []Request {
	if err := q.sem.Acquire(ctx, 1); err != nil {
		return nil
	}
	defer q.sem.Release(1)

	batch := make([]Request, 0, max)
	for len(batch) < max {
		select {
		case r := <-q.ch:
			batch = append(batch, r)
		default:
			goto drained
		}
	}
drained:
	if len(batch) == 0 {
		return nil
	}
	sort.SliceStable(batch, func(i, j int) bool { return batch[i].Target < batch[j].Target })
	return batch
}

// Stats returns the queue's current counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Enqueued: q.enqueued.Load(),
		Rejected: q.rejected.Load(),
		Depth:    int64(len(q.ch)),
	}
}
