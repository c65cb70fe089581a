// Package event implements the core's fixed-capacity event bus: a
// multi-producer, single-consumer-per-subscriber queue that drives
// invalidation cascades across frames.
//
// The backlog is a fixed-capacity slice guarded by a sync.Mutex rather
// than a lock-free structure: Compile/Execute already serialize on a
// single owning goroutine, so only the producer side (Emit) needs to be
// safe for concurrent callers, and the critical section is O(1) with no
// IO or allocation.
package event

import (
	"log"
	"sync"

	"github.com/Lint111/VBVS--VIXEN-sub013/corerr"
)

const component = "event"

// Kind discriminates an Event's type. The core reserves a handful of
// well-known kinds; callers may define additional ones starting at
// KindUser.
type Kind int

const (
	KindInvalid Kind = iota
	KindWindowResize
	KindSwapchainInvalidated
	KindNodeDirty
	KindCompileFailed
	KindDeviceLost
	// KindUser is the first value available to caller-defined event
	// kinds.
	KindUser Kind = 1000
)

// payloadCap bounds the size, in bytes, of an Event's opaque payload.
const payloadCap = 64

// Event is one record flowing through the bus: a kind discriminator, a
// bounded opaque payload, and a monotonic serial assigned by the bus at
// enqueue time.
type Event struct {
	Kind    Kind
	Payload [payloadCap]byte
	PLen    int
	Serial  uint64
}

// SetPayload copies p into the Event's bounded payload. It panics if p
// exceeds payloadCap — payloads must stay under a bounded
// size, so a caller exceeding it is a programming error, not a runtime
// condition to recover from.
func (e *Event) SetPayload(p []byte) {
	if len(p) > payloadCap {
		panic("event: payload exceeds bounded size")
	}
	e.PLen = copy(e.Payload[:], p)
}

// PayloadBytes returns the Event's opaque payload bytes.
func (e *Event) PayloadBytes() []byte { return e.Payload[:e.PLen] }

// Overflow selects what happens when Emit is called against a full bus.
type Overflow int

const (
	// Strict: Emit fails with corerr.QueueFull.
	Strict Overflow = iota
	// Fallback: the bus doubles its capacity exactly once (on first
	// overflow) and logs, then behaves as Strict thereafter.
	Fallback
	// Discard: the oldest unconsumed event is dropped to make room.
	Discard
)

// Subscription identifies one registered subscriber. It is returned by
// Subscribe and passed to Unsubscribe.
type Subscription int

type subscriber struct {
	filter func(Kind) bool
	queue  []Event
	active bool
}

// Bus is a fixed-capacity multi-producer event queue with
// per-subscriber FIFO delivery. The zero value is not usable; call New.
type Bus struct {
	mu       sync.Mutex
	cap      int
	overflow Overflow
	doubled  bool
	backlog  []Event
	serial   uint64
	subs     []subscriber
}

// New creates a Bus with the given fixed capacity and overflow policy.
// capacity is pre-allocated at Setup so Emit never grows the backing
// slice except under the Fallback policy's one-time doubling.
func New(capacity int, overflow Overflow) *Bus {
	if capacity < 1 {
		capacity = 1
	}
	return &Bus{
		cap:      capacity,
		overflow: overflow,
		backlog:  make([]Event, 0, capacity),
	}
}

// Subscribe registers a subscriber whose filter, if non-nil, is
// consulted per event; a nil filter receives every event. It returns a
// Subscription handle for later Unsubscribe. Subscriptions are
// expected to be registered during Setup; the subscriber's delivery
// queue is pre-sized to the bus capacity so ProcessEvents never
// allocates.
func (b *Bus) Subscribe(filter func(Kind) bool) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscriber{
		filter: filter,
		queue:  make([]Event, 0, b.cap),
		active: true,
	})
	return Subscription(len(b.subs) - 1)
}

// Unsubscribe releases a subscription. Events already queued for it are
// dropped.
func (b *Bus) Unsubscribe(s Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if int(s) < 0 || int(s) >= len(b.subs) {
		return
	}
	b.subs[s].active = false
	b.subs[s].queue = nil
}

// Emit publishes an event. It is safe to call concurrently from
// multiple producer goroutines;
// delivery to subscribers happens later, synchronously, inside
// ProcessEvents on the graph's owning thread.
func (b *Bus) Emit(kind Kind, payload []byte) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.backlog) >= b.cap {
		switch b.overflow {
		case Strict:
			return false, corerr.New(component, corerr.QueueFull, "event bus at capacity")
		case Fallback:
			if b.doubled {
				return false, corerr.New(component, corerr.QueueFull, "event bus at capacity after fallback doubling")
			}
			b.doubled = true
			newCap := b.cap * 2
			grown := make([]Event, len(b.backlog), newCap)
			copy(grown, b.backlog)
			b.backlog = grown
			b.cap = newCap
			log.Printf("event: bus capacity doubled to %d after overflow", newCap)
		case Discard:
			copy(b.backlog, b.backlog[1:])
			b.backlog = b.backlog[:len(b.backlog)-1]
		}
	}

	b.serial++
	e := Event{Kind: kind, Serial: b.serial}
	e.SetPayload(payload)
	b.backlog = append(b.backlog, e)
	return true, nil
}

// ProcessEvents fans the backlog out to every active subscriber whose
// filter accepts the event, in enqueue order, then clears the backlog.
// It must be called exactly once per frame, between Compile and
// Execute, on the graph's single owning thread.
func (b *Bus) ProcessEvents() {
	b.mu.Lock()
	backlog := b.backlog
	b.backlog = b.backlog[:0]
	for i := range b.subs {
		if !b.subs[i].active {
			continue
		}
		q := b.subs[i].queue[:0]
		for _, e := range backlog {
			if b.subs[i].filter == nil || b.subs[i].filter(e.Kind) {
				q = append(q, e)
			}
		}
		b.subs[i].queue = q
	}
	b.mu.Unlock()
}

// Deliver invokes fn for every event queued to subscription s since the
// last ProcessEvents call, in enqueue order, then clears the
// subscriber's queue. Nodes call this (indirectly, via the orchestrator)
// to observe events in enqueue order per the bus's ordering
// invariant.
func (b *Bus) Deliver(s Subscription, fn func(Event)) {
	b.mu.Lock()
	if int(s) < 0 || int(s) >= len(b.subs) || !b.subs[s].active {
		b.mu.Unlock()
		return
	}
	q := b.subs[s].queue
	b.subs[s].queue = q[:0]
	// Invoke fn outside the lock: a subscriber reacting to one event
	// by emitting another (the invalidation-cascade pattern) calls
	// Emit, which takes the same mutex.
	b.mu.Unlock()
	for i := range q {
		fn(q[i])
	}
}

// Depth returns the number of events currently queued in the backlog
// (used by Graph.Stats' event-queue-depth counter).
func (b *Bus) Depth() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.backlog)
}

// Capacity returns the bus's current capacity, which may exceed the
// value passed to New if a single Fallback doubling has occurred.
func (b *Bus) Capacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cap
}
