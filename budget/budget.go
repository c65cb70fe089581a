// Package budget implements soft/hard byte-budget accounting across
// memory kinds, and a pre-warmed pool of fixed-size staging buffers for
// host<->device transfers.
//
// The pool is a fixed-capacity channel of pre-created buffers, drained
// by callers and replaced on release. It is an instance rather than
// package-level state because one process may drive several graphs,
// each with its own GPU and budget.
package budget

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/Lint111/VBVS--VIXEN-sub013/corerr"
)

const component = "budget"

// Kind classifies a pool of device memory for budgeting purposes.
type Kind int

const (
	DeviceLocal Kind = iota
	HostVisible
	Staging
	kindCount
)

func (k Kind) String() string {
	switch k {
	case DeviceLocal:
		return "DeviceLocal"
	case HostVisible:
		return "HostVisible"
	case Staging:
		return "Staging"
	default:
		return "Kind(?)"
	}
}

// Limits bounds one Kind's soft and hard byte ceilings. Soft may be
// exceeded by up to Margin bytes before BudgetExhausted is returned;
// Hard is never exceeded.
type Limits struct {
	Soft   int64
	Hard   int64
	Margin int64
}

// Reservation is a live claim against a Kind's budget. It must be
// released exactly once via Manager.Release.
type Reservation struct {
	kind  Kind
	bytes int64
}

// Kind returns the memory kind the reservation was made against.
func (r Reservation) Kind() Kind { return r.kind }

// Bytes returns the reservation's size.
func (r Reservation) Bytes() int64 { return r.bytes }

// Manager tracks outstanding byte reservations per Kind. All methods
// are safe for concurrent use; the hot path (Reserve/Release) uses a
// single mutex rather than per-kind atomics because budget checks must
// compare the new total against both Soft and Hard atomically, which a
// lock-free counter alone cannot express.
type Manager struct {
	mu     sync.Mutex
	limits [kindCount]Limits
	used   [kindCount]int64
}

// NewManager creates a Manager with the given per-kind limits. Kinds
// omitted from limits default to a zero Soft/Hard (every reservation
// against them fails until configured).
func NewManager(limits map[Kind]Limits) *Manager {
	m := &Manager{}
	for k, l := range limits {
		if k >= 0 && k < kindCount {
			m.limits[k] = l
		}
	}
	return m
}

// Reserve claims bytes of the given kind. It fails with
// corerr.BudgetExhausted if a non-zero Hard would be exceeded;
// otherwise it succeeds outright if the new total is within Soft; it
// still succeeds, with a logged warning, if the new total is within
// Soft+Margin; otherwise it fails with corerr.BudgetExhausted. A failed
// Reserve reserves nothing.
func (m *Manager) Reserve(kind Kind, bytes int64) (Reservation, error) {
	if kind < 0 || kind >= kindCount {
		return Reservation{}, corerr.New(component, corerr.TypeMismatch, "unknown budget kind")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	lim := m.limits[kind]
	next := m.used[kind] + bytes
	switch {
	case lim.Hard > 0 && next > lim.Hard:
		return Reservation{}, corerr.New(component, corerr.BudgetExhausted, "hard limit exceeded for "+kind.String())
	case next <= lim.Soft:
		// within budget
	case next <= lim.Soft+lim.Margin:
		log.Printf("budget: %s overdraft, used=%d soft=%d margin=%d", kind, next, lim.Soft, lim.Margin)
	default:
		return Reservation{}, corerr.New(component, corerr.BudgetExhausted, "soft budget and overdraft margin exceeded for "+kind.String())
	}
	m.used[kind] = next
	return Reservation{kind: kind, bytes: bytes}, nil
}

// Release returns a reservation's bytes to the available pool.
func (m *Manager) Release(r Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used[r.kind] -= r.bytes
	if m.used[r.kind] < 0 {
		m.used[r.kind] = 0
	}
}

// Utilization returns the fraction (0..1+) of Soft currently reserved
// for kind, used by the graph's Stats introspection surface.
func (m *Manager) Utilization(kind Kind) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if kind < 0 || kind >= kindCount || m.limits[kind].Soft == 0 {
		return 0
	}
	return float64(m.used[kind]) / float64(m.limits[kind].Soft)
}

// Buffer is one pre-allocated staging buffer. The Handle field is
// opaque to this package (typically a driver.Buffer); StagingPool only
// tracks lifecycle, not contents.
type Buffer struct {
	Handle  any
	Size    int64
	inFlght atomic.Bool
}

// InFlight reports whether the buffer is currently attached to
// unfinished GPU work and must not be reused.
func (b *Buffer) InFlight() bool { return b.inFlght.Load() }

// MarkInFlight flags the buffer as attached to in-flight work.
func (b *Buffer) MarkInFlight() { b.inFlght.Store(true) }

// MarkIdle flags the buffer as safe for reuse, called once its
// tracking fence signals.
func (b *Buffer) MarkIdle() { b.inFlght.Store(false) }

// AllocFunc creates the backing storage for one staging buffer of the
// given size; it is supplied by the driver-backed caller so this
// package never imports a concrete driver type.
type AllocFunc func(size int64) (any, error)

// StagingPool hands out fixed-size buffers from a pre-allocated
// channel. Exhaustion falls through to an emergency allocation, logged
// and counted, rather than blocking the caller.
type StagingPool struct {
	bufSize  int64
	pool     chan *Buffer
	alloc    AllocFunc
	manager  *Manager
	overflow atomic.Int64
}

// PreWarm creates a StagingPool with count buffers of size bytes each,
// reserved against manager's Staging budget. Called once at Setup.
func PreWarm(manager *Manager, alloc AllocFunc, count int, size int64) (*StagingPool, error) {
	p := &StagingPool{
		bufSize: size,
		pool:    make(chan *Buffer, count),
		alloc:   alloc,
		manager: manager,
	}
	for i := 0; i < count; i++ {
		if _, err := manager.Reserve(Staging, size); err != nil {
			return nil, err
		}
		h, err := alloc(size)
		if err != nil {
			return nil, err
		}
		p.pool <- &Buffer{Handle: h, Size: size}
	}
	return p, nil
}

// Acquire pops a buffer from the pool without blocking. If the pool is
// empty it performs an emergency allocation outside the pre-warmed set,
// incrementing the overflow counter and logging a warning — this keeps
// Acquire itself allocation-free from the pool's perspective during
// steady state, at the cost of an explicit, observable fallback when
// the caller's working set exceeds the Setup-time estimate.
func (p *StagingPool) Acquire() (*Buffer, error) {
	select {
	case b := <-p.pool:
		return b, nil
	default:
	}
	p.overflow.Add(1)
	log.Printf("budget: staging pool exhausted, emergency-allocating %d bytes (overflow #%d)", p.bufSize, p.overflow.Load())
	if _, err := p.manager.Reserve(Staging, p.bufSize); err != nil {
		return nil, err
	}
	h, err := p.alloc(p.bufSize)
	if err != nil {
		return nil, err
	}
	return &Buffer{Handle: h, Size: p.bufSize}, nil
}

// Release returns a buffer to the pool once its fence has signaled. A
// buffer still InFlight must not be released.
func (p *StagingPool) Release(b *Buffer) {
	if b.InFlight() {
		panic("budget: released staging buffer still in flight")
	}
	select {
	case p.pool <- b:
	default:
		// Pool has no room (this was an overflow buffer); drop it and
		// release its budget reservation.
		p.manager.Release(Reservation{kind: Staging, bytes: b.Size})
	}
}

// Overflow returns the number of emergency allocations performed since
// PreWarm.
func (p *StagingPool) Overflow() int64 { return p.overflow.Load() }

// Len returns the number of buffers currently idle in the pool.
func (p *StagingPool) Len() int { return len(p.pool) }
