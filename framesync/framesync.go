// Package framesync implements the frame-in-flight synchronization
// primitives (fences, image-available/render-complete semaphores) and
// the fixed-depth temporal frame history ring temporal nodes read from
// and write to.
//
// All ring storage is fixed-capacity, allocated once up front and
// indexed modulo a frame or image count, never grown on demand.
package framesync

import (
	"time"

	"github.com/Lint111/VBVS--VIXEN-sub013/corerr"
	"github.com/Lint111/VBVS--VIXEN-sub013/driver"
	"github.com/Lint111/VBVS--VIXEN-sub013/resource"
)

const component = "framesync"

// MinInFlight and MaxInFlight bound the frame-in-flight depth.
const (
	MinInFlight = 2
	MaxInFlight = 4
)

// WaitFunc blocks until fence signals or timeout elapses. It is
// supplied by the caller's concrete driver backend, since driver.Fence
// itself only exposes Destroy (see driver/sync.go): the core never
// assumes a particular blocking primitive.
type WaitFunc func(fence driver.Fence, timeout time.Duration) error

// FrameSync owns one fence and one image-available semaphore per
// frame-in-flight slot, and one render-complete semaphore per swapchain
// image — the per-image indexing for render-complete is mandatory so a
// semaphore is never reused while its image is still in flight.
type FrameSync struct {
	maxInFlight int
	fences      []driver.Fence
	imageAvail  []driver.Semaphore
	renderDone  []driver.Semaphore
	current     int
}

// New creates a FrameSync with maxInFlight fences/image-available
// semaphores and imageCount render-complete semaphores, via the
// supplied constructors. maxInFlight is clamped to [MinInFlight,
// MaxInFlight].
func New(maxInFlight, imageCount int, newFence func() (driver.Fence, error), newSem func() (driver.Semaphore, error)) (*FrameSync, error) {
	if maxInFlight < MinInFlight {
		maxInFlight = MinInFlight
	}
	if maxInFlight > MaxInFlight {
		maxInFlight = MaxInFlight
	}
	fs := &FrameSync{maxInFlight: maxInFlight}
	for i := 0; i < maxInFlight; i++ {
		f, err := newFence()
		if err != nil {
			return nil, corerr.New(component, corerr.CompileFailed, "fence creation failed: "+err.Error())
		}
		fs.fences = append(fs.fences, f)
		s, err := newSem()
		if err != nil {
			return nil, corerr.New(component, corerr.CompileFailed, "image-available semaphore creation failed: "+err.Error())
		}
		fs.imageAvail = append(fs.imageAvail, s)
	}
	for i := 0; i < imageCount; i++ {
		s, err := newSem()
		if err != nil {
			return nil, corerr.New(component, corerr.CompileFailed, "render-complete semaphore creation failed: "+err.Error())
		}
		fs.renderDone = append(fs.renderDone, s)
	}
	return fs, nil
}

// MaxInFlight returns the configured frame-in-flight depth.
func (fs *FrameSync) MaxInFlight() int { return fs.maxInFlight }

// CurrentSlot returns the frame-in-flight slot index Execute is
// currently using.
func (fs *FrameSync) CurrentSlot() int { return fs.current }

// Fence returns the fence for the current frame-in-flight slot.
func (fs *FrameSync) Fence() driver.Fence { return fs.fences[fs.current] }

// ImageAvailable returns the image-available semaphore for the current
// frame-in-flight slot.
func (fs *FrameSync) ImageAvailable() driver.Semaphore { return fs.imageAvail[fs.current] }

// RenderComplete returns the render-complete semaphore for the given
// swapchain image index (not the frame-in-flight slot).
func (fs *FrameSync) RenderComplete(imageIndex int) driver.Semaphore {
	return fs.renderDone[imageIndex]
}

// WaitForFrame blocks, via wait, on the current slot's fence. It is the
// one suspension point Execute takes before acquiring the next
// swapchain image; timeout bounds how long it may block.
func (fs *FrameSync) WaitForFrame(wait WaitFunc, timeout time.Duration) error {
	if err := wait(fs.fences[fs.current], timeout); err != nil {
		return corerr.New(component, corerr.Timeout, "frame fence wait: "+err.Error())
	}
	return nil
}

// AdvanceFrame moves to the next frame-in-flight slot, modulo
// MaxInFlight, at the end of a successfully submitted frame.
func (fs *FrameSync) AdvanceFrame() {
	fs.current = (fs.current + 1) % fs.maxInFlight
}

// Destroy releases every owned fence/semaphore. Called during Cleanup.
func (fs *FrameSync) Destroy() {
	for _, f := range fs.fences {
		f.Destroy()
	}
	for _, s := range fs.imageAvail {
		s.Destroy()
	}
	for _, s := range fs.renderDone {
		s.Destroy()
	}
	fs.fences, fs.imageAvail, fs.renderDone = nil, nil, nil
}

// frameSlot is one entry of the TimelineHistory ring: a pre-sized map
// from resource identifier to the Resource snapshot produced that
// frame.
type frameSlot struct {
	resources map[int64]*resource.Resource
}

// TimelineHistory holds a fixed-depth ring of frameSlots. The ring
// retains strong references to every stored Resource, so temporal nodes
// may read several frames back without racing a concurrent drop;
// nothing outside the ring holds a strong reference to a historical
// frame.
type TimelineHistory struct {
	depth      int
	slots      []frameSlot
	current    int
	mapHint    int
}

// NewTimelineHistory creates a ring of the given depth (clamped to at
// least 4) whose per-slot maps are pre-sized to mapHint entries so
// Store never triggers a map rehash in steady state.
func NewTimelineHistory(depth, mapHint int) *TimelineHistory {
	if depth < 4 {
		depth = 4
	}
	th := &TimelineHistory{depth: depth, mapHint: mapHint}
	th.slots = make([]frameSlot, depth)
	for i := range th.slots {
		th.slots[i].resources = make(map[int64]*resource.Resource, mapHint)
	}
	return th
}

// Depth returns the ring's configured depth.
func (th *TimelineHistory) Depth() int { return th.depth }

// Store records r under resourceID in the current frame's slot,
// retaining a strong reference via Retain.
func (th *TimelineHistory) Store(resourceID int64, r *resource.Resource) {
	r.Retain()
	slot := &th.slots[th.current]
	// Dropping the old strong ref here only decrements the count; the
	// reached-zero result is discarded, so nothing here queues the
	// Resource's destroy callback.
	if old, ok := slot.resources[resourceID]; ok && old != r {
		old.Release()
	}
	slot.resources[resourceID] = r
}

// Previous returns the Resource stored framesAgo frames back for
// resourceID, or (nil, false) if framesAgo exceeds the ring's depth or
// nothing was stored for that identifier in that frame.
func (th *TimelineHistory) Previous(framesAgo int, resourceID int64) (*resource.Resource, bool) {
	if framesAgo < 0 || framesAgo >= th.depth {
		return nil, false
	}
	idx := ((th.current-framesAgo)%th.depth + th.depth) % th.depth
	r, ok := th.slots[idx].resources[resourceID]
	return r, ok
}

// Advance moves to the next ring slot, modulo depth, at the end of a
// frame, releasing the strong references the slot about to be
// overwritten held.
func (th *TimelineHistory) Advance() {
	th.current = (th.current + 1) % th.depth
	next := &th.slots[th.current]
	for id, r := range next.resources {
		r.Release()
		delete(next.resources, id)
	}
}
