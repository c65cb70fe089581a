// Package descriptor implements a shader-reflection-driven
// descriptor layout cache and pre-allocated set pool, so Execute never
// performs a descriptor allocation.
//
// Layouts are interned by content: each node-declared binding list is
// canonicalized and keyed by a stable hash, so layouts that differ only
// in declaration order share one DescHeap. The node set is not known
// until graph build time, which is why this is a runtime cache rather
// than a fixed enumeration of layouts.
package descriptor

import (
	"sort"
	"strings"

	"github.com/Lint111/VBVS--VIXEN-sub013/corerr"
	"github.com/Lint111/VBVS--VIXEN-sub013/driver"
)

const component = "descriptor"

// Binding is one entry a node's DeclareDescriptors capability
// contributes to a requested layout.
type Binding struct {
	Nr     int
	Type   driver.DescType
	Stages driver.Stage
	Len    int
}

// Layout is a canonicalized, hashable descriptor set layout request.
type Layout struct {
	Bindings []Binding
	hash     string
}

// canonicalize sorts bindings by Nr (the only ordering that affects
// driver.DescHeap construction) and computes a stable content hash used
// for both cache lookup and round-trip layout comparison.
func canonicalize(bindings []Binding) Layout {
	cp := append([]Binding(nil), bindings...)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Nr < cp[j].Nr })
	var b strings.Builder
	for _, d := range cp {
		b.WriteString(itoa(d.Nr))
		b.WriteByte(':')
		b.WriteString(itoa(int(d.Type)))
		b.WriteByte(':')
		b.WriteString(itoa(int(d.Stages)))
		b.WriteByte(':')
		b.WriteString(itoa(d.Len))
		b.WriteByte(';')
	}
	return Layout{Bindings: cp, hash: b.String()}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Hash returns the Layout's content hash. Two Layouts built from
// bindings that differ only in input order hash equal.
func (l Layout) Hash() string { return l.hash }

// Equal reports whether two Layouts are the same canonical layout.
func (l Layout) Equal(o Layout) bool { return l.hash == o.hash }

// Estimate is one node's descriptor-set demand, declared during
// Compile: the layout it needs and how many concurrent sets of it the
// node expects to use.
type Estimate struct {
	Layout    Layout
	SetCount  int
	NodeOwner int64
}

// Headroom is the fixed extra fraction of estimated sets the cache
// pools up, so minor estimate undercounts do not force a mid-Execute
// allocation.
const Headroom = 0.25

// cachedLayout is one canonicalized layout plus the driver.DescHeap
// backing it.
type cachedLayout struct {
	layout Layout
	heap   driver.DescHeap
}

// Cache owns the canonical-layout table and the pre-allocated
// descriptor pool built from the sum of Compile-time estimates.
type Cache struct {
	gpu     driver.GPU
	layouts []cachedLayout
	byHash  map[string]int

	pooled    int
	requested int
}

// NewCache creates an empty Cache bound to gpu, which backs every
// DescHeap the cache creates.
func NewCache(gpu driver.GPU) *Cache {
	return &Cache{gpu: gpu, byHash: make(map[string]int)}
}

// GetOrCreate canonicalizes bindings and returns the cached
// driver.DescHeap for that layout, creating and caching a new one on
// first request. Subsequent requests for an identical (up to binding
// order) layout return the same heap.
func (c *Cache) GetOrCreate(bindings []Binding) (driver.DescHeap, Layout, error) {
	layout := canonicalize(bindings)
	if i, ok := c.byHash[layout.hash]; ok {
		return c.layouts[i].heap, c.layouts[i].layout, nil
	}
	descs := make([]driver.Descriptor, len(layout.Bindings))
	for i, b := range layout.Bindings {
		descs[i] = driver.Descriptor{Type: b.Type, Stages: b.Stages, Nr: b.Nr, Len: b.Len}
	}
	heap, err := c.gpu.NewDescHeap(descs)
	if err != nil {
		return nil, Layout{}, corerr.New(component, corerr.CompileFailed, "descriptor heap creation failed: "+err.Error())
	}
	c.byHash[layout.hash] = len(c.layouts)
	c.layouts = append(c.layouts, cachedLayout{layout: layout, heap: heap})
	return heap, layout, nil
}

// PreAllocate pools every registered layout up to the sum of its
// estimates plus Headroom, by calling DescHeap.New once per layout with
// the fixed copy count. This must run once, near the end of Compile,
// after every node has registered its estimates; Execute then performs
// zero descriptor allocation because every set a node will bind already
// exists as a heap copy.
func (c *Cache) PreAllocate(estimates []Estimate) error {
	perLayout := make(map[string]int)
	for _, e := range estimates {
		canon := canonicalize(e.Layout.Bindings)
		perLayout[canon.hash] += e.SetCount
	}
	c.requested = 0
	for _, n := range perLayout {
		c.requested += n
	}
	c.pooled = 0
	for hash, count := range perLayout {
		i, ok := c.byHash[hash]
		if !ok {
			return corerr.New(component, corerr.CompileFailed, "pre-allocate requested for unregistered layout")
		}
		withHeadroom := count + int(float64(count)*Headroom) + 1
		if err := c.layouts[i].heap.New(withHeadroom); err != nil {
			return corerr.New(component, corerr.CompileFailed, "descriptor pool allocation failed: "+err.Error())
		}
		c.pooled += withHeadroom
	}
	return nil
}

// PooledSets returns the total number of descriptor-set copies the
// cache has pre-allocated across all layouts; it is always at least the
// sum of the estimates handed to PreAllocate.
func (c *Cache) PooledSets() int { return c.pooled }

// RequestedSets returns the sum of set-count estimates the last
// PreAllocate call was given, before headroom.
func (c *Cache) RequestedSets() int { return c.requested }

// Flush destroys every cached DescHeap and clears the cache. Called
// during Cleanup.
func (c *Cache) Flush() {
	for _, l := range c.layouts {
		l.heap.Destroy()
	}
	c.layouts = nil
	c.byHash = make(map[string]int)
	c.pooled = 0
	c.requested = 0
}
