// Package graph implements the RenderGraph orchestrator that drives
// the Setup→Compile→Execute→Cleanup lifecycle over every other core
// component.
//
// Every capacity-derived pool (event backlog, staging buffers,
// descriptor sets, timeline slots) is provisioned during Setup and
// drained/replaced rather than grown during steady-state frames; one
// Cleanup pass releases everything Setup acquired, in reverse
// topological order.
package graph

import (
	"encoding/binary"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Lint111/VBVS--VIXEN-sub013/budget"
	"github.com/Lint111/VBVS--VIXEN-sub013/connect"
	"github.com/Lint111/VBVS--VIXEN-sub013/corerr"
	"github.com/Lint111/VBVS--VIXEN-sub013/descriptor"
	"github.com/Lint111/VBVS--VIXEN-sub013/driver"
	"github.com/Lint111/VBVS--VIXEN-sub013/event"
	"github.com/Lint111/VBVS--VIXEN-sub013/framesync"
	"github.com/Lint111/VBVS--VIXEN-sub013/inject"
	"github.com/Lint111/VBVS--VIXEN-sub013/instrument"
	"github.com/Lint111/VBVS--VIXEN-sub013/internal/handleset"
	"github.com/Lint111/VBVS--VIXEN-sub013/node"
	"github.com/Lint111/VBVS--VIXEN-sub013/resource"
	"github.com/Lint111/VBVS--VIXEN-sub013/topology"
	"github.com/Lint111/VBVS--VIXEN-sub013/typesys"
)

const component = "graph"

// state is the orchestrator's own phase marker, distinct from any one
// node.Lifecycle value.
type state int

const (
	stateCreated state = iota
	stateReady         // Setup succeeded
	stateCompiled
	stateError
)

// WaitFunc blocks the caller until fence signals or timeout elapses;
// forwarded to framesync.WaitForFrame.
type WaitFunc = framesync.WaitFunc

// Config bundles every Setup-time dependency the orchestrator needs:
// the GPU backend, capacity hints, and the windowing/presentation
// callables Execute invokes, so this package never imports a concrete
// swapchain or windowing backend.
type Config struct {
	GPU driver.GPU

	// NodeCountHint sizes the event bus when EventCapacity is left at
	// zero: max(64, 2*3*max(NodeCountHint, node count at Setup)).
	NodeCountHint int
	EventCapacity int
	Overflow      event.Overflow

	BudgetLimits map[budget.Kind]budget.Limits
	StagingCount int
	StagingSize  int64
	StagingAlloc budget.AllocFunc

	TimelineDepth int
	TimelineHint  int

	MaxInFlight  int
	ImageCount   int
	NewFence     func() (driver.Fence, error)
	NewSemaphore func() (driver.Semaphore, error)
	WaitFence    WaitFunc
	FenceTimeout time.Duration

	// AcquireImage returns the swapchain image index to render into
	// for the given frame-in-flight slot.
	AcquireImage func(slot int) (int, error)
	// Present submits the given image index for presentation.
	Present func(imageIndex int) error

	InjectCapacity    int
	InjectMaxDrainers int64

	// EnableAllocationTracking arms the AllocationTracker; the caller
	// resolves this from ENABLE_ALLOCATION_TRACKING (see CoreContext).
	EnableAllocationTracking bool
}

// nodeEntry is the orchestrator's bookkeeping for one added node,
// alongside the node.Instance itself.
type nodeEntry struct {
	inst     *node.Instance
	insDesc  []typesys.SlotDescriptor
	outsDesc []typesys.SlotDescriptor
	outRes   []*resource.Resource

	affinityOverride bool
	sub              event.Subscription
	hasSub           bool
}

// Graph is the render-graph orchestrator: it owns every other core
// component and drives them through Setup/Compile/Execute/Cleanup.
type Graph struct {
	cfg   Config
	types *typesys.Registry

	mu      sync.Mutex
	handles handleset.Set[uint64]
	nodes   map[node.Handle]*nodeEntry
	topo    *topology.Topology
	conns   *connect.Registry

	bus      *event.Bus
	budget   *budget.Manager
	staging  *budget.StagingPool
	descs    *descriptor.Cache
	fsync    *framesync.FrameSync
	timeline *framesync.TimelineHistory
	inject   *inject.Queue
	tracker  *instrument.Tracker

	st       state
	lastPlan []node.Handle
	deferred []*resource.Resource

	nodeExecNS map[node.Handle]int64
}

// New creates a Graph in the Created state using a fresh CoreContext.
// Every GPU-backed and capacity-derived subsystem (event bus, budgets,
// descriptor cache, frame sync, timeline history, injection queue,
// allocation tracker) is constructed by Setup once the full node set
// and its descriptor declarations are known.
func New(cfg Config) *Graph {
	return NewWithContext(NewCoreContext(), cfg)
}

// AddNode registers a new node instance of the given kind and name,
// wrapping capability, and returns its stable Handle. Output slots are
// allocated a backing Resource eagerly so Connect has something to wire
// a downstream input to; Compile is what actually populates their
// payload.
func (g *Graph) AddNode(kind, name string, capability node.Capability) (node.Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	insDesc := capability.SlotsIn()
	outsDesc := capability.SlotsOut()
	for _, d := range insDesc {
		if err := g.types.ValidateDescriptor(d, typesys.Input); err != nil {
			return 0, err
		}
	}
	for _, d := range outsDesc {
		if err := g.types.ValidateDescriptor(d, typesys.Output); err != nil {
			return 0, err
		}
	}

	idx, ok := g.handles.Search()
	if !ok {
		idx = g.handles.Grow(1)
	}
	g.handles.Set(idx)
	h := node.Handle(idx + 1)

	outRes := make([]*resource.Resource, len(outsDesc))
	for i := range outRes {
		outRes[i] = resource.New(int64(h)<<16 | int64(i))
	}
	ins := make([]*resource.Resource, len(insDesc))

	inst := node.New(h, kind, name, capability, ins, outRes)
	g.nodes[h] = &nodeEntry{inst: inst, insDesc: insDesc, outsDesc: outsDesc, outRes: outRes}
	g.topo.AddNode(h)
	return h, nil
}

// Connect declares a connection between two previously added nodes'
// slots, validating it against the ConnectionRegistry and the
// TypeRegistry and wiring the producer's output Resource into the
// consumer's resolved input slot.
func (g *Graph) Connect(srcNode node.Handle, srcSlot int, dstNode node.Handle, dstSlot int, kind connect.Kind) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	src, ok := g.nodes[srcNode]
	if !ok {
		return corerr.New(component, corerr.TypeMismatch, "connect: unknown source node")
	}
	dst, ok := g.nodes[dstNode]
	if !ok {
		return corerr.New(component, corerr.TypeMismatch, "connect: unknown destination node")
	}
	if srcSlot < 0 || srcSlot >= len(src.outsDesc) {
		return corerr.New(component, corerr.SlotArityViolation, "connect: source slot out of range")
	}
	if dstSlot < 0 || dstSlot >= len(dst.insDesc) {
		return corerr.New(component, corerr.SlotArityViolation, "connect: destination slot out of range")
	}

	conn, err := g.conns.Connect(srcNode, srcSlot, src.outsDesc[srcSlot], dstNode, dstSlot, dst.insDesc[dstSlot], kind)
	if err != nil {
		return err
	}
	if err := g.topo.Connect(srcNode, dstNode); err != nil {
		return err
	}

	actualSlot := dstSlot
	if kind != connect.Direct {
		actualSlot = dstSlot + conn.Ordinal
	}
	dst.inst.SetInput(actualSlot, src.outRes[srcSlot])
	dst.inst.SetDependencies(append(dst.inst.Dependencies(), srcNode))
	return nil
}

// SetParameter sets a bounded configuration parameter on a previously
// added node.
func (g *Graph) SetParameter(h node.Handle, name string, value any) error {
	g.mu.Lock()
	entry, ok := g.nodes[h]
	g.mu.Unlock()
	if !ok {
		return corerr.WithNode(component, corerr.TypeMismatch, int64(h), "set parameter: unknown node")
	}
	return entry.inst.SetParameter(name, value)
}

// SetAffinity overrides a node's device affinity instead of letting
// Compile propagate it from dependency edges.
func (g *Graph) SetAffinity(h node.Handle, affinity int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.nodes[h]
	if !ok {
		return corerr.WithNode(component, corerr.TypeMismatch, int64(h), "set affinity: unknown node")
	}
	entry.inst.SetAffinity(affinity)
	entry.affinityOverride = true
	return nil
}

// Build validates the graph declared so far — currently, only cycle
// freedom — without allocating any Setup-time subsystem. It is the
// standalone construction-phase check; Setup calls it
// internally before provisioning anything GPU-backed.
func (g *Graph) Build() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, found := g.topo.CycleCheck(); found {
		_, err := g.topo.TopologicalOrder()
		return err
	}
	return nil
}

// Setup provisions every capacity-derived subsystem: the event bus
// (sized max(64, 2*3*|nodes|) unless EventCapacity overrides it), the
// budget manager and pre-warmed staging pool, the descriptor cache, the
// frame-sync fences/semaphores, the timeline history ring, the
// injection queue, and the allocation tracker. It fails fast, leaving
// the graph in the Error state, on a cycle or on any subsystem's
// provisioning error.
func (g *Graph) Setup() (err error) {
	defer func() {
		if err != nil {
			g.st = stateError
		}
	}()

	if err = g.Build(); err != nil {
		return err
	}

	g.mu.Lock()
	nodeCount := len(g.nodes)
	g.mu.Unlock()

	eventCap := g.cfg.EventCapacity
	if eventCap <= 0 {
		hint := g.cfg.NodeCountHint
		if hint < nodeCount {
			hint = nodeCount
		}
		eventCap = 2 * 3 * hint
		if eventCap < 64 {
			eventCap = 64
		}
	}
	g.bus = event.New(eventCap, g.cfg.Overflow)

	g.budget = budget.NewManager(g.cfg.BudgetLimits)
	if g.cfg.StagingCount > 0 {
		g.staging, err = budget.PreWarm(g.budget, g.cfg.StagingAlloc, g.cfg.StagingCount, g.cfg.StagingSize)
		if err != nil {
			return err
		}
	}

	g.descs = descriptor.NewCache(g.cfg.GPU)

	if g.cfg.NewFence != nil && g.cfg.NewSemaphore != nil {
		g.fsync, err = framesync.New(g.cfg.MaxInFlight, g.cfg.ImageCount, g.cfg.NewFence, g.cfg.NewSemaphore)
		if err != nil {
			return err
		}
	}

	timelineHint := g.cfg.TimelineHint
	if timelineHint <= 0 {
		timelineHint = 16
	}
	g.timeline = framesync.NewTimelineHistory(g.cfg.TimelineDepth, timelineHint)

	injectCap := g.cfg.InjectCapacity
	if injectCap <= 0 {
		injectCap = 256
	}
	g.inject = inject.NewQueue(injectCap, g.cfg.InjectMaxDrainers)

	g.tracker = instrument.New(g.cfg.EnableAllocationTracking)

	g.mu.Lock()
	for h, entry := range g.nodes {
		if _, ok := entry.inst.Capability().(node.EventObserver); ok {
			entry.sub = g.bus.Subscribe(nil)
			entry.hasSub = true
		}
		if err = entry.inst.Transition(node.Ready); err != nil {
			g.mu.Unlock()
			return corerr.WithNode(component, corerr.InvalidTransition, int64(h), "setup: node not in Created state")
		}
	}
	g.mu.Unlock()

	g.st = stateReady
	return nil
}

// Compile is idempotent per invalidation: it propagates device
// affinity along dependency edges, computes a deterministic topological
// order, compiles every Ready/Dirty node (nodes already Compiled are
// left untouched, which is what makes repeated Compile calls with no
// intervening dirtying produce the same plan), registers descriptor
// estimates, and pre-allocates the descriptor pool. On any node compile
// failure it emits CompileFailed and puts the graph in its error state,
// in which Execute refuses to run. The order from the last successful
// Compile is kept, but nodes already recompiled in the failed pass are
// not rolled back and the failed node stays in node.Error.
func (g *Graph) Compile() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	order, err := g.topo.TopologicalOrder()
	if err != nil {
		g.st = stateError
		return err
	}

	for _, h := range order {
		entry := g.nodes[h]
		if entry.affinityOverride {
			continue
		}
		affinity := 0
		for _, dep := range g.topo.DirectDeps(h) {
			affinity |= g.nodes[dep].inst.Affinity()
		}
		entry.inst.SetAffinity(affinity)
	}

	var estimates []descriptor.Estimate
	for _, h := range order {
		entry := g.nodes[h]
		switch entry.inst.State() {
		case node.Compiled:
			// Already compiled and not dirtied since; idempotent no-op.
		case node.Ready, node.Dirty:
			if err = entry.inst.Compile(); err != nil {
				g.emitCompileFailed(h)
				g.st = stateError
				return err
			}
		default:
			err = corerr.WithNode(component, corerr.InvalidTransition, int64(h),
				"compile called with node in "+entry.inst.State().String())
			g.emitCompileFailed(h)
			g.st = stateError
			return err
		}
		if bindings, count := entry.inst.DeclareDescriptors(); count > 0 {
			_, layout, derr := g.descs.GetOrCreate(bindings)
			if derr != nil {
				g.emitCompileFailed(h)
				g.st = stateError
				return derr
			}
			estimates = append(estimates, descriptor.Estimate{Layout: layout, SetCount: count, NodeOwner: int64(h)})
		}
	}

	if err = g.checkAliasing(order); err != nil {
		g.emitCompileFailed(0)
		g.st = stateError
		return err
	}

	if len(estimates) > 0 {
		if err = g.descs.PreAllocate(estimates); err != nil {
			g.st = stateError
			return err
		}
	}

	// Seed the per-node timing map now so Execute only ever overwrites
	// existing keys; a first-frame map insert would count against the
	// allocation tracker.
	for _, h := range order {
		if _, ok := g.nodeExecNS[h]; !ok {
			g.nodeExecNS[h] = 0
		}
	}

	g.lastPlan = order
	g.st = stateCompiled
	return nil
}

// checkAliasing verifies that transient resources sharing an alias
// group have non-overlapping live intervals. A resource is live from
// its producer's position in the compiled order to its last consumer's;
// two group members whose intervals touch would occupy the same memory
// while both hold data.
func (g *Graph) checkAliasing(order []node.Handle) error {
	pos := make(map[node.Handle]int, len(order))
	for i, h := range order {
		pos[h] = i
	}

	type interval struct{ first, last int }
	groups := make(map[int64][]interval)
	for h, entry := range g.nodes {
		for slot, r := range entry.outRes {
			grp, ok := r.AliasGroup()
			if !ok || r.Lifetime() != resource.Transient {
				continue
			}
			iv := interval{first: pos[h], last: pos[h]}
			for _, c := range g.conns.All() {
				if c.SrcNode == h && c.SrcSlot == slot && pos[c.DstNode] > iv.last {
					iv.last = pos[c.DstNode]
				}
			}
			groups[grp] = append(groups[grp], iv)
		}
	}

	for grp, ivs := range groups {
		sort.Slice(ivs, func(i, j int) bool { return ivs[i].first < ivs[j].first })
		for i := 1; i < len(ivs); i++ {
			if ivs[i].first <= ivs[i-1].last {
				return corerr.New(component, corerr.CompileFailed,
					"alias group "+strconv.FormatInt(grp, 10)+": overlapping live intervals")
			}
		}
	}
	return nil
}

func (g *Graph) emitCompileFailed(origin node.Handle) {
	if g.bus == nil {
		return
	}
	var payload [8]byte
	binary.LittleEndian.PutUint64(payload[:], uint64(origin))
	g.bus.Emit(event.KindCompileFailed, payload[:])
}

// Execute runs one frame: it waits for the current frame-in-flight
// slot's fence, acquires a swapchain image via the injected callable,
// processes the event bus and delivers queued events to every
// subscribed node, walks the compiled topological order invoking each
// node's execute, asserts zero heap allocation if the tracker is armed,
// presents, and advances the frame index.
func (g *Graph) Execute() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.st != stateCompiled {
		return corerr.New(component, corerr.InvalidTransition, "execute called before a successful compile")
	}

	g.tracker.Arm()

	var slot int
	if g.fsync != nil {
		if g.cfg.WaitFence != nil {
			if err := g.fsync.WaitForFrame(g.cfg.WaitFence, g.cfg.FenceTimeout); err != nil {
				return err
			}
		}
		slot = g.fsync.CurrentSlot()
	}

	imgIdx := 0
	if g.cfg.AcquireImage != nil {
		idx, err := g.cfg.AcquireImage(slot)
		if err != nil {
			return corerr.New(component, corerr.SwapchainOutOfDate, "acquire image: "+err.Error())
		}
		imgIdx = idx
	}

	g.bus.ProcessEvents()
	for _, entry := range g.nodes {
		if entry.hasSub {
			g.bus.Deliver(entry.sub, entry.inst.OnEvent)
		}
	}

	for _, h := range g.lastPlan {
		entry := g.nodes[h]
		if entry.inst.State() != node.Compiled {
			continue
		}
		if err := entry.inst.Execute(); err != nil {
			return err
		}
		g.nodeExecNS[h] = entry.inst.LastExecuteNS()
	}

	if _, err := g.tracker.Check(component, "Execute"); err != nil {
		return err
	}

	if g.cfg.Present != nil {
		if err := g.cfg.Present(imgIdx); err != nil {
			return corerr.New(component, corerr.SwapchainOutOfDate, "present: "+err.Error())
		}
	}

	if g.fsync != nil {
		g.fsync.AdvanceFrame()
	}
	g.timeline.Advance()
	return nil
}

// MarkDirty transitions h, and every node transitively depending on
// it, from Compiled to Dirty, so the next Compile call rebuilds exactly
// the invalidated subset. It is the orchestrator's cascade primitive:
// since this package has no concrete WindowNode/SwapchainNode types to
// auto-discover (those are external-collaborator node kinds per the
// core's scope), callers identify the root of an invalidation
// explicitly — OnWindowResize/OnDeviceLost below are thin wrappers over
// it.
func (g *Graph) MarkDirty(h node.Handle) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.markDirtyLocked(h)
}

func (g *Graph) markDirtyLocked(h node.Handle) error {
	entry, ok := g.nodes[h]
	if !ok {
		return corerr.WithNode(component, corerr.TypeMismatch, int64(h), "mark dirty: unknown node")
	}
	if entry.inst.State() == node.Compiled {
		if err := entry.inst.MarkDirty(); err != nil {
			return err
		}
	}
	for _, dep := range g.topo.TransitiveDependents(h) {
		if d := g.nodes[dep]; d.inst.State() == node.Compiled {
			if err := d.inst.MarkDirty(); err != nil {
				return err
			}
		}
	}
	return nil
}

// OnWindowResize emits KindWindowResize (payload: width, height as two
// little-endian int64s) and cascades Dirty from each affected root
// handle — typically the swapchain-backed node(s) the caller's
// surface-management code knows are bound to the resized window.
func (g *Graph) OnWindowResize(width, height int, affected ...node.Handle) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var payload [16]byte
	binary.LittleEndian.PutUint64(payload[0:8], uint64(int64(width)))
	binary.LittleEndian.PutUint64(payload[8:16], uint64(int64(height)))
	if _, err := g.bus.Emit(event.KindWindowResize, payload[:]); err != nil {
		return err
	}
	for _, h := range affected {
		if err := g.markDirtyLocked(h); err != nil {
			return err
		}
	}
	return nil
}

// OnDeviceLost emits KindDeviceLost (payload: deviceID as a
// little-endian int64) and cascades Dirty from each node handle bound
// to the lost device, isolating that subgraph for recompilation while
// the rest of the graph continues.
func (g *Graph) OnDeviceLost(deviceID int64, affected ...node.Handle) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var payload [8]byte
	binary.LittleEndian.PutUint64(payload[:], uint64(deviceID))
	if _, err := g.bus.Emit(event.KindDeviceLost, payload[:]); err != nil {
		return err
	}
	for _, h := range affected {
		if err := g.markDirtyLocked(h); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup tears the graph down: it invokes every node's cleanup in
// reverse topological order, releases their output resources (deferring
// actual destruction to the end of the pass, so destruction
// never occurs synchronously on release" guarantee), unsubscribes every
// node's event subscription, and flushes the descriptor cache.
func (g *Graph) Cleanup() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var first error
	for i := len(g.lastPlan) - 1; i >= 0; i-- {
		entry := g.nodes[g.lastPlan[i]]
		if err := entry.inst.Cleanup(); err != nil && first == nil {
			first = err
		}
		for _, r := range entry.outRes {
			if r == nil {
				continue
			}
			if r.Release() {
				g.deferred = append(g.deferred, r)
			}
		}
		if entry.hasSub {
			g.bus.Unsubscribe(entry.sub)
		}
	}

	for _, r := range g.deferred {
		r.InvokeDestroy()
	}
	g.deferred = nil

	if g.descs != nil {
		g.descs.Flush()
	}
	if g.fsync != nil {
		g.fsync.Destroy()
	}

	g.st = stateCreated
	return first
}

// Emit publishes an event on the graph's bus. Safe for concurrent
// callers; producers may emit from worker goroutines.
func (g *Graph) Emit(kind event.Kind, payload []byte) (bool, error) {
	return g.bus.Emit(kind, payload)
}

// Subscribe registers a subscription against the graph's event bus.
func (g *Graph) Subscribe(filter func(event.Kind) bool) event.Subscription {
	return g.bus.Subscribe(filter)
}

// Topology returns the most recently compiled topological order.
func (g *Graph) Topology() []node.Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]node.Handle, len(g.lastPlan))
	copy(out, g.lastPlan)
	return out
}

// Stats is the introspection snapshot returned by Graph.Stats.
type Stats struct {
	EventDepth        int
	EventCapacity     int
	BudgetUtilization map[budget.Kind]float64
	StagingOverflow   int64
	InjectStats       inject.Stats
	NodeExecuteNS     map[node.Handle]int64
	AllocationArmed   bool
	PooledDescSets    int
	RequestedDescSets int
}

// Stats reports the allocation counters, budget utilization, event
// queue depth, and per-node last-execute-ns the introspection
// surface requires.
func (g *Graph) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Stats{
		BudgetUtilization: make(map[budget.Kind]float64),
		NodeExecuteNS:     make(map[node.Handle]int64, len(g.nodeExecNS)),
		AllocationArmed:   g.tracker != nil && g.tracker.Enabled(),
	}
	if g.bus != nil {
		s.EventDepth = g.bus.Depth()
		s.EventCapacity = g.bus.Capacity()
	}
	if g.budget != nil {
		for _, k := range []budget.Kind{budget.DeviceLocal, budget.HostVisible, budget.Staging} {
			s.BudgetUtilization[k] = g.budget.Utilization(k)
		}
	}
	if g.staging != nil {
		s.StagingOverflow = g.staging.Overflow()
	}
	if g.inject != nil {
		s.InjectStats = g.inject.Stats()
	}
	if g.descs != nil {
		s.PooledDescSets = g.descs.PooledSets()
		s.RequestedDescSets = g.descs.RequestedSets()
	}
	for h, ns := range g.nodeExecNS {
		s.NodeExecuteNS[h] = ns
	}
	return s
}

// Inject returns the graph's injection queue, for external worker
// threads to Enqueue against and the owning thread to DrainBatch
// between frames.
func (g *Graph) Inject() *inject.Queue { return g.inject }

// Node returns the node.Instance registered under h, for callers that
// need to inspect a node's state directly (tests, diagnostics).
func (g *Graph) Node(h node.Handle) (*node.Instance, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.nodes[h]
	if !ok {
		return nil, false
	}
	return entry.inst, true
}
