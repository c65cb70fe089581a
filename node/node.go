// Package node implements the node-instance base behavior and the
// capability contract every concrete node implementation satisfies:
// slot storage, the lifecycle state machine, and the typed Context
// accessors nodes use during Compile/Execute.
//
// Node polymorphism is one capability-set interface dispatched by the
// orchestrator, with optional capabilities (descriptor declaration,
// event observation) probed by interface assertion rather than a type
// hierarchy.
package node

import (
	"time"

	"github.com/Lint111/VBVS--VIXEN-sub013/corerr"
	"github.com/Lint111/VBVS--VIXEN-sub013/descriptor"
	"github.com/Lint111/VBVS--VIXEN-sub013/event"
	"github.com/Lint111/VBVS--VIXEN-sub013/resource"
	"github.com/Lint111/VBVS--VIXEN-sub013/typesys"
)

const component = "node"

// Handle stably identifies one node instance within a graph.
type Handle int64

// Lifecycle is a node's position in the lifecycle state machine.
type Lifecycle int

const (
	Created Lifecycle = iota
	Ready
	Compiled
	Dirty
	Executing
	Complete
	Error
)

func (l Lifecycle) String() string {
	switch l {
	case Created:
		return "Created"
	case Ready:
		return "Ready"
	case Compiled:
		return "Compiled"
	case Dirty:
		return "Dirty"
	case Executing:
		return "Executing"
	case Complete:
		return "Complete"
	case Error:
		return "Error"
	default:
		return "Lifecycle(?)"
	}
}

// edge is one legal (from, to) transition.
type edge struct{ from, to Lifecycle }

// transitions enumerates every legal lifecycle edge:
// Created→Ready→Compiled↔Dirty per invalidation cycle, and
// Compiled→Executing→Complete→Compiled per frame. Error is reachable
// from any state and is terminal until Reset.
var transitions = map[edge]bool{
	{Created, Ready}:      true,
	{Ready, Compiled}:     true,
	{Compiled, Dirty}:     true,
	{Dirty, Compiled}:     true,
	{Compiled, Executing}: true,
	{Executing, Complete}: true,
	{Complete, Compiled}:  true,
}

// CanTransition reports whether from→to is a legal edge, or whether to
// is Error (always legal except from Error itself, which requires
// Reset).
func CanTransition(from, to Lifecycle) bool {
	if to == Error {
		return from != Error
	}
	return transitions[edge{from, to}]
}

// Context is passed to Compile/Execute and exposes typed, tag-checked
// slot accessors over the node's pre-allocated input/output Resource
// references. It never allocates: In/Out operate on Resource
// references already stored in the Instance.
type Context struct {
	ins  []*resource.Resource
	outs []*resource.Resource
}

// In retrieves the typed value bound to input slot. It returns
// corerr.TypeMismatch if T does not match the Resource's bound tag, or
// if the slot has no connected Resource (an Optional input left
// unconnected).
func In[T resource.HandleType](ctx *Context, slot int) (T, error) {
	var zero T
	if slot < 0 || slot >= len(ctx.ins) || ctx.ins[slot] == nil {
		return zero, corerr.New(component, corerr.TypeMismatch, "input slot not connected")
	}
	return resource.GetHandle[T](ctx.ins[slot])
}

// Out stores value into output slot's Resource under the given storage
// mode. It fails with corerr.TypeMismatch if T does not match a tag
// already bound to that Resource from a prior frame.
func Out[T resource.HandleType](ctx *Context, slot int, value T, mode resource.Storage, destroy resource.DestroyFunc) error {
	if slot < 0 || slot >= len(ctx.outs) || ctx.outs[slot] == nil {
		return corerr.New(component, corerr.TypeMismatch, "output slot not allocated")
	}
	return resource.SetHandle(ctx.outs[slot], value, mode, destroy)
}

// OutResource returns the raw output Resource for slot, for capability
// implementations that need lifetime/alias-group control beyond what
// Out exposes (SetLifetime, MarkAliasGroup).
func OutResource(ctx *Context, slot int) *resource.Resource {
	if slot < 0 || slot >= len(ctx.outs) {
		return nil
	}
	return ctx.outs[slot]
}

// Capability is the contract every node type implements.
type Capability interface {
	SlotsIn() []typesys.SlotDescriptor
	SlotsOut() []typesys.SlotDescriptor
	Compile(ctx *Context) error
	Execute(ctx *Context) error
	Cleanup(ctx *Context) error
}

// DescriptorDeclarer is the optional descriptor-declaration capability:
// nodes whose Execute binds shader descriptor sets implement it to
// register their layout and estimated concurrent set count during
// Compile.
type DescriptorDeclarer interface {
	DeclareDescriptors() ([]descriptor.Binding, int)
}

// EventObserver is the optional event-observation capability.
type EventObserver interface {
	OnEvent(e event.Event)
}

// maxParams bounds the per-node parameter dictionary so Instance never
// grows it past Setup; SetParameter rejects keys beyond this count that
// are not already present.
const maxParams = 32

// Instance wraps a Capability with the base NodeInstance bookkeeping:
// stable handle, slot storage, lifecycle state, and a bounded parameter
// dictionary.
type Instance struct {
	handle Handle
	kind   string
	name   string
	cap    Capability

	state Lifecycle
	ins   []*resource.Resource
	outs  []*resource.Resource
	deps  []Handle

	params map[string]any

	// ctx is reused across Compile/Execute calls so building the typed
	// accessor view never touches the heap on the execute path.
	ctx Context

	affinity   int
	lastExecNS int64
	lastErr    error
}

// New creates an Instance in the Created state. ins/outs are the
// Resource references the graph has allocated for each declared slot,
// indexed densely per direction; a nil entry marks an unconnected
// Optional slot.
func New(handle Handle, kind, name string, capability Capability, ins, outs []*resource.Resource) *Instance {
	return &Instance{
		handle: handle,
		kind:   kind,
		name:   name,
		cap:    capability,
		state:  Created,
		ins:    ins,
		outs:   outs,
		params: make(map[string]any, 4),
	}
}

// Handle returns the node's stable handle.
func (n *Instance) Handle() Handle { return n.handle }

// Kind returns the node type identifier it was registered under.
func (n *Instance) Kind() string { return n.kind }

// Name returns the instance's user-assigned name.
func (n *Instance) Name() string { return n.name }

// State returns the node's current lifecycle state.
func (n *Instance) State() Lifecycle { return n.state }

// Capability returns the wrapped TypedNode implementation, for callers
// (DescriptorCache registration, event dispatch) that need to probe for
// optional capabilities.
func (n *Instance) Capability() Capability { return n.cap }

// SetInput binds slot to r, growing the input slice if needed. The
// graph orchestrator calls this when a connection resolves — Direct
// connections bind a single declared slot, while Variadic/Accumulation
// connections bind successive slots beyond the node's originally
// declared input count.
func (n *Instance) SetInput(slot int, r *resource.Resource) {
	n.ins = growResources(n.ins, slot)
	n.ins[slot] = r
}

// Input returns the Resource bound to input slot, or nil if
// unconnected or out of range.
func (n *Instance) Input(slot int) *resource.Resource {
	if slot < 0 || slot >= len(n.ins) {
		return nil
	}
	return n.ins[slot]
}

// SetOutput binds slot to r, growing the output slice if needed.
func (n *Instance) SetOutput(slot int, r *resource.Resource) {
	n.outs = growResources(n.outs, slot)
	n.outs[slot] = r
}

// Output returns the Resource bound to output slot, or nil if out of
// range.
func (n *Instance) Output(slot int) *resource.Resource {
	if slot < 0 || slot >= len(n.outs) {
		return nil
	}
	return n.outs[slot]
}

// InputCount and OutputCount report the current slot-slice lengths,
// including any variadic slots appended beyond the node's originally
// declared count.
func (n *Instance) InputCount() int  { return len(n.ins) }
func (n *Instance) OutputCount() int { return len(n.outs) }

func growResources(s []*resource.Resource, slot int) []*resource.Resource {
	if slot < len(s) {
		return s
	}
	grown := make([]*resource.Resource, slot+1)
	copy(grown, s)
	return grown
}

// SetDependencies records the node's dependency list, as resolved by
// the graph's ConnectionRegistry/GraphTopology.
func (n *Instance) SetDependencies(deps []Handle) { n.deps = deps }

// Dependencies returns the node's recorded dependency list.
func (n *Instance) Dependencies() []Handle { return n.deps }

// SetAffinity records the device affinity propagated along dependency
// edges (the join of input affinities, or an explicit override).
func (n *Instance) SetAffinity(a int) { n.affinity = a }

// Affinity returns the node's device affinity.
func (n *Instance) Affinity() int { return n.affinity }

// SetParameter sets a bounded, named configuration parameter. It fails
// if name is new and the dictionary is already at maxParams capacity —
// a fixed cap keeps the dictionary bounded without requiring every node
// type to pre-register its parameter names.
func (n *Instance) SetParameter(name string, value any) error {
	if _, exists := n.params[name]; !exists && len(n.params) >= maxParams {
		return corerr.WithNode(component, corerr.InvalidTransition, int64(n.handle), "parameter dictionary at capacity")
	}
	n.params[name] = value
	return nil
}

// Parameter retrieves a named parameter.
func (n *Instance) Parameter(name string) (any, bool) {
	v, ok := n.params[name]
	return v, ok
}

// transition validates and applies a lifecycle edge, leaving the state
// unchanged if the edge is illegal. Compile and Execute record an Error
// state with the triggering error through fail below.
func (n *Instance) transition(to Lifecycle) error {
	if !CanTransition(n.state, to) {
		return corerr.WithNode(component, corerr.InvalidTransition, int64(n.handle),
			"illegal transition "+n.state.String()+" -> "+to.String())
	}
	n.state = to
	return nil
}

// Transition exposes transition to the orchestrator for states it
// drives directly (Ready, Dirty) without an associated compile/execute
// call.
func (n *Instance) Transition(to Lifecycle) error { return n.transition(to) }

// Reset clears a terminal Error state back to Created, the only way out
// of Error.
func (n *Instance) Reset() {
	n.state = Created
	n.lastErr = nil
}

// LastError returns the error that drove the node into Error, if any.
func (n *Instance) LastError() error { return n.lastErr }

func (n *Instance) fail(err error) error {
	n.state = Error
	n.lastErr = err
	return err
}

// context refreshes and returns the node's reusable typed Context. The
// slice headers are re-assigned on every call because SetInput/SetOutput
// may have regrown the backing slices since the last one.
func (n *Instance) context() *Context {
	n.ctx.ins = n.ins
	n.ctx.outs = n.outs
	return &n.ctx
}

// Compile transitions Ready/Dirty → Compiled (or → Error on failure),
// invoking the wrapped capability's Compile method. Compile
// may only produce Persistent or Transient outputs and must not acquire
// resources of Execute-only inputs; neither this method nor the graph
// checks those invariants.
func (n *Instance) Compile() error {
	if n.state != Ready && n.state != Dirty {
		return n.fail(corerr.WithNode(component, corerr.InvalidTransition, int64(n.handle),
			"Compile called from state "+n.state.String()))
	}
	if err := n.cap.Compile(n.context()); err != nil {
		return n.fail(err)
	}
	return n.transition(Compiled)
}

// Execute transitions Compiled → Executing → Complete → Compiled (or
// → Error on failure), invoking the wrapped capability's Execute method and
// recording its wall-clock duration in nanoseconds.
func (n *Instance) Execute() error {
	if err := n.transition(Executing); err != nil {
		return n.fail(err)
	}
	start := time.Now()
	if err := n.cap.Execute(n.context()); err != nil {
		return n.fail(err)
	}
	n.lastExecNS = time.Since(start).Nanoseconds()
	if err := n.transition(Complete); err != nil {
		return n.fail(err)
	}
	return n.transition(Compiled)
}

// LastExecuteNS returns the node's most recent Execute duration, for
// the graph's Stats introspection surface.
func (n *Instance) LastExecuteNS() int64 { return n.lastExecNS }

// MarkDirty transitions Compiled → Dirty, driven by the orchestrator's
// invalidation cascade (see package graph) in response to an event.
func (n *Instance) MarkDirty() error { return n.transition(Dirty) }

// Cleanup invokes the wrapped capability's Cleanup method regardless of
// the node's current state (Cleanup runs during graph teardown, which
// may follow a node left in Error).
func (n *Instance) Cleanup() error { return n.cap.Cleanup(n.context()) }

// OnEvent dispatches an event to the wrapped capability if it
// implements EventObserver; it is a no-op otherwise.
func (n *Instance) OnEvent(e event.Event) {
	if obs, ok := n.cap.(EventObserver); ok {
		obs.OnEvent(e)
	}
}

// DeclareDescriptors returns the wrapped capability's descriptor
// bindings and estimated set count if it implements DescriptorDeclarer,
// or (nil, 0) otherwise.
func (n *Instance) DeclareDescriptors() ([]descriptor.Binding, int) {
	if d, ok := n.cap.(DescriptorDeclarer); ok {
		return d.DeclareDescriptors()
	}
	return nil, 0
}
