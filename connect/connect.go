// Package connect implements the connection registry governing which
// typed slot connections are legal, and in what arity, across the three
// connection kinds (Direct, Variadic, Accumulation).
//
// The rule table is grounded on the same table-driven validity-check
// idiom typesys.Registry uses for role/nullability (a map keyed by a
// small struct, checked once per call instead of a branching cascade),
// applied here to (src tag, dst tag, Kind) triples.
package connect

import (
	"github.com/Lint111/VBVS--VIXEN-sub013/corerr"
	"github.com/Lint111/VBVS--VIXEN-sub013/node"
	"github.com/Lint111/VBVS--VIXEN-sub013/typesys"
)

const component = "connect"

// Kind discriminates a connection's fan-in/fan-out shape.
type Kind int

const (
	// Direct: one producer output to one consumer input.
	Direct Kind = iota
	// Variadic: one producer to a variadic input; each call appends a
	// new slot at the next free variadic index.
	Variadic
	// Accumulation: many producers of compatible element type into an
	// ordered-collection input of Sequence<T>, registration order
	// preserved.
	Accumulation
)

func (k Kind) String() string {
	switch k {
	case Direct:
		return "Direct"
	case Variadic:
		return "Variadic"
	case Accumulation:
		return "Accumulation"
	default:
		return "Kind(?)"
	}
}

// Connection is one resolved edge in the graph.
type Connection struct {
	SrcNode  node.Handle
	SrcSlot  int
	DstNode  node.Handle
	DstSlot  int
	Kind     Kind
	Ordinal  int // variadic index, or accumulation registration order
}

type dstKey struct {
	n    node.Handle
	slot int
}

// Registry tracks every live connection and enforces the validation
// rules against the TypeRegistry and each destination slot's declared
// arity.
type Registry struct {
	types *typesys.Registry

	conns []Connection

	// singleUsed tracks Direct connections already made to a Single
	// destination slot, to reject a second one.
	singleUsed map[dstKey]bool
	// variadicNext is the next free index for a Variadic destination.
	variadicNext map[dstKey]int
	// accumOrder preserves Accumulation registration order per
	// destination slot.
	accumOrder map[dstKey][]Connection
}

// NewRegistry creates an empty Registry validating connections against
// types.
func NewRegistry(types *typesys.Registry) *Registry {
	return &Registry{
		types:        types,
		singleUsed:   make(map[dstKey]bool),
		variadicNext: make(map[dstKey]int),
		accumOrder:   make(map[dstKey][]Connection),
	}
}

// Connect validates and registers one connection. srcDesc/dstDesc are
// the producer output's and consumer input's SlotDescriptors.
func (r *Registry) Connect(srcNode node.Handle, srcSlot int, srcDesc typesys.SlotDescriptor,
	dstNode node.Handle, dstSlot int, dstDesc typesys.SlotDescriptor, kind Kind) (Connection, error) {

	if dstDesc.RoleKind == typesys.Dependency && srcDesc.RoleKind == typesys.Execute {
		return Connection{}, corerr.New(component, corerr.RoleMismatch,
			"cannot connect an Execute-only output to a Dependency input")
	}
	if !r.types.CanFlow(srcDesc.Type, dstDesc.Type) {
		return Connection{}, corerr.New(component, corerr.TypeMismatch,
			"no registered conversion from "+srcDesc.Type.String()+" to "+dstDesc.Type.String())
	}

	key := dstKey{dstNode, dstSlot}
	var c Connection

	switch kind {
	case Direct:
		if dstDesc.Ar != typesys.Single && dstDesc.Ar != typesys.Array {
			return Connection{}, corerr.New(component, corerr.SlotArityViolation,
				"Direct connection requires a Single or Array destination slot")
		}
		if dstDesc.Ar == typesys.Single && r.singleUsed[key] {
			return Connection{}, corerr.New(component, corerr.SlotArityViolation,
				"Single destination slot already connected")
		}
		r.singleUsed[key] = true
		c = Connection{SrcNode: srcNode, SrcSlot: srcSlot, DstNode: dstNode, DstSlot: dstSlot, Kind: kind}

	case Variadic:
		if dstDesc.Ar != typesys.Variadic {
			return Connection{}, corerr.New(component, corerr.SlotArityViolation,
				"Variadic connection requires a Variadic destination slot")
		}
		idx := r.variadicNext[key]
		r.variadicNext[key] = idx + 1
		c = Connection{SrcNode: srcNode, SrcSlot: srcSlot, DstNode: dstNode, DstSlot: dstSlot, Kind: kind, Ordinal: idx}

	case Accumulation:
		if dstDesc.Container != typesys.ContainerVector {
			return Connection{}, corerr.New(component, corerr.SlotArityViolation,
				"Accumulation connection requires a Sequence<T> (vector container) destination slot")
		}
		c = Connection{SrcNode: srcNode, SrcSlot: srcSlot, DstNode: dstNode, DstSlot: dstSlot,
			Kind: kind, Ordinal: len(r.accumOrder[key])}
		r.accumOrder[key] = append(r.accumOrder[key], c)

	default:
		return Connection{}, corerr.New(component, corerr.TypeMismatch, "unknown connection kind")
	}

	r.conns = append(r.conns, c)
	return c, nil
}

// AccumulationOrder returns the registration-ordered list of
// Accumulation connections feeding a destination slot.
func (r *Registry) AccumulationOrder(dst node.Handle, slot int) []Connection {
	return r.accumOrder[dstKey{dst, slot}]
}

// VariadicCount returns how many Variadic connections have been
// registered against a destination slot.
func (r *Registry) VariadicCount(dst node.Handle, slot int) int {
	return r.variadicNext[dstKey{dst, slot}]
}

// All returns every registered connection, in registration order.
func (r *Registry) All() []Connection { return r.conns }

// Disconnect removes every registered connection touching dst/slot as a
// destination, clearing its arity bookkeeping. The graph package does
// not call it.
func (r *Registry) Disconnect(dst node.Handle, slot int) {
	key := dstKey{dst, slot}
	delete(r.singleUsed, key)
	delete(r.variadicNext, key)
	delete(r.accumOrder, key)
	kept := r.conns[:0]
	for _, c := range r.conns {
		if c.DstNode == dst && c.DstSlot == slot {
			continue
		}
		kept = append(kept, c)
	}
	r.conns = kept
}
