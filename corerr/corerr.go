// Package corerr defines the closed set of error kinds shared by every
// VIXEN core component and the CoreError type that carries them.
//
// Individual packages pass their component name and a reason to New or
// WithNode (typesys wraps this in its newTypeErr helper), so callers can
// switch on Kind instead of matching strings.
package corerr

import "fmt"

// Kind enumerates every error class the core can produce. It is a
// closed set: new values are never introduced outside this package.
type Kind int

const (
	// TypeMismatch: a typed get/set or connection used a value type
	// inconsistent with the slot's or resource's registered type tag.
	TypeMismatch Kind = iota + 1
	// SlotArityViolation: a connection would exceed a slot's declared
	// arity (Single/Array/Variadic bound).
	SlotArityViolation
	// RoleMismatch: a connection violates the Dependency/Execute role
	// compatibility table.
	RoleMismatch
	// CyclicGraph: topological sort detected a cycle.
	CyclicGraph
	// BudgetExhausted: a budget reservation could not be satisfied,
	// even after soft-overdraft.
	BudgetExhausted
	// QueueFull: a fixed-capacity queue rejected an enqueue under the
	// Strict overflow policy.
	QueueFull
	// DeviceLost: the GPU device backing a subgraph became unusable.
	DeviceLost
	// SwapchainOutOfDate: presentation surface needs recreation.
	SwapchainOutOfDate
	// CompileFailed: a Compile phase failed and was rolled back.
	CompileFailed
	// AllocationViolated: the debug allocation tracker observed a
	// non-zero allocation count during Execute.
	AllocationViolated
	// Timeout: an explicit wait (e.g. a frame fence) exceeded its
	// caller-specified timeout.
	Timeout
	// InvalidTransition: a lifecycle state transition was attempted
	// outside the state machine's allowed edges.
	InvalidTransition
)

// String renders the kind's canonical name.
func (k Kind) String() string {
	switch k {
	case TypeMismatch:
		return "TypeMismatch"
	case SlotArityViolation:
		return "SlotArityViolation"
	case RoleMismatch:
		return "RoleMismatch"
	case CyclicGraph:
		return "CyclicGraph"
	case BudgetExhausted:
		return "BudgetExhausted"
	case QueueFull:
		return "QueueFull"
	case DeviceLost:
		return "DeviceLost"
	case SwapchainOutOfDate:
		return "SwapchainOutOfDate"
	case CompileFailed:
		return "CompileFailed"
	case AllocationViolated:
		return "AllocationViolated"
	case Timeout:
		return "Timeout"
	case InvalidTransition:
		return "InvalidTransition"
	default:
		return "Unknown"
	}
}

// CoreError is the error value returned by every fallible core operation.
// It carries a component tag and, where applicable, an originating node
// handle.
type CoreError struct {
	Kind      Kind
	Component string
	Node      int64 // node.Handle value, or 0 if not applicable
	Reason    string
}

func (e *CoreError) Error() string {
	if e.Node != 0 {
		return fmt.Sprintf("%s: %s: %s (node %d)", e.Component, e.Kind, e.Reason, e.Node)
	}
	return fmt.Sprintf("%s: %s: %s", e.Component, e.Kind, e.Reason)
}

// New builds a CoreError with no associated node.
func New(component string, kind Kind, reason string) *CoreError {
	return &CoreError{Kind: kind, Component: component, Reason: reason}
}

// WithNode builds a CoreError associated with the given node handle.
func WithNode(component string, kind Kind, node int64, reason string) *CoreError {
	return &CoreError{Kind: kind, Component: component, Node: node, Reason: reason}
}

// Is reports whether err is a *CoreError with the given Kind. It
// type-asserts err directly and does not unwrap, so a CoreError wrapped
// by another error is not matched.
func Is(err error, kind Kind) bool {
	ce, ok := err.(*CoreError)
	return ok && ce.Kind == kind
}
