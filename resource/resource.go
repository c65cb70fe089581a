// Package resource implements the value holder that flows between
// nodes in a render graph: a type-tagged, lifetime-managed, refcounted
// payload with deferred destruction. Refcount and lifetime flags live
// alongside the payload, and destruction is always queued rather than
// run synchronously on release.
package resource

import (
	"sync/atomic"

	"github.com/Lint111/VBVS--VIXEN-sub013/corerr"
	"github.com/Lint111/VBVS--VIXEN-sub013/typesys"
)

const component = "resource"

// Lifetime classifies how long a Resource's payload remains valid.
type Lifetime int

const (
	// Transient resources may be aliased with others sharing an
	// alias group, provided their live intervals do not overlap.
	Transient Lifetime = iota
	// Persistent resources survive across frames.
	Persistent
	// Imported resources are owned externally; the graph never
	// destroys their payload.
	Imported
	// Static resources are immutable after creation.
	Static
)

func (l Lifetime) String() string {
	switch l {
	case Transient:
		return "Transient"
	case Persistent:
		return "Persistent"
	case Imported:
		return "Imported"
	case Static:
		return "Static"
	default:
		return "Lifetime(?)"
	}
}

// Storage classifies how a Resource's payload is held.
type Storage int

const (
	// Empty holds no payload yet.
	Empty Storage = iota
	// ByValue copies the payload in and out.
	ByValue
	// ByReference shares a handle with other owners via refcount.
	ByReference
	// ByPointer holds a raw pointer to externally owned data.
	ByPointer
)

func (s Storage) String() string {
	switch s {
	case Empty:
		return "Empty"
	case ByValue:
		return "ByValue"
	case ByReference:
		return "ByReference"
	case ByPointer:
		return "ByPointer"
	default:
		return "Storage(?)"
	}
}

// HandleType is the contract a payload type must satisfy to be stored
// in a Resource via SetHandle/GetHandle. TypeTag identifies the
// TypeRegistry tag the value represents, so the tag check in
// SetHandle/GetHandle needs no reflection: it is an ordinary method
// call plus a Go type assertion.
type HandleType interface {
	TypeTag() typesys.Tag
}

// DestroyFunc releases a payload's external resources, if any. It is
// invoked through InvokeDestroy by the owner's deferred cleanup pass,
// never synchronously from Release.
type DestroyFunc func()

// Resource is one value flowing between node slots. Its type tag is
// fixed after the first successful SetHandle call; every later
// SetHandle/GetHandle against a different T fails with
// corerr.TypeMismatch.
type Resource struct {
	id       int64
	tag      typesys.Tag
	tagSet   bool
	storage  Storage
	lifetime Lifetime
	payload  any
	destroy  DestroyFunc
	aliasGrp int64
	hasAlias bool

	refcount atomic.Int64
}

// New creates a Resource with no payload set yet, identified by id
// (typically a handle allocated by the graph's handleset). lifetime
// defaults to Transient; call SetLifetime to override it before first
// use.
func New(id int64) *Resource {
	r := &Resource{id: id, lifetime: Transient}
	r.refcount.Store(1)
	return r
}

// ID returns the Resource's stable identity.
func (r *Resource) ID() int64 { return r.id }

// Tag returns the TypeRegistry tag bound to the Resource, or the zero
// Tag if no value has been set yet.
func (r *Resource) Tag() typesys.Tag { return r.tag }

// Storage returns the current storage mode.
func (r *Resource) Storage() Storage { return r.storage }

// Lifetime returns the current lifetime classification.
func (r *Resource) Lifetime() Lifetime { return r.lifetime }

// SetLifetime changes the Resource's lifetime classification. It must
// be called before the Resource is shared across nodes; it does not
// itself validate alias-group overlap, which is the topological
// compiler's responsibility.
func (r *Resource) SetLifetime(l Lifetime) { r.lifetime = l }

// MarkAliasGroup assigns the Resource to an aliasing group. Resources
// sharing a group may share underlying device memory provided their
// live intervals, computed by the compiler from last-use, do not
// overlap.
func (r *Resource) MarkAliasGroup(group int64) {
	r.aliasGrp = group
	r.hasAlias = true
}

// AliasGroup returns the Resource's alias group and whether one has
// been assigned.
func (r *Resource) AliasGroup() (int64, bool) { return r.aliasGrp, r.hasAlias }

// SetHandle stores value under the given storage mode, binding the
// Resource's type tag to T.TypeTag() on first call. Subsequent calls
// must supply the same tag or fail with corerr.TypeMismatch; the
// payload is replaced only once the tag matches.
func SetHandle[T HandleType](r *Resource, value T, mode Storage, destroy DestroyFunc) error {
	tag := value.TypeTag()
	if r.tagSet && r.tag != tag {
		return corerr.New(component, corerr.TypeMismatch,
			"resource tag fixed after first set")
	}
	r.tag = tag
	r.tagSet = true
	r.storage = mode
	r.payload = value
	r.destroy = destroy
	return nil
}

// GetHandle retrieves the payload as T. It fails with
// corerr.TypeMismatch if the Resource's bound tag does not match
// T.TypeTag(), or if no value has been set.
func GetHandle[T HandleType](r *Resource) (T, error) {
	var zero T
	if !r.tagSet || r.tag != zero.TypeTag() {
		return zero, corerr.New(component, corerr.TypeMismatch,
			"resource tag mismatch on get")
	}
	v, ok := r.payload.(T)
	if !ok {
		return zero, corerr.New(component, corerr.TypeMismatch,
			"resource payload type assertion failed")
	}
	return v, nil
}

// Retain increments the refcount. It is monotonic within a frame:
// callers must not Retain after the count has reached zero.
func (r *Resource) Retain() { r.refcount.Add(1) }

// Release decrements the refcount and reports whether it reached
// zero. The caller is responsible for invoking the Resource's destroy
// function (InvokeDestroy); Release itself never
// destroys anything synchronously, so a release during Execute never
// triggers an allocation or a driver call on that path.
func (r *Resource) Release() (reachedZero bool) {
	return r.refcount.Add(-1) == 0
}

// RefCount returns the current refcount.
func (r *Resource) RefCount() int64 { return r.refcount.Load() }

// destroyFunc returns the registered destroy callback, or nil.
func (r *Resource) destroyFunc() DestroyFunc { return r.destroy }

// InvokeDestroy runs the Resource's registered destroy callback, if
// any, and clears the payload. It is the Cleanup-phase counterpart to
// Release: Release only reports refcount reaching zero, and a
// deferred-destruction queue outside this package calls InvokeDestroy
// once it decides it is safe to actually free the payload. Calling it
// on a Resource with no destroy callback (Imported lifetime, or a
// payload that owns no external resource) is a no-op.
func (r *Resource) InvokeDestroy() {
	if r.destroy != nil {
		r.destroy()
	}
	r.destroy = nil
	r.payload = nil
	r.tagSet = false
}
