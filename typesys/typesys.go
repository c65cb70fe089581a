// Package typesys implements the closed, enumerable set of legal slot
// value types (the TypeRegistry) and the SlotDescriptor metadata that
// identifies one input or output port of a node type.
//
// The registry is a small fixed set of tags with a table-driven
// validity check, rather than reflection-based type discovery.
package typesys

import (
	"github.com/Lint111/VBVS--VIXEN-sub013/corerr"
)

const component = "typesys"

func newTypeErr(kind corerr.Kind, reason string) error {
	return corerr.New(component, kind, reason)
}

// Tag identifies one legal slot value type. Tags are a closed,
// enumerable set fixed at compile time; TypeRegistry never admits a tag
// outside this list.
type Tag int

const (
	// TagInvalid is the zero value; it never appears on a registered
	// slot or a set Resource.
	TagInvalid Tag = iota

	// Opaque GPU handles.
	TagImage
	TagBuffer
	TagImageView
	TagSampler
	TagPipeline
	TagDescriptorSet
	TagSemaphore
	TagFence

	// Scalars.
	TagInt64
	TagFloat64
	TagBool
	TagString

	// Small POD structs.
	TagCameraData
	TagStructSpreader

	// Bounded discriminated union used at inter-node descriptor-gather
	// boundaries.
	TagDescriptorHandleVariant
)

var tagNames = map[Tag]string{
	TagImage:                   "Image",
	TagBuffer:                  "Buffer",
	TagImageView:               "ImageView",
	TagSampler:                 "Sampler",
	TagPipeline:                "Pipeline",
	TagDescriptorSet:           "DescriptorSet",
	TagSemaphore:               "Semaphore",
	TagFence:                   "Fence",
	TagInt64:                   "Int64",
	TagFloat64:                 "Float64",
	TagBool:                    "Bool",
	TagString:                  "String",
	TagCameraData:              "CameraData",
	TagStructSpreader:          "StructSpreader",
	TagDescriptorHandleVariant: "DescriptorHandleVariant",
}

// String renders the tag's registered name, or "Invalid" for the zero
// value and any value outside the registry.
func (t Tag) String() string {
	if n, ok := tagNames[t]; ok {
		return n
	}
	return "Invalid"
}

// Container classifies the shape in which a Tag's values may be carried.
type Container int

const (
	// ContainerNone: a bare scalar value of the tag's type.
	ContainerNone Container = iota
	// ContainerArray: a fixed-length sequence of the tag's type.
	ContainerArray
	// ContainerVector: an ordered, growable sequence of the tag's
	// type (used by Accumulation connections into Sequence<T>).
	ContainerVector
	// ContainerVariant: the bounded discriminated union
	// (DescriptorHandleVariant only).
	ContainerVariant
)

// Nullability of a slot.
type Nullability int

const (
	Required Nullability = iota
	Optional
)

// Role of a slot within the compile/execute lifecycle.
type Role int

const (
	// Dependency: needed to compile.
	Dependency Role = iota
	// Execute: sampled each frame.
	Execute
)

// Mutability of a slot.
type Mutability int

const (
	ReadOnly Mutability = iota
	WriteOnly
)

// Scope of a slot's visibility.
type Scope int

const (
	NodeLevel Scope = iota
	GraphLevel
)

// Arity bounds how many connections a slot may carry.
type Arity int

const (
	Single Arity = iota
	Array
	Variadic
)

// Direction of a slot: input or output.
type Direction int

const (
	Input Direction = iota
	Output
)

// SlotDescriptor identifies one input or output port of a node type.
type SlotDescriptor struct {
	// Index is the slot's stable index within its direction; indices
	// are dense [0..N) per direction.
	Index int
	// Name is the slot's human-readable name.
	Name string
	// Type is the slot's value type tag; it must be registered.
	Type Tag
	// Container is the shape in which values are carried.
	Container Container
	// Null is Required or Optional.
	Null Nullability
	// RoleKind is Dependency or Execute.
	RoleKind Role
	// Mut is ReadOnly or WriteOnly.
	Mut Mutability
	// Sc is NodeLevel or GraphLevel.
	Sc Scope
	// Ar bounds the slot's connection count.
	Ar Arity
}

// Registry is the closed set of legal slot value types and their
// validity table. The zero value registers no tag; NewRegistry builds
// one populated with every Tag declared above. Registry holds no
// mutable state after construction.
type Registry struct {
	tags map[Tag]Container
}

// NewRegistry builds the standard VIXEN TypeRegistry.
func NewRegistry() *Registry {
	r := &Registry{tags: make(map[Tag]Container, len(tagNames))}
	for t := range tagNames {
		r.tags[t] = ContainerNone
	}
	// Only DescriptorHandleVariant is ever carried as ContainerVariant;
	// every other tag may additionally appear as Array/Vector (a
	// container of type T is valid iff T is valid), which IsContainer
	// below expresses by widening acceptance rather than by per-tag
	// enumeration.
	return r
}

// IsRegistered reports whether tag is a member of the closed type set.
func (r *Registry) IsRegistered(tag Tag) bool {
	_, ok := r.tags[tag]
	return ok
}

// IsContainer reports the container shape legal for tag, or false if tag
// itself is not registered. A container of type T is valid iff T is
// valid: any registered tag may be wrapped in None/Array/Vector; only
// DescriptorHandleVariant may use ContainerVariant.
func (r *Registry) IsContainer(tag Tag, shape Container) bool {
	if !r.IsRegistered(tag) {
		return false
	}
	if shape == ContainerVariant {
		return tag == TagDescriptorHandleVariant
	}
	return true
}

// roleTable encodes which (Role, Nullability) combinations are legal,
// and on which directions.
type roleKey struct {
	role Role
	null Nullability
}

var validDirections = map[roleKey][]Direction{
	{Dependency, Required}: {Input},
	{Dependency, Optional}: {Input},
	{Execute, Required}:    {Input, Output},
	{Execute, Optional}:    {Input},
}

// ValidateDescriptor checks a SlotDescriptor against the registry and
// the role/nullability/direction table, returning a *corerr.CoreError
// on the first violation found.
func (r *Registry) ValidateDescriptor(d SlotDescriptor, dir Direction) error {
	if !r.IsRegistered(d.Type) {
		return newTypeErr(corerr.TypeMismatch, "unregistered slot type "+d.Type.String())
	}
	if !r.IsContainer(d.Type, d.Container) {
		return newTypeErr(corerr.TypeMismatch, "invalid container shape for type "+d.Type.String())
	}
	dirs, ok := validDirections[roleKey{d.RoleKind, d.Null}]
	if !ok {
		return newTypeErr(corerr.RoleMismatch, "inconsistent role/nullability combination")
	}
	for _, allowed := range dirs {
		if allowed == dir {
			return nil
		}
	}
	return newTypeErr(corerr.RoleMismatch, "direction not permitted for this role/nullability combination")
}

// CanFlow reports whether a value of type src may flow into a slot typed
// dst, either because the tags match exactly or because an implicit
// conversion is registered (see implicitConversions).
func (r *Registry) CanFlow(src, dst Tag) bool {
	if src == dst {
		return true
	}
	return implicitConversions[conversionKey{src, dst}]
}

type conversionKey struct{ from, to Tag }

// implicitConversions lists the few lossless scalar widenings the
// connection layer is permitted to apply automatically. The set is
// intentionally small: the closed TypeRegistry does not call for a
// general coercion system, only specific registered conversions.
var implicitConversions = map[conversionKey]bool{
	{TagInt64, TagFloat64}: true,
}
