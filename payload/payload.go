// Package payload houses the small POD value types the type system
// registers alongside driver handles: node outputs that carry inline
// structured data (camera transforms, packed uniform fields, gathered
// descriptor handles) rather than a GPU object. Each satisfies
// resource.HandleType so it rides through the same SetHandle/GetHandle
// path as driver-backed resources.
package payload

import (
	"github.com/Lint111/VBVS--VIXEN-sub013/driver"
	"github.com/Lint111/VBVS--VIXEN-sub013/linear"
	"github.com/Lint111/VBVS--VIXEN-sub013/typesys"
)

// CameraData is the per-frame camera transform and projection payload:
// the view and projection matrices a node can compute once and hand
// downstream (shadow passes, culling, forward lighting) without those
// consumers knowing how it was derived.
type CameraData struct {
	View       linear.M4
	Projection linear.M4
	Position   linear.V3
}

// NewCameraData builds the payload for a camera at eye looking toward
// center, with an infinite-far-plane perspective projection.
func NewCameraData(eye, center, up linear.V3, yfov, aspect, znear float32) CameraData {
	var c CameraData
	c.View.LookAt(&eye, &center, &up)
	c.Projection.InfPerspective(yfov, aspect, znear)
	c.Position = eye
	return c
}

// TypeTag implements resource.HandleType.
func (CameraData) TypeTag() typesys.Tag { return typesys.TagCameraData }

// ViewProjection returns Projection * View, the combined matrix most
// consumers actually want.
func (c CameraData) ViewProjection() linear.M4 {
	m := c.Projection
	m.Mul(&c.Projection, &c.View)
	return m
}

// StructSpreader carries a fixed slice of named float32 fields spread
// across a descriptor's constant range, for nodes whose output is a
// small uniform block rather than one of the fixed built-in shapes.
// Fields are stored in declaration order; the order is the layout.
type StructSpreader struct {
	Fields []SpreaderField
}

// SpreaderField is one named scalar or vector slot inside a
// StructSpreader's packed layout.
type SpreaderField struct {
	Name   string
	Values []float32
}

// TypeTag implements resource.HandleType.
func (StructSpreader) TypeTag() typesys.Tag { return typesys.TagStructSpreader }

// Size returns the total number of float32 values across every field,
// the count a descriptor writer needs to size the backing constant
// range.
func (s StructSpreader) Size() int {
	n := 0
	for _, f := range s.Fields {
		n += len(f.Values)
	}
	return n
}

// Flatten packs every field's values into one contiguous slice in
// field-declaration order, ready to copy into a mapped constant buffer.
func (s StructSpreader) Flatten() []float32 {
	out := make([]float32, 0, s.Size())
	for _, f := range s.Fields {
		out = append(out, f.Values...)
	}
	return out
}

// DescriptorHandleVariant is the bounded union flowing into
// descriptor-gather inputs: exactly one of the handle fields is live,
// discriminated by Kind. Gather nodes accumulate these from
// heterogeneous producers and write them into one descriptor set
// without knowing each producer's concrete output type.
type DescriptorHandleVariant struct {
	Kind driver.DescType

	Buffer  driver.Buffer
	Image   driver.ImageView
	Sampler driver.Sampler

	// Nr is the binding number the handle targets within the
	// destination layout.
	Nr int
}

// TypeTag implements resource.HandleType.
func (DescriptorHandleVariant) TypeTag() typesys.Tag { return typesys.TagDescriptorHandleVariant }

// BufferHandle wraps a buffer into the variant for binding nr.
func BufferHandle(nr int, b driver.Buffer) DescriptorHandleVariant {
	return DescriptorHandleVariant{Kind: driver.DBuffer, Buffer: b, Nr: nr}
}

// ImageHandle wraps an image view into the variant for binding nr.
func ImageHandle(nr int, iv driver.ImageView) DescriptorHandleVariant {
	return DescriptorHandleVariant{Kind: driver.DImage, Image: iv, Nr: nr}
}

// SamplerHandle wraps a sampler into the variant for binding nr.
func SamplerHandle(nr int, s driver.Sampler) DescriptorHandleVariant {
	return DescriptorHandleVariant{Kind: driver.DSampler, Sampler: s, Nr: nr}
}
