package payload

import (
	"math"
	"testing"

	"github.com/Lint111/VBVS--VIXEN-sub013/linear"
	"github.com/Lint111/VBVS--VIXEN-sub013/resource"
	"github.com/Lint111/VBVS--VIXEN-sub013/typesys"
)

func TestNewCameraDataViewProjection(t *testing.T) {
	eye := linear.V3{0, 0, 5}
	c := NewCameraData(eye, linear.V3{}, linear.V3{0, 1, 0}, math.Pi/4, 1, 0.1)
	if c.Position != eye {
		t.Fatalf("Position: have %v, want %v", c.Position, eye)
	}

	// The eye maps to the view-space origin; under the combined matrix
	// that origin lands on the projection's translation column.
	vp := c.ViewProjection()
	var p, out linear.V4
	p = linear.V4{eye[0], eye[1], eye[2], 1}
	out.Mul(&vp, &p)
	if math.Abs(float64(out[0])) > 1e-5 || math.Abs(float64(out[1])) > 1e-5 {
		t.Fatalf("vp*eye x/y: have %v, want 0,0", out)
	}
}

func TestCameraDataTypeTag(t *testing.T) {
	var c CameraData
	if c.TypeTag() != typesys.TagCameraData {
		t.Fatalf("have %v, want TagCameraData", c.TypeTag())
	}
}

func TestCameraDataRoundTripsThroughResource(t *testing.T) {
	c := CameraData{Position: [3]float32{1, 2, 3}}
	c.View.I()
	c.Projection.I()

	r := resource.New(1)
	if err := resource.SetHandle(r, c, resource.ByValue, nil); err != nil {
		t.Fatalf("SetHandle: %v", err)
	}
	got, err := resource.GetHandle[CameraData](r)
	if err != nil {
		t.Fatalf("GetHandle: %v", err)
	}
	if got.Position != c.Position {
		t.Fatalf("have %+v, want %+v", got.Position, c.Position)
	}
}

func TestStructSpreaderFlattenAndSize(t *testing.T) {
	s := StructSpreader{Fields: []SpreaderField{
		{Name: "a", Values: []float32{1, 2}},
		{Name: "b", Values: []float32{3}},
	}}
	if s.Size() != 3 {
		t.Fatalf("Size: have %d, want 3", s.Size())
	}
	flat := s.Flatten()
	want := []float32{1, 2, 3}
	if len(flat) != len(want) {
		t.Fatalf("Flatten len: have %d, want %d", len(flat), len(want))
	}
	for i := range want {
		if flat[i] != want[i] {
			t.Fatalf("Flatten[%d]: have %v, want %v", i, flat[i], want[i])
		}
	}
}

func TestStructSpreaderTypeTag(t *testing.T) {
	var s StructSpreader
	if s.TypeTag() != typesys.TagStructSpreader {
		t.Fatalf("have %v, want TagStructSpreader", s.TypeTag())
	}
}

func TestDescriptorHandleVariantRoundTrip(t *testing.T) {
	v := BufferHandle(2, nil)
	if v.TypeTag() != typesys.TagDescriptorHandleVariant {
		t.Fatalf("have %v, want TagDescriptorHandleVariant", v.TypeTag())
	}

	r := resource.New(9)
	if err := resource.SetHandle(r, v, resource.ByValue, nil); err != nil {
		t.Fatalf("SetHandle: %v", err)
	}
	got, err := resource.GetHandle[DescriptorHandleVariant](r)
	if err != nil {
		t.Fatalf("GetHandle: %v", err)
	}
	if got.Kind != v.Kind || got.Nr != 2 {
		t.Fatalf("have %+v, want %+v", got, v)
	}
}
