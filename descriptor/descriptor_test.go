package descriptor

import (
	"testing"

	"github.com/Lint111/VBVS--VIXEN-sub013/driver"
	_ "github.com/Lint111/VBVS--VIXEN-sub013/driver/null"
)

func testGPU(t *testing.T) driver.GPU {
	t.Helper()
	for _, d := range driver.Drivers() {
		if d.Name() == "null" {
			gpu, err := d.Open()
			if err != nil {
				t.Fatalf("open null driver: %v", err)
			}
			return gpu
		}
	}
	t.Fatal("null driver not registered")
	return nil
}

func TestGetOrCreateCachesIdenticalLayout(t *testing.T) {
	gpu := testGPU(t)
	c := NewCache(gpu)
	a := []Binding{{Nr: 0, Type: driver.DConstant, Stages: driver.SVertex, Len: 1}}
	b := []Binding{{Nr: 0, Type: driver.DConstant, Stages: driver.SVertex, Len: 1}}

	h1, l1, err := c.GetOrCreate(a)
	if err != nil {
		t.Fatalf("first GetOrCreate: %v", err)
	}
	h2, l2, err := c.GetOrCreate(b)
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected identical layout to return the same heap")
	}
	if !l1.Equal(l2) {
		t.Fatalf("expected equal layouts to have equal hashes")
	}
}

func TestCanonicalizationIgnoresBindingOrder(t *testing.T) {
	l1 := canonicalize([]Binding{{Nr: 1}, {Nr: 0}})
	l2 := canonicalize([]Binding{{Nr: 0}, {Nr: 1}})
	if !l1.Equal(l2) {
		t.Fatalf("layouts built from reordered bindings should hash equal")
	}
}

func TestPreAllocateMeetsEstimate(t *testing.T) {
	gpu := testGPU(t)
	c := NewCache(gpu)
	bindings := []Binding{{Nr: 0, Type: driver.DConstant, Stages: driver.SVertex, Len: 1}}
	_, layout, err := c.GetOrCreate(bindings)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	estimates := []Estimate{{Layout: layout, SetCount: 3, NodeOwner: 1}}
	if err := c.PreAllocate(estimates); err != nil {
		t.Fatalf("PreAllocate: %v", err)
	}
	if c.PooledSets() < c.RequestedSets() {
		t.Fatalf("pooled %d sets, want >= requested %d", c.PooledSets(), c.RequestedSets())
	}
}

func TestLayoutBlobRoundTrip(t *testing.T) {
	layout := canonicalize([]Binding{
		{Nr: 1, Type: driver.DImage, Stages: driver.SFragment, Len: 2},
		{Nr: 0, Type: driver.DConstant, Stages: driver.SVertex, Len: 1},
	})
	blob := EncodeLayout(layout)
	if !blob.Valid() {
		t.Fatalf("freshly encoded blob must validate")
	}
	back, ok := DecodeLayout(blob)
	if !ok {
		t.Fatalf("decode of a valid blob failed")
	}
	if !back.Equal(layout) {
		t.Fatalf("round trip: have %q, want %q", back.Hash(), layout.Hash())
	}
}

func TestCorruptBlobDiscarded(t *testing.T) {
	blob := EncodeLayout(canonicalize([]Binding{{Nr: 0, Type: driver.DConstant, Len: 1}}))
	blob.Payload[0] ^= 0xff
	if blob.Valid() {
		t.Fatalf("corrupted blob must not validate")
	}
	if _, ok := DecodeLayout(blob); ok {
		t.Fatalf("corrupted blob must be discarded")
	}

	stale := EncodeLayout(canonicalize([]Binding{{Nr: 0, Type: driver.DConstant, Len: 1}}))
	stale.Version = 99
	if _, ok := DecodeLayout(stale); ok {
		t.Fatalf("version-mismatched blob must be discarded")
	}
}

func TestPreAllocateUnregisteredLayoutFails(t *testing.T) {
	gpu := testGPU(t)
	c := NewCache(gpu)
	layout := canonicalize([]Binding{{Nr: 0, Type: driver.DConstant}})
	err := c.PreAllocate([]Estimate{{Layout: layout, SetCount: 1}})
	if err == nil {
		t.Fatalf("expected error pre-allocating an unregistered layout")
	}
}
