package instrument

import "testing"

func TestDisabledTrackerIsNoop(t *testing.T) {
	tr := New(false)
	tr.Arm()
	v, err := tr.Check("x", "site")
	if v != nil || err != nil {
		t.Fatalf("disabled tracker: have (%v,%v), want (nil,nil)", v, err)
	}
}

func TestEnabledTrackerReportsZeroAllocExecute(t *testing.T) {
	tr := New(true)
	tr.Arm()
	// A region that allocates nothing on the heap.
	sum := 0
	for i := 0; i < 100; i++ {
		sum += i
	}
	_ = sum
	v, err := tr.Check("loop", "instrument_test.go")
	if err != nil {
		t.Fatalf("zero-alloc region reported a violation: %v (%v)", v, err)
	}
}

func TestEnabledTrackerCatchesAllocation(t *testing.T) {
	tr := New(true)
	tr.Arm()
	s := make([]int, 0)
	for i := 0; i < 64; i++ {
		s = append(s, i) // forces growth/allocation
	}
	_ = s
	v, err := tr.Check("grower", "instrument_test.go")
	if err == nil {
		t.Fatalf("expected a violation after heap allocations, got none")
	}
	if v == nil || v.Count == 0 {
		t.Fatalf("violation: have %+v, want non-zero Count", v)
	}
}

func TestCheckWithoutArmFails(t *testing.T) {
	tr := New(true)
	_, err := tr.Check("x", "site")
	if err == nil {
		t.Fatalf("expected error checking an unarmed tracker")
	}
}
