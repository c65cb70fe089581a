package node

import (
	"testing"

	"github.com/Lint111/VBVS--VIXEN-sub013/resource"
	"github.com/Lint111/VBVS--VIXEN-sub013/typesys"
)

type fakeHandle int64

func (fakeHandle) TypeTag() typesys.Tag { return typesys.TagInt64 }

type passThrough struct {
	compiled, executed, cleaned int
}

func (p *passThrough) SlotsIn() []typesys.SlotDescriptor  { return nil }
func (p *passThrough) SlotsOut() []typesys.SlotDescriptor { return nil }
func (p *passThrough) Compile(ctx *Context) error {
	p.compiled++
	return Out(ctx, 0, fakeHandle(42), resource.ByValue, nil)
}
func (p *passThrough) Execute(ctx *Context) error {
	p.executed++
	_, err := In[fakeHandle](ctx, 0)
	return err
}
func (p *passThrough) Cleanup(ctx *Context) error {
	p.cleaned++
	return nil
}

func newTestInstance() (*Instance, *passThrough) {
	out := resource.New(1)
	cap := &passThrough{}
	// single-node loop for the test: the node reads its own output.
	inst := New(1, "passthrough", "n1", cap, []*resource.Resource{out}, []*resource.Resource{out})
	return inst, cap
}

func TestLifecycleHappyPath(t *testing.T) {
	inst, cap := newTestInstance()
	if inst.State() != Created {
		t.Fatalf("initial state: have %v, want Created", inst.State())
	}
	if err := inst.Transition(Ready); err != nil {
		t.Fatalf("Created->Ready: %v", err)
	}
	if err := inst.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if inst.State() != Compiled {
		t.Fatalf("state after compile: have %v, want Compiled", inst.State())
	}
	if err := inst.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if inst.State() != Compiled {
		t.Fatalf("state after execute: have %v, want Compiled", inst.State())
	}
	if cap.compiled != 1 || cap.executed != 1 {
		t.Fatalf("capability call counts: have (%d,%d), want (1,1)", cap.compiled, cap.executed)
	}
	if inst.LastExecuteNS() < 0 {
		t.Fatalf("LastExecuteNS: have %d, want >= 0", inst.LastExecuteNS())
	}
}

func TestIllegalTransitionFails(t *testing.T) {
	inst, _ := newTestInstance()
	if err := inst.Compile(); err == nil {
		t.Fatalf("Compile from Created: want error, got nil")
	}
	if inst.State() != Error {
		t.Fatalf("state after illegal Compile: have %v, want Error", inst.State())
	}
}

func TestResetClearsError(t *testing.T) {
	inst, _ := newTestInstance()
	inst.Compile() // illegal from Created, forces Error
	if inst.State() != Error {
		t.Fatalf("precondition: want Error, have %v", inst.State())
	}
	inst.Reset()
	if inst.State() != Created {
		t.Fatalf("state after Reset: have %v, want Created", inst.State())
	}
	if inst.LastError() != nil {
		t.Fatalf("LastError after Reset: have %v, want nil", inst.LastError())
	}
}

func TestMarkDirtyRoundTrip(t *testing.T) {
	inst, _ := newTestInstance()
	inst.Transition(Ready)
	inst.Compile()
	if err := inst.MarkDirty(); err != nil {
		t.Fatalf("MarkDirty: %v", err)
	}
	if inst.State() != Dirty {
		t.Fatalf("state: have %v, want Dirty", inst.State())
	}
	if err := inst.Compile(); err != nil {
		t.Fatalf("re-Compile from Dirty: %v", err)
	}
	if inst.State() != Compiled {
		t.Fatalf("state after re-compile: have %v, want Compiled", inst.State())
	}
}

func TestParameterDictionaryBounded(t *testing.T) {
	inst, _ := newTestInstance()
	for i := 0; i < maxParams; i++ {
		if err := inst.SetParameter(string(rune('a'+i%26))+string(rune(i)), i); err != nil {
			t.Fatalf("SetParameter %d: %v", i, err)
		}
	}
	if err := inst.SetParameter("overflow", 1); err == nil {
		t.Fatalf("SetParameter past capacity: want error, got nil")
	}
}
