package event

import "testing"

func TestEmitStrictOverflow(t *testing.T) {
	b := New(4, Strict)
	for i := 0; i < 4; i++ {
		ok, err := b.Emit(KindNodeDirty, nil)
		if !ok || err != nil {
			t.Fatalf("emit %d: have (%v, %v), want (true, nil)", i, ok, err)
		}
	}
	ok, err := b.Emit(KindNodeDirty, nil)
	if ok || err == nil {
		t.Fatalf("emit 5th: have (%v, %v), want (false, QueueFull)", ok, err)
	}
	b.ProcessEvents()
	if d := b.Depth(); d != 0 {
		t.Fatalf("depth after process: have %d, want 0", d)
	}
}

func TestEmitFallbackDoublesOnce(t *testing.T) {
	b := New(2, Fallback)
	for i := 0; i < 2; i++ {
		if ok, err := b.Emit(KindNodeDirty, nil); !ok || err != nil {
			t.Fatalf("emit %d: have (%v, %v), want (true, nil)", i, ok, err)
		}
	}
	if ok, err := b.Emit(KindNodeDirty, nil); !ok || err != nil {
		t.Fatalf("emit 3rd (triggers doubling): have (%v, %v), want (true, nil)", ok, err)
	}
	if c := b.Capacity(); c != 4 {
		t.Fatalf("capacity after doubling: have %d, want 4", c)
	}
	// Fill to the new capacity, then overflow again: must now fail,
	// since doubling only happens once.
	if ok, _ := b.Emit(KindNodeDirty, nil); !ok {
		t.Fatalf("emit 4th: have false, want true")
	}
	if ok, err := b.Emit(KindNodeDirty, nil); ok || err == nil {
		t.Fatalf("emit past doubled capacity: have (%v, %v), want (false, err)", ok, err)
	}
}

func TestEmitDiscardDropsOldest(t *testing.T) {
	b := New(2, Discard)
	b.Emit(KindWindowResize, []byte("first"))
	b.Emit(KindWindowResize, []byte("second"))
	b.Emit(KindWindowResize, []byte("third"))
	if d := b.Depth(); d != 2 {
		t.Fatalf("depth: have %d, want 2", d)
	}
	sub := b.Subscribe(nil)
	b.ProcessEvents()
	var got []string
	b.Deliver(sub, func(e Event) { got = append(got, string(e.PayloadBytes())) })
	if len(got) != 2 || got[0] != "second" || got[1] != "third" {
		t.Fatalf("discard order: have %v, want [second third]", got)
	}
}

func TestSubscriberFIFOOrder(t *testing.T) {
	b := New(8, Strict)
	sub := b.Subscribe(func(k Kind) bool { return k == KindNodeDirty })
	other := b.Subscribe(func(k Kind) bool { return k == KindDeviceLost })

	b.Emit(KindNodeDirty, []byte("a"))
	b.Emit(KindDeviceLost, []byte("x"))
	b.Emit(KindNodeDirty, []byte("b"))
	b.Emit(KindNodeDirty, []byte("c"))
	b.ProcessEvents()

	var got []string
	b.Deliver(sub, func(e Event) { got = append(got, string(e.PayloadBytes())) })
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if i >= len(got) || got[i] != w {
			t.Fatalf("subscriber order: have %v, want %v", got, want)
		}
	}

	var gotOther []string
	b.Deliver(other, func(e Event) { gotOther = append(gotOther, string(e.PayloadBytes())) })
	if len(gotOther) != 1 || gotOther[0] != "x" {
		t.Fatalf("filtered subscriber: have %v, want [x]", gotOther)
	}
}

func TestUnsubscribeDropsQueue(t *testing.T) {
	b := New(4, Strict)
	sub := b.Subscribe(nil)
	b.Emit(KindNodeDirty, nil)
	b.Unsubscribe(sub)
	b.ProcessEvents()
	calls := 0
	b.Deliver(sub, func(Event) { calls++ })
	if calls != 0 {
		t.Fatalf("deliver after unsubscribe: have %d calls, want 0", calls)
	}
}
