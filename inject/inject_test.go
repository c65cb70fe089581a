package inject

import (
	"context"
	"testing"
)

func TestEnqueueRejectsPastCapacity(t *testing.T) {
	q := NewQueue(2, 1)
	if !q.Enqueue(Request{Target: "a"}) {
		t.Fatalf("enqueue 1: want true")
	}
	if !q.Enqueue(Request{Target: "b"}) {
		t.Fatalf("enqueue 2: want true")
	}
	if q.Enqueue(Request{Target: "c"}) {
		t.Fatalf("enqueue past capacity: want false")
	}
	if s := q.Stats(); s.Enqueued != 2 || s.Rejected != 1 {
		t.Fatalf("stats: have %+v, want Enqueued=2 Rejected=1", s)
	}
}

func TestDrainBatchGroupsByTarget(t *testing.T) {
	q := NewQueue(8, 1)
	q.Enqueue(Request{Target: "b", Payload: 1})
	q.Enqueue(Request{Target: "a", Payload: 2})
	q.Enqueue(Request{Target: "b", Payload: 3})

	batch := q.DrainBatch(context.Background(), 10)
	if len(batch) != 3 {
		t.Fatalf("batch len: have %d, want 3", len(batch))
	}
	for i := 1; i < len(batch); i++ {
		if batch[i].Target < batch[i-1].Target {
			t.Fatalf("batch not grouped by target: %+v", batch)
		}
	}
	if s := q.Stats(); s.Depth != 0 {
		t.Fatalf("depth after drain: have %d, want 0", s.Depth)
	}
}

func TestDrainBatchRespectsMax(t *testing.T) {
	q := NewQueue(8, 1)
	for i := 0; i < 5; i++ {
		q.Enqueue(Request{Target: "x"})
	}
	batch := q.DrainBatch(context.Background(), 3)
	if len(batch) != 3 {
		t.Fatalf("batch len: have %d, want 3", len(batch))
	}
	if s := q.Stats(); s.Depth != 2 {
		t.Fatalf("depth after partial drain: have %d, want 2", s.Depth)
	}
}
