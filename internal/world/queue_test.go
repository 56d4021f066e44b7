package world

import (
	"reflect"
	"testing"
)

func TestBuildQueueFIFOAndDedupe(t *testing.T) {
	q := NewBuildQueue()
	for _, c := range []ChunkCoord{{1, 1}, {2, 1}, {1, 1}, {3, 1}} {
		q.Enqueue(c)
	}
	if q.Len() != 3 {
		t.Fatalf("expected duplicate to be ignored, len=%d", q.Len())
	}
	for _, want := range []ChunkCoord{{1, 1}, {2, 1}, {3, 1}} {
		got, ok := q.Pop()
		if !ok || got != want {
			t.Fatalf("pop: got %v ok=%t, want %v", got, ok, want)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("pop on empty queue should report false")
	}
	if !q.Enqueue(ChunkCoord{1, 1}) {
		t.Fatalf("popped coordinate should be enqueueable again")
	}
}

func TestBuildQueueDrainReleasesStorage(t *testing.T) {
	q := NewBuildQueue()
	for i := 0; i < 4; i++ {
		q.Enqueue(ChunkCoord{X: i})
	}
	batch := q.Drain(0)
	if len(batch) != 4 {
		t.Fatalf("expected 4 coordinates in batch, got %d", len(batch))
	}
	if q.pending != nil {
		t.Fatalf("expected queue storage to be reset, got len=%d cap=%d", len(q.pending), cap(q.pending))
	}

	q.Enqueue(ChunkCoord{X: 10})
	q.Enqueue(ChunkCoord{X: 11})
	q.Enqueue(ChunkCoord{X: 12})
	batch = q.Drain(2)
	if !reflect.DeepEqual(batch, []ChunkCoord{{X: 10}, {X: 11}}) {
		t.Fatalf("unexpected partial batch %v", batch)
	}
	if q.Contains(ChunkCoord{X: 10}) {
		t.Fatalf("drained coordinate still reported as queued")
	}
	if !reflect.DeepEqual(q.Snapshot(), []ChunkCoord{{X: 12}}) {
		t.Fatalf("unexpected remainder %v", q.Snapshot())
	}
}

func TestBuildQueueRemoveAndPrepend(t *testing.T) {
	q := NewBuildQueue()
	for i := 0; i < 4; i++ {
		q.Enqueue(ChunkCoord{X: i})
	}
	if !q.Remove(ChunkCoord{X: 2}) {
		t.Fatalf("expected removal to succeed")
	}
	if q.Remove(ChunkCoord{X: 2}) {
		t.Fatalf("second removal should report false")
	}
	q.Prepend([]ChunkCoord{{X: 9}, {X: 3}, {X: 8}})
	want := []ChunkCoord{{X: 9}, {X: 8}, {X: 0}, {X: 1}, {X: 3}}
	if got := q.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
