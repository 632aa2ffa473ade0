package searchbuffer

import "testing"

func TestInsertKeepsSortedOrder(t *testing.T) {
	b := New(func(a, c float32) bool { return a < c }, 3, 3)
	b.Insert(1, 5.0)
	b.Insert(2, 1.0)
	b.Insert(3, 3.0)

	results := b.Results(3)
	want := []float32{1.0, 3.0, 5.0}
	for i, r := range results {
		if r.Distance != want[i] {
			t.Fatalf("position %d: got %f want %f", i, r.Distance, want[i])
		}
	}
}

func TestInsertEvictsWorstBeyondCapacity(t *testing.T) {
	b := New(func(a, c float32) bool { return a < c }, 2, 2)
	b.Insert(1, 1.0)
	b.Insert(2, 2.0)
	b.Insert(3, 0.5)

	if b.Len() != 2 {
		t.Fatalf("expected capacity-bounded length 2, got %d", b.Len())
	}
	results := b.Results(2)
	if results[0].ID != 3 || results[1].ID != 1 {
		t.Fatalf("unexpected eviction order: %+v", results)
	}
}

func TestBestUnvisitedMarksVisitedAndDoneFollows(t *testing.T) {
	b := New(func(a, c float32) bool { return a < c }, 2, 2)
	b.Insert(1, 1.0)
	b.Insert(2, 2.0)

	n, ok := b.BestUnvisited()
	if !ok || n.ID != 1 {
		t.Fatalf("expected id 1 first, got %+v ok=%v", n, ok)
	}
	if b.Done() {
		t.Fatal("should not be done with one unvisited entry left")
	}
	n, ok = b.BestUnvisited()
	if !ok || n.ID != 2 {
		t.Fatalf("expected id 2 second, got %+v ok=%v", n, ok)
	}
	if !b.Done() {
		t.Fatal("expected done after visiting both window entries")
	}
}

func TestNoDuplicateIDs(t *testing.T) {
	b := New(func(a, c float32) bool { return a < c }, 5, 5)
	b.Insert(1, 5.0)
	b.Insert(1, 2.0)
	if b.Len() != 1 {
		t.Fatalf("expected single entry for duplicate id, got %d", b.Len())
	}
	if b.Results(1)[0].Distance != 2.0 {
		t.Fatal("duplicate insert with better distance should update in place")
	}
}
