package graph

import (
	"path/filepath"
	"sync"
	"testing"
)

func TestSetNeighborsRespectsMaxDegree(t *testing.T) {
	g := New(4, 2)
	if err := g.SetNeighbors(0, []uint32{1, 2, 3}); err == nil {
		t.Fatal("expected error exceeding max degree")
	}
}

func TestAddNeighborOverflowSignal(t *testing.T) {
	g := New(4, 2)
	g.SetNeighbors(0, []uint32{1})
	overflow, err := g.AddNeighbor(0, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overflow {
		t.Fatal("should not overflow at exactly max degree")
	}
	overflow, err = g.AddNeighbor(0, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !overflow {
		t.Fatal("expected overflow signal past max degree")
	}
}

func TestConcurrentRowEditsAreSafe(t *testing.T) {
	g := New(8, 8)
	var wg sync.WaitGroup
	for row := 0; row < 8; row++ {
		row := row
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 8; j++ {
				if j != row {
					g.AddNeighbor(row, j)
				}
			}
		}()
	}
	wg.Wait()
	for row := 0; row < 8; row++ {
		neighbors, err := g.Neighbors(row)
		if err != nil {
			t.Fatalf("row %d: %v", row, err)
		}
		if len(neighbors) != 7 {
			t.Fatalf("row %d: expected 7 neighbors, got %d", row, len(neighbors))
		}
	}
}

func TestBoltStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.bolt")
	store, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if err := store.PutNeighbors(5, []uint32{1, 2, 3}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Neighbors(5)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 3 || got[1] != 2 {
		t.Fatalf("unexpected neighbors: %+v", got)
	}
}

func TestBoltStoreFlushThenLoadGraph(t *testing.T) {
	g := New(4, 3)
	g.SetNeighbors(0, []uint32{1, 2})
	g.SetNeighbors(1, []uint32{0})
	g.SetNeighbors(2, nil)
	g.SetNeighbors(3, []uint32{0, 1, 2})

	path := filepath.Join(t.TempDir(), "graph.bolt")
	store, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Flush(g); err != nil {
		t.Fatalf("flush: %v", err)
	}
	store.Close()

	store, err = OpenBoltStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	loaded, err := store.LoadGraph(g.Size(), g.MaxDegree())
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	for i := 0; i < g.Size(); i++ {
		want, _ := g.Neighbors(i)
		got, err := loaded.Neighbors(i)
		if err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		if len(got) != len(want) {
			t.Fatalf("row %d: got %d neighbors, want %d", i, len(got), len(want))
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("row %d position %d: got %d, want %d", i, j, got[j], want[j])
			}
		}
	}
}
