package graph

import (
	"testing"

	"github.com/go-svs/svs/pkg/saveload"
)

func buildTestGraph() *Graph {
	g := New(5, 3)
	g.SetNeighbors(0, []uint32{1, 2})
	g.SetNeighbors(1, []uint32{0, 2, 3})
	g.SetNeighbors(2, nil)
	g.SetNeighbors(3, []uint32{4})
	g.SetNeighbors(4, []uint32{0, 1, 2})
	return g
}

func assertGraphsEqual(t *testing.T, got, want *Graph) {
	t.Helper()
	if got.Size() != want.Size() {
		t.Fatalf("size mismatch: got %d, want %d", got.Size(), want.Size())
	}
	for i := 0; i < want.Size(); i++ {
		wantRow, _ := want.Neighbors(i)
		gotRow, err := got.Neighbors(i)
		if err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		if len(gotRow) != len(wantRow) {
			t.Fatalf("row %d length mismatch: got %d, want %d", i, len(gotRow), len(wantRow))
		}
		for j := range wantRow {
			if gotRow[j] != wantRow[j] {
				t.Fatalf("row %d position %d: got %d, want %d", i, j, gotRow[j], wantRow[j])
			}
		}
	}
}

func TestSaveLoadRoundTripFlatBackend(t *testing.T) {
	g := buildTestGraph()
	dir := t.TempDir()
	ctx, err := saveload.NewSaveContext(dir)
	if err != nil {
		t.Fatalf("NewSaveContext: %v", err)
	}
	table, err := g.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := saveload.SaveRoot(ctx, table); err != nil {
		t.Fatalf("SaveRoot: %v", err)
	}

	loadCtx := saveload.NewLoadContext(dir)
	loaded, err := saveload.LoadRoot(loadCtx)
	if err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}
	got, err := Load(loadCtx, loaded)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertGraphsEqual(t, got, g)
}

func TestSaveLoadRoundTripBoltBackend(t *testing.T) {
	g := buildTestGraph()
	dir := t.TempDir()
	ctx, err := saveload.NewSaveContext(dir)
	if err != nil {
		t.Fatalf("NewSaveContext: %v", err)
	}
	table, err := g.SaveWithBackend(ctx, BoltBackend)
	if err != nil {
		t.Fatalf("SaveWithBackend: %v", err)
	}
	if backend, _ := table["backend"].(string); backend != string(BoltBackend) {
		t.Fatalf("expected backend %q recorded in table, got %q", BoltBackend, backend)
	}
	if err := saveload.SaveRoot(ctx, table); err != nil {
		t.Fatalf("SaveRoot: %v", err)
	}

	loadCtx := saveload.NewLoadContext(dir)
	loaded, err := saveload.LoadRoot(loadCtx)
	if err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}
	got, err := Load(loadCtx, loaded)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertGraphsEqual(t, got, g)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	g := buildTestGraph()
	dir := t.TempDir()
	ctx, err := saveload.NewSaveContext(dir)
	if err != nil {
		t.Fatalf("NewSaveContext: %v", err)
	}
	table, err := g.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	table["backend"] = "mystery"
	if err := saveload.SaveRoot(ctx, table); err != nil {
		t.Fatalf("SaveRoot: %v", err)
	}

	loadCtx := saveload.NewLoadContext(dir)
	loaded, err := saveload.LoadRoot(loadCtx)
	if err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}
	if _, err := Load(loadCtx, loaded); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
