package iterator

import (
	"context"
	"math/rand"
	"testing"

	"github.com/go-svs/svs/pkg/dataset"
	"github.com/go-svs/svs/pkg/distance"
	"github.com/go-svs/svs/pkg/threadpool"
	"github.com/go-svs/svs/pkg/vamana"
)

func buildTestIndex(t *testing.T, n, dim int) *vamana.Index {
	t.Helper()
	r := rand.New(rand.NewSource(11))
	d := dataset.NewDense(n, dim)
	for i := 0; i < n; i++ {
		v := make([]float32, dim)
		for j := range v {
			v[j] = r.Float32()
		}
		d.Set(i, v)
	}
	params := vamana.BuildParameters{
		Alpha:                1.2,
		GraphMaxDegree:       16,
		WindowSize:           24,
		MaxCandidatePoolSize: 48,
		PruneTo:              16,
		UseFullSearchHistory: true,
	}
	idx, err := vamana.BuildIndex(context.Background(), d, distance.L2, params, threadpool.New(2))
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	return idx
}

func TestBatchIteratorYieldsIncreasingBatches(t *testing.T) {
	idx := buildTestIndex(t, 200, 6)
	query := make([]float32, 6)
	for i := range query {
		query[i] = 0.3
	}
	it, err := New(idx, query, 0)
	if err != nil {
		t.Fatalf("new iterator: %v", err)
	}

	seen := make(map[uint64]bool)
	for batch := 0; batch < 3; batch++ {
		if err := it.Next(10); err != nil {
			t.Fatalf("next: %v", err)
		}
		if len(it.Results()) == 0 {
			t.Fatalf("batch %d: expected results", batch)
		}
		for _, r := range it.Results() {
			if seen[r.ExternalID] {
				t.Fatalf("external id %d yielded twice across batches", r.ExternalID)
			}
			seen[r.ExternalID] = true
		}
	}
	if it.BatchNumber() != 3 {
		t.Fatalf("expected batch number 3, got %d", it.BatchNumber())
	}
}

func TestBatchIteratorExhaustion(t *testing.T) {
	idx := buildTestIndex(t, 30, 4)
	query := make([]float32, 4)
	it, err := New(idx, query, 0)
	if err != nil {
		t.Fatalf("new iterator: %v", err)
	}

	for i := 0; i < 10 && !it.Done(); i++ {
		if err := it.Next(20); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	if !it.Done() {
		t.Fatal("expected iterator to become done after exhausting a 30-node index")
	}
}

func TestBatchIteratorUpdateResetsState(t *testing.T) {
	idx := buildTestIndex(t, 100, 4)
	it, err := New(idx, make([]float32, 4), 0)
	if err != nil {
		t.Fatalf("new iterator: %v", err)
	}
	if err := it.Next(10); err != nil {
		t.Fatalf("next: %v", err)
	}
	if it.BatchNumber() != 1 {
		t.Fatalf("expected batch 1, got %d", it.BatchNumber())
	}

	newQuery := make([]float32, 4)
	for i := range newQuery {
		newQuery[i] = 0.9
	}
	if err := it.Update(newQuery); err != nil {
		t.Fatalf("update: %v", err)
	}
	if it.BatchNumber() != 0 {
		t.Fatalf("expected batch number reset to 0 after update, got %d", it.BatchNumber())
	}
	if len(it.Results()) != 0 {
		t.Fatal("expected results cleared after update")
	}
}

func TestNewRejectsWrongDimension(t *testing.T) {
	idx := buildTestIndex(t, 20, 4)
	if _, err := New(idx, make([]float32, 5), 0); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}
