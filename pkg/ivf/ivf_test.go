package ivf

import (
	"math/rand"
	"testing"

	"github.com/go-svs/svs/pkg/dataset"
	"github.com/go-svs/svs/pkg/distance"
)

func randomVectors(n, dim int, seed int64) *dataset.Dense {
	r := rand.New(rand.NewSource(seed))
	d := dataset.NewDense(n, dim)
	for i := 0; i < n; i++ {
		v := make([]float32, dim)
		for j := range v {
			v[j] = r.Float32()
		}
		d.Set(i, v)
	}
	return d
}

func bruteForceTop1(d *dataset.Dense, m distance.Metric, query []float32) uint32 {
	fq := distance.FixArgument(m, query)
	best := uint32(0)
	firstVec, _ := d.Get(0)
	bestScore := distance.Compute(m, fq, firstVec)
	for i := 1; i < d.Size(); i++ {
		v, _ := d.Get(i)
		score := distance.Compute(m, fq, v)
		if m.Comparator(score, bestScore) {
			bestScore = score
			best = uint32(i)
		}
	}
	return best
}

func TestBuildFlatClustersAllPoints(t *testing.T) {
	d := randomVectors(200, 8, 1)
	params := Params{NumCentroids: 10, NProbes: 3, Iterations: 10, Seed: 1, Storage: Sparse}
	idx, err := Build(d, distance.L2, params)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	total := 0
	for c := 0; c < len(idx.Centroids); c++ {
		total += len(idx.store.members(c))
	}
	if total != d.Size() {
		t.Fatalf("expected every point assigned to a cluster, got %d of %d", total, d.Size())
	}
}

func TestHierarchicalBuildProducesApproxNumCentroids(t *testing.T) {
	d := randomVectors(300, 6, 2)
	params := Params{NumCentroids: 20, Hierarchical: true, L1Centroids: 4, NProbes: 5, Iterations: 10, Seed: 2, Storage: Dense}
	idx, err := Build(d, distance.L2, params)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(idx.Centroids) == 0 || len(idx.Centroids) > params.NumCentroids {
		t.Fatalf("expected up to %d centroids, got %d", params.NumCentroids, len(idx.Centroids))
	}
}

func TestSearchRecallReasonable(t *testing.T) {
	d := randomVectors(400, 8, 3)
	params := Params{NumCentroids: 16, NProbes: 6, Iterations: 15, Seed: 3, Storage: Sparse, KReorder: 20}
	idx, err := Build(d, distance.L2, params)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	r := rand.New(rand.NewSource(9))
	hits := 0
	trials := 20
	for q := 0; q < trials; q++ {
		query := make([]float32, 8)
		for j := range query {
			query[j] = r.Float32()
		}
		got, err := idx.Search(query, 5)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		want := bruteForceTop1(d, idx.Metric, query)
		for _, n := range got {
			if n.ID == want {
				hits++
				break
			}
		}
	}
	if hits < trials/2 {
		t.Fatalf("recall too low: found true nearest in only %d/%d trials", hits, trials)
	}
}

func TestDenseAndSparseStorageAgree(t *testing.T) {
	d := randomVectors(150, 5, 4)
	base := Params{NumCentroids: 8, NProbes: 8, Iterations: 10, Seed: 4}

	sparseParams := base
	sparseParams.Storage = Sparse
	sparse, err := Build(d, distance.L2, sparseParams)
	if err != nil {
		t.Fatalf("build sparse: %v", err)
	}

	denseParams := base
	denseParams.Storage = Dense
	dense, err := Build(d, distance.L2, denseParams)
	if err != nil {
		t.Fatalf("build dense: %v", err)
	}

	query := []float32{0.1, 0.2, 0.3, 0.4, 0.5}
	sparseResults, err := sparse.Search(query, 5)
	if err != nil {
		t.Fatalf("sparse search: %v", err)
	}
	denseResults, err := dense.Search(query, 5)
	if err != nil {
		t.Fatalf("dense search: %v", err)
	}
	if len(sparseResults) != len(denseResults) {
		t.Fatalf("result count mismatch: sparse=%d dense=%d", len(sparseResults), len(denseResults))
	}
}

func TestCompressedStorageWithRerankRecallReasonable(t *testing.T) {
	d := randomVectors(400, 8, 5)
	params := Params{NumCentroids: 16, NProbes: 8, Iterations: 15, Seed: 5, Storage: Compressed, KReorder: 40}
	idx, err := Build(d, distance.L2, params)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	r := rand.New(rand.NewSource(10))
	hits := 0
	trials := 20
	for q := 0; q < trials; q++ {
		query := make([]float32, 8)
		for j := range query {
			query[j] = r.Float32()
		}
		got, err := idx.Search(query, 5)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		want := bruteForceTop1(d, idx.Metric, query)
		for _, n := range got {
			if n.ID == want {
				hits++
				break
			}
		}
	}
	// Compressed scan + exact rerank should still find the true nearest
	// neighbor most of the time, since KReorder always recomputes exact
	// distances before the final cut.
	if hits < trials/2 {
		t.Fatalf("recall too low: found true nearest in only %d/%d trials", hits, trials)
	}
}

func TestCompressedStorageLVQQuantRecallReasonable(t *testing.T) {
	d := randomVectors(400, 8, 6)
	params := Params{
		NumCentroids: 16, NProbes: 8, Iterations: 15, Seed: 6,
		Storage: Compressed, Quantizer: LVQQuant, QuantBits: 8,
		LVQResidual: true, LVQResidualBits: 4, KReorder: 40,
	}
	idx, err := Build(d, distance.L2, params)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if idx.reducer != nil {
		t.Fatal("LVQQuant should not populate a reducer")
	}

	r := rand.New(rand.NewSource(11))
	hits := 0
	trials := 20
	for q := 0; q < trials; q++ {
		query := make([]float32, 8)
		for j := range query {
			query[j] = r.Float32()
		}
		got, err := idx.Search(query, 5)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		want := bruteForceTop1(d, idx.Metric, query)
		for _, n := range got {
			if n.ID == want {
				hits++
				break
			}
		}
	}
	if hits < trials/2 {
		t.Fatalf("recall too low: found true nearest in only %d/%d trials", hits, trials)
	}
}

func TestCompressedStorageLeanVecQuantRecallReasonable(t *testing.T) {
	d := randomVectors(400, 8, 7)
	params := Params{
		NumCentroids: 16, NProbes: 8, Iterations: 15, Seed: 7,
		Storage: Compressed, Quantizer: LeanVecQuant, LeanVecReducedDim: 5,
		KReorder: 40,
	}
	idx, err := Build(d, distance.L2, params)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if idx.reducer == nil {
		t.Fatal("LeanVecQuant should populate a reducer")
	}

	r := rand.New(rand.NewSource(12))
	hits := 0
	trials := 20
	for q := 0; q < trials; q++ {
		query := make([]float32, 8)
		for j := range query {
			query[j] = r.Float32()
		}
		got, err := idx.Search(query, 5)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		want := bruteForceTop1(d, idx.Metric, query)
		for _, n := range got {
			if n.ID == want {
				hits++
				break
			}
		}
	}
	// LeanVec's reduced-dimension scan is coarser than scalar/LVQ, but
	// KReorder's exact rerank still recovers the true nearest neighbor most
	// of the time.
	if hits < trials/2 {
		t.Fatalf("recall too low: found true nearest in only %d/%d trials", hits, trials)
	}
}
