// Command svsbench builds a Vamana graph index and an IVF index over a
// synthetic random dataset, runs a handful of searches, exercises the
// dynamic-update lifecycle (insert/delete/consolidate/compact), and logs
// build durations and search/update counts. It exists to drive the library through
// every operation the API exposes in one place, the way the teacher's
// cmd/cli exercised its HNSW index end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/go-svs/svs/pkg/config"
	"github.com/go-svs/svs/pkg/dataset"
	"github.com/go-svs/svs/pkg/distance"
	"github.com/go-svs/svs/pkg/ivf"
	"github.com/go-svs/svs/pkg/observability"
	"github.com/go-svs/svs/pkg/threadpool"
	"github.com/go-svs/svs/pkg/vamana"
)

func main() {
	n := flag.Int("n", 5000, "number of points in the synthetic dataset")
	dim := flag.Int("dim", 64, "vector dimensionality")
	queries := flag.Int("queries", 20, "number of queries to run against each index")
	k := flag.Int("k", 10, "neighbors to return per query")
	flag.Parse()

	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	logger := observability.NewDefaultLogger()

	data := randomDataset(*n, *dim, 42)
	pool := threadpool.New(cfg.ThreadPool.Workers)

	vamanaParams := vamana.BuildParameters{
		Alpha:                cfg.Vamana.Alpha,
		GraphMaxDegree:       cfg.Vamana.GraphMaxDegree,
		WindowSize:           cfg.Vamana.WindowSize,
		MaxCandidatePoolSize: cfg.Vamana.MaxCandidatePoolSize,
		PruneTo:              cfg.Vamana.PruneTo,
		UseFullSearchHistory: cfg.Vamana.UseFullSearchHistory,
	}

	logger.Info("building vamana index", map[string]interface{}{"n": *n, "dim": *dim})
	buildStart := time.Now()
	idx, err := vamana.BuildIndex(context.Background(), data, distance.L2, vamanaParams, pool)
	if err != nil {
		logger.Fatalf("vamana build failed: %v", err)
	}
	metrics.RecordBuild(time.Since(buildStart))
	logger.Info("vamana build complete", map[string]interface{}{"duration": time.Since(buildStart)})

	runVamanaSearches(idx, *queries, *k, metrics, logger)
	runDynamicUpdateDemo(idx, *dim, metrics, logger)

	ivfParams := ivf.Params{
		NumCentroids: cfg.IVF.NumCentroids,
		Hierarchical: cfg.IVF.Hierarchical,
		L1Centroids:  cfg.IVF.L1Centroids,
		NProbes:      cfg.IVF.NProbes,
		KReorder:     cfg.IVF.KReorder,
		Storage:      ivf.Sparse,
		Iterations:   10,
		Seed:         7,
	}

	logger.Info("building ivf index", map[string]interface{}{"num_centroids": ivfParams.NumCentroids})
	ivfBuildStart := time.Now()
	ivfIdx, err := ivf.Build(data, distance.L2, ivfParams)
	if err != nil {
		logger.Fatalf("ivf build failed: %v", err)
	}
	metrics.RecordBuild(time.Since(ivfBuildStart))
	logger.Info("ivf build complete", map[string]interface{}{"duration": time.Since(ivfBuildStart)})

	runIVFSearches(ivfIdx, *queries, *k, metrics, logger)
}

func randomDataset(n, dim int, seed int64) *dataset.Dense {
	r := rand.New(rand.NewSource(seed))
	d := dataset.NewDense(n, dim)
	for i := 0; i < n; i++ {
		v := make([]float32, dim)
		for j := range v {
			v[j] = r.Float32()
		}
		_ = d.Set(i, v)
	}
	return d
}

func randomQuery(dim int, r *rand.Rand) []float32 {
	v := make([]float32, dim)
	for j := range v {
		v[j] = r.Float32()
	}
	return v
}

func runVamanaSearches(idx *vamana.Index, queries, k int, metrics *observability.Metrics, logger *observability.Logger) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < queries; i++ {
		q := randomQuery(idx.Data.Dimensions(), r)
		start := time.Now()
		results, err := idx.Search(q, k, idx.Params.WindowSize)
		if err != nil {
			logger.Errorf("vamana search %d failed: %v", i, err)
			continue
		}
		metrics.RecordSearch("vamana", time.Since(start), len(results))
	}
	logger.Info("vamana searches complete", map[string]interface{}{"count": queries})
}

func runIVFSearches(idx *ivf.Index, queries, k int, metrics *observability.Metrics, logger *observability.Logger) {
	r := rand.New(rand.NewSource(2))
	dim := 0
	if len(idx.Centroids) > 0 {
		dim = len(idx.Centroids[0])
	}
	for i := 0; i < queries; i++ {
		q := randomQuery(dim, r)
		start := time.Now()
		results, err := idx.Search(q, k)
		if err != nil {
			logger.Errorf("ivf search %d failed: %v", i, err)
			continue
		}
		metrics.RecordSearch("ivf", time.Since(start), len(results))
	}
	logger.Info("ivf searches complete", map[string]interface{}{"count": queries})
}

// runDynamicUpdateDemo exercises the full dynamic-update lifecycle C7
// describes: insert a handful of fresh vectors, delete a handful of
// existing ones, consolidate the graph to splice around the deletions, then
// compact to physically reclaim the freed rows.
func runDynamicUpdateDemo(idx *vamana.Index, dim int, metrics *observability.Metrics, logger *observability.Logger) {
	r := rand.New(rand.NewSource(3))
	nextExternalID := uint64(idx.Data.Size()) + 1_000_000

	inserted := 0
	for i := 0; i < 10; i++ {
		if err := idx.Insert(nextExternalID+uint64(i), randomQuery(dim, r)); err != nil {
			logger.Errorf("insert failed: %v", err)
			continue
		}
		inserted++
	}
	metrics.RecordInsert(inserted)

	deleted := 0
	for i := 0; i < 5; i++ {
		if err := idx.Delete(uint64(i)); err != nil {
			logger.Errorf("delete failed: %v", err)
			continue
		}
		deleted++
	}
	metrics.RecordDelete(deleted)

	consolidateStart := time.Now()
	if err := idx.Consolidate(context.Background()); err != nil {
		logger.Fatalf("consolidate failed: %v", err)
	}
	metrics.RecordConsolidate(time.Since(consolidateStart))

	if err := idx.Compact(); err != nil {
		logger.Fatalf("compact failed: %v", err)
	}
	metrics.RecordCompact()

	logger.Info("dynamic update demo complete", map[string]interface{}{
		"inserted": inserted,
		"deleted":  deleted,
		"size":     idx.Graph.Size(),
	})
}
