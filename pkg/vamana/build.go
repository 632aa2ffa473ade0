package vamana

import (
	"context"
	"math/rand"
	"sort"

	"github.com/go-svs/svs/pkg/dataset"
	"github.com/go-svs/svs/pkg/distance"
	"github.com/go-svs/svs/pkg/graph"
	"github.com/go-svs/svs/pkg/searchbuffer"
	"github.com/go-svs/svs/pkg/svserr"
	"github.com/go-svs/svs/pkg/threadpool"
)

// Build constructs a Vamana graph over data from scratch (C6): pick a medoid
// entry point, then run the classic two-pass construction — once with
// alpha forced to 1.0 (pure nearest-neighbor pruning, which keeps the graph
// sparse and fast to traverse early) and once at the configured alpha (which
// admits longer-range edges for navigability) — exactly as the teacher's
// build loop and the original implementation's BuildJob both do it.
func Build(ctx context.Context, data dataset.Dataset, metric distance.Metric, params BuildParameters, pool *threadpool.Pool) (*graph.Graph, int, error) {
	if err := params.Validate(); err != nil {
		return nil, 0, err
	}
	n := data.Size()
	if n == 0 {
		return nil, 0, svserr.InvalidInput("cannot build over an empty dataset")
	}
	g := graph.New(n, params.GraphMaxDegree)
	entry, err := computeMedoid(data, metric)
	if err != nil {
		return nil, 0, err
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rand.New(rand.NewSource(0x5e6)).Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

	pass1 := params
	pass1.Alpha = 1.0
	if err := buildPass(ctx, g, data, metric, entry, order, pass1, pool); err != nil {
		return nil, 0, err
	}
	if err := buildPass(ctx, g, data, metric, entry, order, params, pool); err != nil {
		return nil, 0, err
	}
	return g, entry, nil
}

// buildPass performs one full sweep over order, inserting each point's
// greedy-search candidate pool as prospective neighbors, robust-pruning its
// own list down to PruneTo, and propagating reverse edges (with their own
// prune) to every new neighbor — the core of the teacher's build loop,
// parallelized with StaticPartition the way the teacher parallelizes its
// build rounds.
func buildPass(ctx context.Context, g *graph.Graph, data dataset.Dataset, m distance.Metric, entry int, order []int, params BuildParameters, pool *threadpool.Pool) error {
	n := len(order)
	return pool.StaticPartition(ctx, n, func(lo, hi, workerID int) error {
		for idx := lo; idx < hi; idx++ {
			p := order[idx]
			if err := insertPoint(g, data, m, entry, p, params); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertPoint(g *graph.Graph, data dataset.Dataset, m distance.Metric, entry, p int, params BuildParameters) error {
	pv, err := data.Get(p)
	if err != nil {
		return err
	}
	fq := distance.FixArgument(m, pv)
	buf := searchbuffer.New(m.Comparator, params.WindowSize, params.MaxCandidatePoolSize)
	if err := GreedySearch(g, data, m, []int{entry}, fq, buf); err != nil {
		return err
	}
	candidates := buf.Results(params.MaxCandidatePoolSize)

	pruned, err := robustPrune(g, data, m, p, candidates, params.Alpha, params.PruneTo)
	if err != nil {
		return err
	}
	if err := g.SetNeighbors(p, pruned); err != nil {
		return err
	}

	for _, nb := range pruned {
		overflow, err := g.AddNeighbor(int(nb), p)
		if err != nil {
			return err
		}
		if overflow {
			if err := prunePoint(g, data, m, int(nb), params.Alpha, params.PruneTo); err != nil {
				return err
			}
		}
	}
	return nil
}

// prunePoint re-runs robust-prune over a node's existing neighbor list,
// used when a reverse-edge insertion has pushed it past MaxDegree.
func prunePoint(g *graph.Graph, data dataset.Dataset, m distance.Metric, id int, alpha float64, pruneTo int) error {
	neighbors, err := g.Neighbors(id)
	if err != nil {
		return err
	}
	candidates := make([]searchbuffer.Neighbor, 0, len(neighbors))
	v, err := data.Get(id)
	if err != nil {
		return err
	}
	fq := distance.FixArgument(m, v)
	for _, nb := range neighbors {
		nv, err := data.Get(int(nb))
		if err != nil {
			return err
		}
		candidates = append(candidates, searchbuffer.Neighbor{ID: nb, Distance: distance.Compute(m, fq, nv)})
	}
	pruned, err := robustPrune(g, data, m, id, candidates, alpha, pruneTo)
	if err != nil {
		return err
	}
	return g.SetNeighbors(id, pruned)
}

// robustPrune implements the occlusion-pruning rule central to Vamana's
// navigability guarantee, generalized from the original implementation's
// robust_prune (original_source/include/svs/index/vamana/prune.h): repeatedly
// take the closest remaining candidate, keep it, then discard any remaining
// candidate that alpha-scaled distance shows is "shadowed" by the one just
// kept, until degree candidates have been kept or none remain.
func robustPrune(g *graph.Graph, data dataset.Dataset, m distance.Metric, point int, candidates []searchbuffer.Neighbor, alpha float64, degree int) ([]uint32, error) {
	pool := make([]searchbuffer.Neighbor, 0, len(candidates))
	seen := map[uint32]bool{uint32(point): true}
	for _, c := range candidates {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		pool = append(pool, c)
	}
	sort.Slice(pool, func(i, j int) bool { return m.Comparator(pool[i].Distance, pool[j].Distance) })

	result := make([]uint32, 0, degree)
	for len(pool) > 0 && len(result) < degree {
		best := pool[0]
		result = append(result, best.ID)
		rest := pool[1:]

		bv, err := data.Get(int(best.ID))
		if err != nil {
			return nil, err
		}
		bfq := distance.FixArgument(m, bv)

		kept := rest[:0]
		for _, cand := range rest {
			cv, err := data.Get(int(cand.ID))
			if err != nil {
				return nil, err
			}
			distToBest := distance.Compute(m, bfq, cv)
			if !occludes(m, distToBest, cand.Distance, alpha) {
				kept = append(kept, cand)
			}
		}
		pool = kept
	}
	return result, nil
}

// occludes reports whether a candidate at distance distToKept from the point
// just added to the result is close enough to it (relative to its distance
// distToPoint from the original query point, scaled by alpha) that it no
// longer needs its own edge — it's already reachable via the kept point.
func occludes(m distance.Metric, distToKept, distToPoint float32, alpha float64) bool {
	if m.Kind == distance.InnerProduct {
		return float64(distToKept)*alpha >= float64(distToPoint)
	}
	return float64(distToKept)*alpha <= float64(distToPoint)
}

// computeMedoid selects the entry point (C6): the dataset point closest to
// the centroid of all points, mirroring the teacher's entry-point heuristic
// and the original implementation's compute_medioid.
func computeMedoid(data dataset.Dataset, m distance.Metric) (int, error) {
	n := data.Size()
	dim := data.Dimensions()
	centroid := make([]float32, dim)
	for i := 0; i < n; i++ {
		v, err := data.Get(i)
		if err != nil {
			return 0, err
		}
		for d := 0; d < dim; d++ {
			centroid[d] += v[d]
		}
	}
	for d := range centroid {
		centroid[d] /= float32(n)
	}

	best := 0
	bestDist := distance.L2Distance(centroid, mustGet(data, 0))
	for i := 1; i < n; i++ {
		d := distance.L2Distance(centroid, mustGet(data, i))
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best, nil
}

func mustGet(data dataset.Dataset, i int) []float32 {
	v, _ := data.Get(i)
	return v
}
