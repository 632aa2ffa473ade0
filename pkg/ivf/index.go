package ivf

import (
	"sort"

	"github.com/go-svs/svs/internal/quant"
	"github.com/go-svs/svs/pkg/dataset"
	"github.com/go-svs/svs/pkg/distance"
	"github.com/go-svs/svs/pkg/searchbuffer"
	"github.com/go-svs/svs/pkg/translate"
)

// Index is a built inverted-file index: a set of centroids, a
// clusterStore mapping each centroid to its members under the configured
// storage strategy, and the id translation shared with every other index
// kind in the module.
type Index struct {
	Centroids  [][]float32
	Metric     distance.Metric
	Params     Params
	Translator *translate.Translator

	store clusterStore
	data  dataset.Dataset

	// reducer is non-nil only when Params.Quantizer is LeanVecQuant: the
	// in-cluster scan compares reduced-dimension rows, so the query needs
	// the same projection applied before it can be compared against them.
	reducer *quant.Reducer
}

// Build clusters data (C8) and wires up the configured storage strategy
// (C9). Returns a ready-to-query Index with an identity id translation.
func Build(data dataset.Dataset, kind distance.Kind, params Params) (*Index, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	m := distance.For(kind)
	n := data.Size()
	vectors := make([][]float32, n)
	for i := 0; i < n; i++ {
		v, err := data.Get(i)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}

	kmp := quant.KMeansParams{Iterations: params.Iterations, Seed: params.Seed}
	var centroids [][]float32
	var err error
	if params.Hierarchical {
		centroids, err = quant.Hierarchical(vectors, params.NumCentroids, params.L1Centroids, m, kmp)
	} else {
		centroids, err = quant.KMeansPlusPlus(vectors, params.NumCentroids, m, kmp)
	}
	if err != nil {
		return nil, err
	}

	assignments := make([][]uint32, len(centroids))
	for i, v := range vectors {
		idx := quant.Assign([][]float32{v}, centroids, m)[0]
		assignments[idx] = append(assignments[idx], uint32(i))
	}

	scanData := data
	var reducer *quant.Reducer
	if params.Storage == Compressed {
		scanData, reducer, err = buildQuantizedScanData(data, params)
		if err != nil {
			return nil, err
		}
	}

	var store clusterStore
	if params.Storage == Dense || params.Storage == Compressed {
		store, err = newDenseStore(scanData, assignments)
		if err != nil {
			return nil, err
		}
	} else {
		store = newSparseStore(scanData, assignments)
	}

	return &Index{
		Centroids:  centroids,
		Metric:     m,
		Params:     params,
		Translator: translate.Identity(n),
		store:      store,
		data:       data,
		reducer:    reducer,
	}, nil
}

// buildQuantizedScanData wraps data in the quantized dataset.Dataset params
// selects, for Compressed storage. Only LeanVecQuant returns a non-nil
// Reducer, since it's the only quantizer whose scan-time representation
// isn't directly comparable to a full-precision query.
func buildQuantizedScanData(data dataset.Dataset, params Params) (dataset.Dataset, *quant.Reducer, error) {
	switch params.Quantizer {
	case LVQQuant:
		bits := params.QuantBits
		if bits == 0 {
			bits = 8
		}
		d, err := quant.NewLVQDataset(data, bits, params.LVQResidual, params.LVQResidualBits, quant.Sequential)
		return d, nil, err
	case LeanVecQuant:
		r, err := quant.NewReducer(quant.LeanVecConfig{ReducedDim: params.LeanVecReducedDim})
		if err != nil {
			return nil, nil, err
		}
		d, err := quant.NewLeanVecDataset(data, r)
		return d, r, err
	default: // ScalarQuant
		bits := params.QuantBits
		if bits == 0 {
			bits = 8
		}
		d, err := quant.NewScalarDataset(data, bits)
		return d, nil, err
	}
}

// Search implements C9: probe the NProbes closest centroids, scan every
// member of each probed cluster, then optionally rerank the top KReorder
// candidates against the exact vector, the same two-stage
// approximate-then-exact refinement pattern the teacher's filtered search
// used for metadata filtering, generalized here into exactness refinement.
func (idx *Index) Search(query []float32, k int) ([]searchbuffer.Neighbor, error) {
	fq := distance.FixArgument(idx.Metric, query)

	type centroidHit struct {
		cluster int
		dist    float32
	}
	hits := make([]centroidHit, len(idx.Centroids))
	for c, centroid := range idx.Centroids {
		hits[c] = centroidHit{cluster: c, dist: distance.Compute(idx.Metric, fq, centroid)}
	}
	sort.Slice(hits, func(i, j int) bool { return idx.Metric.Comparator(hits[i].dist, hits[j].dist) })

	probes := idx.Params.NProbes
	if probes > len(hits) {
		probes = len(hits)
	}

	capacity := k
	if idx.Params.KReorder > capacity {
		capacity = idx.Params.KReorder
	}
	buf := searchbuffer.New(idx.Metric.Comparator, capacity, capacity)

	// LeanVecQuant rows live in a reduced dimension the raw query doesn't
	// share, so the scan stage compares against a reduced copy of the
	// query; every other storage/quantizer keeps comparing against fq.
	scanFQ := fq
	if idx.reducer != nil {
		scanFQ = distance.FixArgument(idx.Metric, idx.reducer.ReduceQuery(query))
	}

	for _, hit := range hits[:probes] {
		members := idx.store.members(hit.cluster)
		for i, id := range members {
			v, err := idx.store.vector(hit.cluster, i)
			if err != nil {
				return nil, err
			}
			buf.Insert(id, distance.Compute(idx.Metric, scanFQ, v))
		}
	}

	if idx.Params.KReorder == 0 {
		return buf.Results(k), nil
	}
	return idx.rerank(fq, buf.Results(idx.Params.KReorder), k)
}

// rerank recomputes exact distances for the top KReorder approximate
// candidates against the backing dataset and returns the best k.
func (idx *Index) rerank(fq distance.FixedQuery, candidates []searchbuffer.Neighbor, k int) ([]searchbuffer.Neighbor, error) {
	exact := searchbuffer.New(idx.Metric.Comparator, k, k)
	for _, c := range candidates {
		v, err := idx.data.Get(int(c.ID))
		if err != nil {
			return nil, err
		}
		exact.Insert(c.ID, distance.Compute(idx.Metric, fq, v))
	}
	return exact.Results(k), nil
}
