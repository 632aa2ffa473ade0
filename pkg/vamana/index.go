package vamana

import (
	"context"
	"sync"

	"github.com/go-svs/svs/pkg/dataset"
	"github.com/go-svs/svs/pkg/distance"
	"github.com/go-svs/svs/pkg/graph"
	"github.com/go-svs/svs/pkg/searchbuffer"
	"github.com/go-svs/svs/pkg/svserr"
	"github.com/go-svs/svs/pkg/threadpool"
	"github.com/go-svs/svs/pkg/translate"
)

// Index ties together the graph, backing storage, and id translation into
// the object callers build, search, and mutate. Grounded on the teacher's
// DiskANNIndex, which plays the same role for its HNSW-flavored graph.
type Index struct {
	mu sync.RWMutex

	Graph      *graph.Graph
	Data       *dataset.Dense
	Metric     distance.Metric
	EntryPoint int
	Translator *translate.Translator
	Params     BuildParameters
	Pool       *threadpool.Pool

	// GraphBackend selects how SaveIndex persists Graph: the default
	// graph.FlatBackend, or graph.BoltBackend for graphs too large to save
	// and load as one in-memory blob.
	GraphBackend graph.Backend

	deleted map[int]bool // internal ids tombstoned since the last Consolidate
}

// BuildIndex runs a static build (C6) over data and wraps the result as a
// ready-to-query Index with an identity id translation.
func BuildIndex(ctx context.Context, data *dataset.Dense, kind distance.Kind, params BuildParameters, pool *threadpool.Pool) (*Index, error) {
	m := distance.For(kind)
	g, entry, err := Build(ctx, data, m, params, pool)
	if err != nil {
		return nil, err
	}
	return &Index{
		Graph:      g,
		Data:       data,
		Metric:     m,
		EntryPoint: entry,
		Translator: translate.Identity(data.Size()),
		Params:     params,
		Pool:       pool,
		deleted:    make(map[int]bool),
	}, nil
}

// Insert implements the dynamic-update half of C7: append the new vector,
// register its external id, then run the same greedy-search/robust-prune/
// reverse-edge machinery Build uses for a single point so the new node is
// woven into the existing graph rather than left an orphan.
func (idx *Index) Insert(externalID uint64, v []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.Translator.HasExternal(externalID) {
		return svserr.DuplicateID("external id %d already present", externalID)
	}
	internalID, err := idx.Data.Append(v)
	if err != nil {
		return err
	}
	idx.Graph.Grow(1)
	if err := idx.Translator.InsertPair(externalID, uint32(internalID)); err != nil {
		return err
	}
	return insertPoint(idx.Graph, idx.Data, idx.Metric, idx.EntryPoint, internalID, idx.Params)
}

// Delete implements the lazy half of C7: mark externalID's internal id as
// tombstoned and remove it from the id translation immediately, but leave its
// row and inbound edges in the graph untouched until Consolidate runs.
// Matches the original implementation's delete_entries, which defers the
// expensive graph-surgery step rather than doing it inline per call.
func (idx *Index) Delete(externalID uint64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	internalID, err := idx.Translator.GetInternal(externalID)
	if err != nil {
		return err
	}
	if err := idx.Translator.DeleteExternal([]uint64{externalID}, true); err != nil {
		return err
	}
	idx.deleted[int(internalID)] = true
	return nil
}

// Consolidate implements the graph-surgery half of C7: for every node that
// still references a tombstoned neighbor, splice that neighbor's own
// out-edges into the referencing node's candidate list and robust-prune back
// down to PruneTo, so paths that used to route through deleted nodes keep
// working. Grounded on the original implementation's consolidate operation
// (original_source/include/svs/index/vamana/dynamic_index.h).
func (idx *Index) Consolidate(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if len(idx.deleted) == 0 {
		return nil
	}
	n := idx.Graph.Size()
	err := idx.Pool.StaticPartition(ctx, n, func(lo, hi, workerID int) error {
		for i := lo; i < hi; i++ {
			if idx.deleted[i] {
				continue
			}
			if err := idx.spliceDeletedNeighbors(i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if idx.deleted[idx.EntryPoint] {
		if err := idx.pickNewEntryPoint(); err != nil {
			return err
		}
	}
	idx.deleted = make(map[int]bool)
	return nil
}

func (idx *Index) spliceDeletedNeighbors(i int) error {
	neighbors, err := idx.Graph.Neighbors(i)
	if err != nil {
		return err
	}
	hasDeleted := false
	for _, nb := range neighbors {
		if idx.deleted[int(nb)] {
			hasDeleted = true
			break
		}
	}
	if !hasDeleted {
		return nil
	}

	expanded := make([]uint32, 0, len(neighbors))
	seen := make(map[uint32]bool, len(neighbors))
	for _, nb := range neighbors {
		if idx.deleted[int(nb)] {
			replacement, err := idx.Graph.Neighbors(int(nb))
			if err != nil {
				return err
			}
			for _, r := range replacement {
				if idx.deleted[int(r)] || seen[r] || int(r) == i {
					continue
				}
				seen[r] = true
				expanded = append(expanded, r)
			}
			continue
		}
		if !seen[nb] {
			seen[nb] = true
			expanded = append(expanded, nb)
		}
	}

	v, err := idx.Data.Get(i)
	if err != nil {
		return err
	}
	fq := distance.FixArgument(idx.Metric, v)
	candidates := make([]searchbuffer.Neighbor, 0, len(expanded))
	for _, e := range expanded {
		ev, err := idx.Data.Get(int(e))
		if err != nil {
			return err
		}
		candidates = append(candidates, searchbuffer.Neighbor{ID: e, Distance: distance.Compute(idx.Metric, fq, ev)})
	}
	pruned, err := robustPrune(idx.Graph, idx.Data, idx.Metric, i, candidates, idx.Params.Alpha, idx.Params.PruneTo)
	if err != nil {
		return err
	}
	return idx.Graph.SetNeighbors(i, pruned)
}

func (idx *Index) pickNewEntryPoint() error {
	for i := 0; i < idx.Graph.Size(); i++ {
		if !idx.deleted[i] {
			idx.EntryPoint = i
			return nil
		}
	}
	return svserr.InvalidInput("cannot pick a new entry point: every node is tombstoned")
}

// Compact implements the final half of C7: physically remove tombstoned rows
// from storage and renumber survivors to a contiguous range, shrinking the
// dataset/graph back down after Consolidate has already cleaned up the edges.
// Must run after Consolidate; compacting first would leave dangling edges to
// the ids being removed.
func (idx *Index) Compact() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if len(idx.deleted) != 0 {
		return svserr.InvalidInput("compact requires consolidate to run first")
	}

	n := idx.Graph.Size()
	liveOldToNew := make(map[int]int, n)
	newCount := 0
	for i := 0; i < n; i++ {
		if idx.Translator.HasInternal(uint32(i)) {
			liveOldToNew[i] = newCount
			newCount++
		}
	}
	if newCount == n {
		return nil // nothing to compact
	}

	newData := dataset.NewDense(newCount, idx.Data.Dimensions())
	newGraph := graph.New(newCount, idx.Graph.MaxDegree())
	newTranslator := translate.New()
	for oldID, newID := range liveOldToNew {
		v, err := idx.Data.Get(oldID)
		if err != nil {
			return err
		}
		if err := newData.Set(newID, v); err != nil {
			return err
		}
		oldNeighbors, err := idx.Graph.Neighbors(oldID)
		if err != nil {
			return err
		}
		remapped := make([]uint32, 0, len(oldNeighbors))
		for _, nb := range oldNeighbors {
			if newNb, ok := liveOldToNew[int(nb)]; ok {
				remapped = append(remapped, uint32(newNb))
			}
		}
		if err := newGraph.SetNeighbors(newID, remapped); err != nil {
			return err
		}
		e, err := idx.Translator.GetExternal(uint32(oldID))
		if err != nil {
			return err
		}
		if err := newTranslator.InsertPair(e, uint32(newID)); err != nil {
			return err
		}
	}

	idx.Data = newData
	idx.Graph = newGraph
	idx.Translator = newTranslator
	if newEntry, ok := liveOldToNew[idx.EntryPoint]; ok {
		idx.EntryPoint = newEntry
	} else {
		idx.EntryPoint = 0
	}
	return nil
}
