package vamana

import (
	"github.com/go-svs/svs/pkg/dataset"
	"github.com/go-svs/svs/pkg/distance"
	"github.com/go-svs/svs/pkg/graph"
	"github.com/go-svs/svs/pkg/searchbuffer"
	"github.com/go-svs/svs/pkg/svserr"
)

// GreedySearch implements C5: starting from entry, repeatedly expand the
// best unvisited candidate in buf's window, scoring its out-neighbors and
// inserting them, until every candidate within the window has been visited.
// buf accumulates the full candidate pool visited along the way (bounded by
// its capacity), which Build reuses directly as the robust-prune pool so
// construction never re-walks the graph a second time per point.
func GreedySearch(g *graph.Graph, data dataset.Dataset, m distance.Metric, entry []int, fq distance.FixedQuery, buf *searchbuffer.Buffer) error {
	if len(entry) == 0 {
		return svserr.InvalidInput("greedy search requires at least one entry point")
	}
	for _, id := range entry {
		if id < 0 || id >= g.Size() {
			return svserr.OutOfBounds("entry point %d", id)
		}
		v, err := data.Get(id)
		if err != nil {
			return err
		}
		buf.Insert(uint32(id), distance.Compute(m, fq, v))
	}

	for {
		cur, ok := buf.BestUnvisited()
		if !ok {
			break
		}
		data.Prefetch(int(cur.ID))
		neighbors, err := g.Neighbors(int(cur.ID))
		if err != nil {
			return err
		}
		for _, nb := range neighbors {
			v, err := data.Get(int(nb))
			if err != nil {
				return err
			}
			buf.Insert(nb, distance.Compute(m, fq, v))
		}
	}
	return nil
}

// Search runs a single-query greedy search starting from idx's entry point
// and returns up to k results ordered closest-first.
func (idx *Index) Search(query []float32, k, searchWindowSize int) ([]searchbuffer.Neighbor, error) {
	if searchWindowSize < k {
		searchWindowSize = k
	}
	fq := distance.FixArgument(idx.Metric, query)
	buf := searchbuffer.New(idx.Metric.Comparator, searchWindowSize, searchWindowSize)
	if err := GreedySearch(idx.Graph, idx.Data, idx.Metric, []int{idx.EntryPoint}, fq, buf); err != nil {
		return nil, err
	}
	return buf.Results(k), nil
}
