// Package graph implements the fixed-max-degree adjacency storage (C4) that
// Vamana builds and searches over. Grounded on the teacher's MemoryGraph
// (pkg/diskann/memory_graph.go) and DiskGraph (pkg/diskann/disk_graph.go),
// generalized from a single global RWMutex to the per-row spin lock the
// concurrency model calls for, and from a node-id map to a dense internal-id
// slice since Vamana's internal ids are always a contiguous range.
package graph

import (
	"github.com/go-svs/svs/pkg/svserr"
)

// Graph holds, for each internal id in [0, N), an out-neighbor list capped
// at MaxDegree. Reads and writes of a row both take that row's spin lock,
// so build rounds touching disjoint rows never contend, and concurrent
// edits to the same row (reverse-edge insertion from two builders) stay
// consistent.
type Graph struct {
	maxDegree int
	rows      [][]uint32
	locks     []SpinLock
}

// New allocates a graph for n nodes with the given max out-degree.
func New(n, maxDegree int) *Graph {
	return &Graph{
		maxDegree: n2MaxDegree(maxDegree),
		rows:      make([][]uint32, n),
		locks:     make([]SpinLock, n),
	}
}

func n2MaxDegree(d int) int {
	if d < 1 {
		return 1
	}
	return d
}

// Size returns the number of nodes.
func (g *Graph) Size() int { return len(g.rows) }

// MaxDegree returns the configured out-degree bound.
func (g *Graph) MaxDegree() int { return g.maxDegree }

// Neighbors returns a copy of i's current out-neighbor list.
func (g *Graph) Neighbors(i int) ([]uint32, error) {
	if i < 0 || i >= len(g.rows) {
		return nil, svserr.OutOfBounds("graph row %d", i)
	}
	g.locks[i].Lock()
	defer g.locks[i].Unlock()
	out := make([]uint32, len(g.rows[i]))
	copy(out, g.rows[i])
	return out, nil
}

// SetNeighbors replaces i's neighbor list, enforcing the degree bound.
func (g *Graph) SetNeighbors(i int, neighbors []uint32) error {
	if i < 0 || i >= len(g.rows) {
		return svserr.OutOfBounds("graph row %d", i)
	}
	if len(neighbors) > g.maxDegree {
		return svserr.InvalidInput("row %d: %d neighbors exceeds max degree %d", i, len(neighbors), g.maxDegree)
	}
	cp := make([]uint32, len(neighbors))
	copy(cp, neighbors)
	g.locks[i].Lock()
	g.rows[i] = cp
	g.locks[i].Unlock()
	return nil
}

// AddNeighbor appends toID to fromID's list if not already present, even
// past MaxDegree; returns whether the row now exceeds MaxDegree (the
// caller is expected to robust-prune it back down when true).
func (g *Graph) AddNeighbor(fromID, toID int) (overflow bool, err error) {
	if fromID < 0 || fromID >= len(g.rows) {
		return false, svserr.OutOfBounds("graph row %d", fromID)
	}
	g.locks[fromID].Lock()
	defer g.locks[fromID].Unlock()
	for _, n := range g.rows[fromID] {
		if int(n) == toID {
			return false, nil
		}
	}
	g.rows[fromID] = append(g.rows[fromID], uint32(toID))
	return len(g.rows[fromID]) > g.maxDegree, nil
}

// Grow extends the graph to accommodate n additional nodes, for dynamic
// insert (C7).
func (g *Graph) Grow(n int) {
	g.rows = append(g.rows, make([][]uint32, n)...)
	g.locks = append(g.locks, make([]SpinLock, n)...)
}
