package ivf

import (
	"github.com/go-svs/svs/pkg/dataset"
)

// clusterStore abstracts the two storage strategies C9 describes: Sparse
// keeps only internal ids and reads back through the shared dataset, Dense
// copies each member's vector into contiguous per-cluster storage.
type clusterStore interface {
	// members returns the internal ids assigned to cluster c.
	members(c int) []uint32
	// vector returns the vector for member at position i within cluster c's
	// member list (not a global internal id lookup).
	vector(c, i int) ([]float32, error)
}

type sparseStore struct {
	data dataset.Dataset
	ids  [][]uint32
}

func newSparseStore(data dataset.Dataset, assignments [][]uint32) *sparseStore {
	return &sparseStore{data: data, ids: assignments}
}

func (s *sparseStore) members(c int) []uint32 { return s.ids[c] }

func (s *sparseStore) vector(c, i int) ([]float32, error) {
	return s.data.Get(int(s.ids[c][i]))
}

type denseStore struct {
	ids     [][]uint32
	vectors [][][]float32 // per-cluster contiguous copies, parallel to ids
}

func newDenseStore(data dataset.Dataset, assignments [][]uint32) (*denseStore, error) {
	vectors := make([][][]float32, len(assignments))
	for c, ids := range assignments {
		vectors[c] = make([][]float32, len(ids))
		for i, id := range ids {
			v, err := data.Get(int(id))
			if err != nil {
				return nil, err
			}
			cp := make([]float32, len(v))
			copy(cp, v)
			vectors[c][i] = cp
		}
	}
	return &denseStore{ids: assignments, vectors: vectors}, nil
}

func (s *denseStore) members(c int) []uint32 { return s.ids[c] }

func (s *denseStore) vector(c, i int) ([]float32, error) {
	return s.vectors[c][i], nil
}
