package quant

import (
	"github.com/go-svs/svs/pkg/dataset"
	"github.com/go-svs/svs/pkg/svserr"
)

// ScalarDataset wraps an existing dataset.Dataset under scalar quantization
// (C1): every row is trained against once, encoded to k-bit codes at
// construction, and decoded back to float32 on each Get. It satisfies
// dataset.Dataset so a caller (IVF's compressed cluster storage, C9) can
// substitute it for the dense backing store with no change to scan code.
type ScalarDataset struct {
	q     *ScalarQuantizer
	dim   int
	codes [][]int8
}

// NewScalarDataset trains a bits-wide ScalarQuantizer over every row of src
// and encodes the whole dataset.
func NewScalarDataset(src dataset.Dataset, bits int) (*ScalarDataset, error) {
	n := src.Size()
	vectors := make([][]float32, n)
	for i := 0; i < n; i++ {
		v, err := src.Get(i)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	q := NewScalarQuantizer(bits)
	if err := q.Train(vectors); err != nil {
		return nil, err
	}
	codes := make([][]int8, n)
	for i, v := range vectors {
		codes[i] = q.Encode(v)
	}
	return &ScalarDataset{q: q, dim: src.Dimensions(), codes: codes}, nil
}

func (d *ScalarDataset) Size() int       { return len(d.codes) }
func (d *ScalarDataset) Dimensions() int { return d.dim }

func (d *ScalarDataset) Get(i int) ([]float32, error) {
	if i < 0 || i >= len(d.codes) {
		return nil, svserr.OutOfBounds("row %d", i)
	}
	return d.q.Decode(d.codes[i]), nil
}

// Prefetch is a no-op: codes are already fully resident in memory.
func (d *ScalarDataset) Prefetch(i int) {}

// LVQDataset wraps an existing dataset.Dataset under per-vector locally
// adapted vector quantization (C1): every row is encoded independently (its
// own scale/bias rather than a dataset-global one) at construction, decoded
// back to float32 on each Get. Like ScalarDataset, it satisfies
// dataset.Dataset so a caller can substitute it for the exact backing store
// with no change to scan code.
type LVQDataset struct {
	q    *LVQQuantizer
	dim  int
	rows []LVQRow
}

// NewLVQDataset encodes every row of src with a bits-wide LVQQuantizer.
// residual/resBits/pack mirror NewLVQQuantizer's knobs.
func NewLVQDataset(src dataset.Dataset, bits int, residual bool, resBits int, pack PackStrategy) (*LVQDataset, error) {
	n := src.Size()
	q := NewLVQQuantizer(bits, residual, resBits, pack)
	rows := make([]LVQRow, n)
	for i := 0; i < n; i++ {
		v, err := src.Get(i)
		if err != nil {
			return nil, err
		}
		rows[i] = q.EncodeWithResidual(v)
	}
	return &LVQDataset{q: q, dim: src.Dimensions(), rows: rows}, nil
}

func (d *LVQDataset) Size() int       { return len(d.rows) }
func (d *LVQDataset) Dimensions() int { return d.dim }

func (d *LVQDataset) Get(i int) ([]float32, error) {
	if i < 0 || i >= len(d.rows) {
		return nil, svserr.OutOfBounds("row %d", i)
	}
	return Decode(d.rows[i]), nil
}

// Prefetch is a no-op: codes are already fully resident in memory.
func (d *LVQDataset) Prefetch(i int) {}

// LeanVecDataset wraps an existing dataset.Dataset under LeanVec
// dimensionality reduction (C1): every row is projected down to the
// configured reduced dimension at construction via Reducer.ReduceData, and
// returned as-is on Get — there is no "decode" back to the original
// dimension, since LeanVec's entire point is to scan in the smaller space.
// Callers that substitute this in for exact storage must also reduce their
// query vector with the same Reducer's ReduceQuery before comparing against
// rows this dataset returns, since the two sides of LeanVec's projection
// are asymmetric by design.
type LeanVecDataset struct {
	dim  int
	rows [][]float32
}

// NewLeanVecDataset projects every row of src through r.ReduceData.
func NewLeanVecDataset(src dataset.Dataset, r *Reducer) (*LeanVecDataset, error) {
	n := src.Size()
	rows := make([][]float32, n)
	for i := 0; i < n; i++ {
		v, err := src.Get(i)
		if err != nil {
			return nil, err
		}
		rows[i] = r.ReduceData(v)
	}
	return &LeanVecDataset{dim: r.cfg.ReducedDim, rows: rows}, nil
}

func (d *LeanVecDataset) Size() int       { return len(d.rows) }
func (d *LeanVecDataset) Dimensions() int { return d.dim }

func (d *LeanVecDataset) Get(i int) ([]float32, error) {
	if i < 0 || i >= len(d.rows) {
		return nil, svserr.OutOfBounds("row %d", i)
	}
	return d.rows[i], nil
}

// Prefetch is a no-op: reduced rows are already fully resident in memory.
func (d *LeanVecDataset) Prefetch(i int) {}
