// Package dataset implements the dense, uncompressed vector storage (C1):
// fixed-stride rows addressable in O(1), with the mutable refinement used by
// dynamic indexes. Quantized variants live in internal/quant and satisfy the
// same Dataset interface so search/build code is generic over either.
package dataset

import (
	"github.com/go-svs/svs/pkg/svserr"
)

// Dataset is the read-only protocol every storage variant (dense or
// quantized) implements. Views returned by Get remain valid until the next
// mutation of that row.
type Dataset interface {
	Size() int
	Dimensions() int
	Get(i int) ([]float32, error)
	Prefetch(i int)
}

// Mutable refines Dataset with in-place row replacement, used by dynamic
// insert/compact.
type Mutable interface {
	Dataset
	Set(i int, v []float32) error
}

// Dense is an in-memory float32 dataset holding one slice per row, every
// row of the same dimension: the straightforward uncompressed case.
type Dense struct {
	dim  int
	rows [][]float32
}

// NewDense allocates a dataset of size n with dimension dim, zero-filled.
func NewDense(n, dim int) *Dense {
	rows := make([][]float32, n)
	for i := range rows {
		rows[i] = make([]float32, dim)
	}
	return &Dense{dim: dim, rows: rows}
}

// FromRows wraps existing rows directly (no copy); every row must share dim.
func FromRows(rows [][]float32) (*Dense, error) {
	if len(rows) == 0 {
		return &Dense{}, nil
	}
	dim := len(rows[0])
	for i, r := range rows {
		if len(r) != dim {
			return nil, svserr.InvalidInput("row %d has dimension %d, want %d", i, len(r), dim)
		}
	}
	return &Dense{dim: dim, rows: rows}, nil
}

func (d *Dense) Size() int       { return len(d.rows) }
func (d *Dense) Dimensions() int { return d.dim }

func (d *Dense) Get(i int) ([]float32, error) {
	if i < 0 || i >= len(d.rows) {
		return nil, svserr.OutOfBounds("row %d", i)
	}
	return d.rows[i], nil
}

func (d *Dense) Set(i int, v []float32) error {
	if i < 0 || i >= len(d.rows) {
		return svserr.OutOfBounds("row %d", i)
	}
	if len(v) != d.dim {
		return svserr.InvalidInput("vector dimension %d, want %d", len(v), d.dim)
	}
	row := make([]float32, d.dim)
	copy(row, v)
	d.rows[i] = row
	return nil
}

// Rows returns a copy of every row, for callers (like IVF's centroid
// reconstruction on load) that need the whole dataset as a plain slice
// rather than through the Dataset interface.
func (d *Dense) Rows() [][]float32 {
	out := make([][]float32, len(d.rows))
	for i, r := range d.rows {
		cp := make([]float32, len(r))
		copy(cp, r)
		out[i] = cp
	}
	return out
}

// Prefetch is a no-op for in-memory storage; it exists so Dense satisfies
// the Dataset interface.
func (d *Dense) Prefetch(i int) {}

// Append grows the dataset by one row, returning its new internal id. Used
// by dynamic insert (C7), which always appends and never reuses the slot of
// a tombstoned row.
func (d *Dense) Append(v []float32) (int, error) {
	if d.dim == 0 {
		d.dim = len(v)
	} else if len(v) != d.dim {
		return 0, svserr.InvalidInput("vector dimension %d, want %d", len(v), d.dim)
	}
	row := make([]float32, d.dim)
	copy(row, v)
	d.rows = append(d.rows, row)
	return len(d.rows) - 1, nil
}

// Copy element-wise copies src into dst; both must have equal size and
// dimension.
func Copy(dst Mutable, src Dataset) error {
	if dst.Size() != src.Size() {
		return svserr.InvalidInput("size mismatch: dst=%d src=%d", dst.Size(), src.Size())
	}
	if dst.Dimensions() != src.Dimensions() {
		return svserr.InvalidInput("dimension mismatch: dst=%d src=%d", dst.Dimensions(), src.Dimensions())
	}
	for i := 0; i < src.Size(); i++ {
		v, err := src.Get(i)
		if err != nil {
			return err
		}
		if err := dst.Set(i, v); err != nil {
			return err
		}
	}
	return nil
}
