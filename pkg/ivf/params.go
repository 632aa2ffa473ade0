// Package ivf implements the inverted-file index (C8, C9): (hierarchical)
// k-means clustering over a dataset, n-probes cluster selection at query
// time, exhaustive intra-cluster scan, and an optional exact rerank pass.
// Grounded on the teacher's pkg/ivf/index.go, generalized from its fixed
// distance switch to pkg/distance.Metric and from a single clustering pass
// to the optional hierarchical two-level clustering internal/quant provides.
package ivf

import (
	"github.com/go-svs/svs/pkg/svserr"
)

// StorageStrategy selects how cluster membership is materialized (C9).
type StorageStrategy int

const (
	// Sparse stores only internal ids per cluster and re-fetches vectors
	// from the shared backing dataset on scan — lower memory, one extra
	// indirection per candidate.
	Sparse StorageStrategy = iota
	// Dense copies each cluster's vectors into contiguous per-cluster
	// storage at build time — higher memory, sequential scan with no
	// indirection, useful when clusters are re-scanned heavily relative to
	// how often the index is rebuilt.
	Dense
	// Compressed scans quantized (C1) rows instead of full precision
	// floats — lowest memory of the three, at the cost of approximate
	// in-cluster distances. Pairs naturally with KReorder, which always
	// reranks against the exact backing dataset. Quantizer selects which
	// encoding backs the scan.
	Compressed
)

// Quantizer selects which C1 quantized substrate backs Compressed storage.
type Quantizer int

const (
	// ScalarQuant encodes every row with a dataset-global scale/bias
	// (internal/quant.ScalarDataset).
	ScalarQuant Quantizer = iota
	// LVQQuant encodes every row with its own per-vector scale/bias,
	// optionally with a second-level residual (internal/quant.LVQDataset).
	LVQQuant
	// LeanVecQuant projects every row down to a reduced dimension
	// (internal/quant.LeanVecDataset); queries are projected the same way
	// before the in-cluster scan, and KReorder still reranks against the
	// exact full-dimensional data.
	LeanVecQuant
)

// Params configures clustering (C8) and search (C9).
type Params struct {
	NumCentroids int
	Hierarchical bool
	L1Centroids  int // only used when Hierarchical is true
	NProbes      int
	KReorder     int // 0 disables rerank
	Storage      StorageStrategy
	// Quantizer selects the quantized substrate when Storage is
	// Compressed. Ignored otherwise.
	Quantizer Quantizer
	// QuantBits sets the scalar/LVQ code width when Quantizer is
	// ScalarQuant or LVQQuant. Ignored otherwise; defaults to 8 when left
	// at zero.
	QuantBits int
	// LVQResidual/LVQResidualBits configure LVQQuant's optional
	// second-level residual row. Ignored otherwise.
	LVQResidual     bool
	LVQResidualBits int
	// LeanVecReducedDim sets the projected dimension when Quantizer is
	// LeanVecQuant. Must be positive and less than the dataset's
	// dimension when that quantizer is selected.
	LeanVecReducedDim int
	Iterations        int
	Seed              int64
}

// Validate checks the invariants Build and Search assume.
func (p Params) Validate() error {
	if p.NumCentroids <= 0 {
		return svserr.InvalidInput("num_centroids must be positive, got %d", p.NumCentroids)
	}
	if p.Hierarchical && (p.L1Centroids <= 0 || p.L1Centroids >= p.NumCentroids) {
		return svserr.InvalidInput("l1_centroids (%d) must be in (0, num_centroids=%d) when hierarchical clustering is requested", p.L1Centroids, p.NumCentroids)
	}
	if p.NProbes <= 0 {
		return svserr.InvalidInput("n_probes must be positive, got %d", p.NProbes)
	}
	if p.NProbes > p.NumCentroids {
		return svserr.InvalidInput("n_probes (%d) must not exceed num_centroids (%d)", p.NProbes, p.NumCentroids)
	}
	if p.Storage == Compressed {
		if p.Quantizer != LeanVecQuant && p.QuantBits != 0 && (p.QuantBits < 1 || p.QuantBits > 8) {
			return svserr.InvalidInput("quant_bits must be in [1, 8], got %d", p.QuantBits)
		}
		if p.Quantizer == LeanVecQuant && p.LeanVecReducedDim <= 0 {
			return svserr.InvalidInput("lean_vec_reduced_dim must be positive when quantizer is LeanVecQuant, got %d", p.LeanVecReducedDim)
		}
	}
	return nil
}
