package quant

import (
	"math"

	"github.com/go-svs/svs/pkg/svserr"
)

// ScalarQuantizer maps a dataset-global [min, max] range onto k-bit signed
// codes, grounded on internal/quantization/scalar.go's float32->int8
// mapping, generalized from a fixed 8-bit code to a configurable bit width
// (1-8 bits). It backs the plain scalar-quantized variant only; LVQ encodes
// each row with its own per-vector scale and bias instead.
type ScalarQuantizer struct {
	Bits   int
	min    float32
	max    float32
	scale  float32
	offset float32
}

// NewScalarQuantizer creates an untrained quantizer for the given bit width.
func NewScalarQuantizer(bits int) *ScalarQuantizer {
	if bits < 1 || bits > 8 {
		bits = 8
	}
	return &ScalarQuantizer{Bits: bits}
}

func (q *ScalarQuantizer) codeMax() float32 {
	return float32((1 << (q.Bits - 1)) - 1)
}

// Train computes the global scale/offset from training data.
func (q *ScalarQuantizer) Train(vectors [][]float32) error {
	if len(vectors) == 0 {
		return svserr.InvalidInput("no training data provided")
	}
	q.min = float32(math.MaxFloat32)
	q.max = float32(-math.MaxFloat32)
	for _, vec := range vectors {
		for _, v := range vec {
			if v < q.min {
				q.min = v
			}
			if v > q.max {
				q.max = v
			}
		}
	}
	valueRange := q.max - q.min
	if valueRange == 0 {
		valueRange = 1
	}
	codeMax := q.codeMax()
	q.scale = (2 * codeMax) / valueRange
	q.offset = -codeMax - (q.min * q.scale)
	return nil
}

// Encode quantizes a vector to signed k-bit codes (stored widened to int8).
func (q *ScalarQuantizer) Encode(v []float32) []int8 {
	codeMax := q.codeMax()
	out := make([]int8, len(v))
	for i, val := range v {
		scaled := val*q.scale + q.offset
		if scaled < -codeMax {
			scaled = -codeMax
		} else if scaled > codeMax {
			scaled = codeMax
		}
		out[i] = int8(math.Round(float64(scaled)))
	}
	return out
}

// Decode reverses Encode.
func (q *ScalarQuantizer) Decode(codes []int8) []float32 {
	out := make([]float32, len(codes))
	for i, c := range codes {
		out[i] = (float32(c) - q.offset) / q.scale
	}
	return out
}

// Scale and Offset expose the trained parameters for serialization.
func (q *ScalarQuantizer) Scale() float32  { return q.scale }
func (q *ScalarQuantizer) Offset() float32 { return q.offset }
func (q *ScalarQuantizer) Min() float32    { return q.min }
func (q *ScalarQuantizer) Max() float32    { return q.max }

// LoadParameters restores a trained quantizer's state without retraining.
// The save/load code in this module does not call it; IVF load retrains.
func (q *ScalarQuantizer) LoadParameters(min, max, scale, offset float32) {
	q.min, q.max, q.scale, q.offset = min, max, scale, offset
}
