// Package distance implements the per-metric distance kernels shared by
// every index (C2). Each Metric exposes a Comparator so callers can order
// results correctly regardless of whether lower or higher scores are
// "closer", plus an optional Fix step for metrics that want to precompute
// something about the query before scanning many points.
package distance

import "math"

// Comparator orders two scores: Less(a, b) reports whether a is strictly
// closer than b under the metric.
type Comparator func(a, b float32) bool

// CloserIsSmaller is the comparator for L2 and cosine distance.
func CloserIsSmaller(a, b float32) bool { return a < b }

// CloserIsLarger is the comparator for inner-product style similarity scores.
func CloserIsLarger(a, b float32) bool { return a > b }

// Kind identifies one of the three metrics the index cores support.
type Kind int

const (
	L2 Kind = iota
	InnerProduct
	Cosine
)

// Metric is the runtime handle used by search and build code: Compute scores
// a (query, point) pair, Comparator orders those scores, and
// MustFixArgument flags metrics whose Compute expects FixArgument to have
// run on the query first.
type Metric struct {
	Kind            Kind
	Comparator      Comparator
	MustFixArgument bool
}

// For returns the Metric value for a Kind.
func For(k Kind) Metric {
	switch k {
	case InnerProduct:
		return Metric{Kind: InnerProduct, Comparator: CloserIsLarger}
	case Cosine:
		return Metric{Kind: Cosine, Comparator: CloserIsSmaller, MustFixArgument: true}
	default:
		return Metric{Kind: L2, Comparator: CloserIsSmaller}
	}
}

// FixedQuery is the result of FixArgument: a query possibly paired with
// precomputed state (e.g. its L2 norm for cosine) so Compute doesn't redo
// that work for every point in the dataset.
type FixedQuery struct {
	Query []float32
	Norm  float32
}

// FixArgument precomputes whatever state Compute needs from the query.
// Metrics that don't declare MustFixArgument still accept a no-op call so
// call sites don't need to branch.
func FixArgument(m Metric, query []float32) FixedQuery {
	fq := FixedQuery{Query: query}
	if m.Kind == Cosine {
		fq.Norm = norm(query)
	}
	return fq
}

// Compute scores a fixed query against a point under m. The returned value
// is ordered by m.Comparator, not assumed to be a true distance.
func Compute(m Metric, fq FixedQuery, point []float32) float32 {
	switch m.Kind {
	case InnerProduct:
		return dot(fq.Query, point)
	case Cosine:
		// Cosine distance (1 - cosine similarity), so smaller is closer.
		pn := norm(point)
		if fq.Norm == 0 || pn == 0 {
			return 1
		}
		return 1 - dot(fq.Query, point)/(fq.Norm*pn)
	default:
		return squaredL2(fq.Query, point)
	}
}

// L2Distance returns true Euclidean distance (with the square root), used
// where callers need an actual metric rather than an orderable score (the
// Vamana medoid selection).
func L2Distance(a, b []float32) float32 {
	return float32(math.Sqrt(float64(squaredL2(a, b))))
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float32) float32 {
	return float32(math.Sqrt(float64(dot(v, v))))
}

// Broadcast produces n independent copies of a fixed query for concurrent
// per-worker use. Every copy shares the same Query backing slice, which is
// safe since Query/Norm are read-only after FixArgument.
func Broadcast(fq FixedQuery, n int) []FixedQuery {
	out := make([]FixedQuery, n)
	for i := range out {
		out[i] = fq
	}
	return out
}
