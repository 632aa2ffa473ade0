// Package quant implements the quantized data substrate (C1's compressed
// variants) and the k-means primitives IVF clustering (C8) shares with it.
// Grounded throughout on internal/quantization/{utils,scalar,product}.go in
// the teacher, generalized from the teacher's fixed Euclidean/cosine/dot
// switch into the shared pkg/distance.Metric abstraction.
package quant

import (
	"math/rand"

	"github.com/go-svs/svs/pkg/distance"
	"github.com/go-svs/svs/pkg/svserr"
)

// KMeansParams configures flat and hierarchical k-means (C8).
type KMeansParams struct {
	Iterations       int
	Seed             int64
	TrainingFraction float64 // 0 < f <= 1; 0 defaults to 1 (use all points)
}

func (p KMeansParams) withDefaults() KMeansParams {
	if p.Iterations <= 0 {
		p.Iterations = 25
	}
	if p.TrainingFraction <= 0 || p.TrainingFraction > 1 {
		p.TrainingFraction = 1
	}
	return p
}

// KMeansPlusPlus runs k-means++ initialization followed by Lloyd iterations,
// the same two-stage algorithm as the teacher's KMeansPlusPlus, generalized
// over any distance.Metric instead of a fixed three-way switch.
func KMeansPlusPlus(vectors [][]float32, k int, m distance.Metric, params KMeansParams) ([][]float32, error) {
	params = params.withDefaults()
	if len(vectors) < k {
		return nil, svserr.InvalidInput("not enough vectors (%d) for %d clusters", len(vectors), k)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, svserr.InvalidInput("empty training vectors")
	}
	dim := len(vectors[0])
	r := rand.New(rand.NewSource(params.Seed))

	train := sampleFraction(vectors, params.TrainingFraction, r)

	centroids := make([][]float32, k)
	first := r.Intn(len(train))
	centroids[0] = cloneVec(train[first])

	for c := 1; c < k; c++ {
		distances := make([]float32, len(train))
		var total float32
		for i, vec := range train {
			minDist := nearestCentroidDist(vec, centroids[:c], m)
			distances[i] = minDist * minDist
			total += distances[i]
		}
		if total > 0 {
			target := r.Float32() * total
			var cumulative float32
			for i, d := range distances {
				cumulative += d
				if cumulative >= target {
					centroids[c] = cloneVec(train[i])
					break
				}
			}
		} else {
			centroids[c] = cloneVec(train[r.Intn(len(train))])
		}
	}

	for iter := 0; iter < params.Iterations; iter++ {
		clusters := make([][][]float32, k)
		for _, vec := range train {
			_, idx := nearestCentroid(vec, centroids, m)
			clusters[idx] = append(clusters[idx], vec)
		}
		converged := true
		for c := range centroids {
			if len(clusters[c]) == 0 {
				continue
			}
			mean := make([]float32, dim)
			for _, vec := range clusters[c] {
				for d := 0; d < dim; d++ {
					mean[d] += vec[d]
				}
			}
			for d := 0; d < dim; d++ {
				mean[d] /= float32(len(clusters[c]))
			}
			if distance.L2Distance(centroids[c], mean) > 1e-6 {
				converged = false
			}
			centroids[c] = mean
		}
		if converged {
			break
		}
	}
	return centroids, nil
}

// Hierarchical runs the two-level k-means described in C8: cluster into l1
// groups, then independently cluster each group into m/l1 sub-centroids,
// concatenating the result. Used when m is large relative to N to reduce
// per-iteration assignment cost from O(N*m) to O(N*(l1 + m/l1)).
func Hierarchical(vectors [][]float32, m, l1 int, metric distance.Metric, params KMeansParams) ([][]float32, error) {
	if l1 <= 0 || l1 >= m {
		return KMeansPlusPlus(vectors, m, metric, params)
	}
	top, err := KMeansPlusPlus(vectors, l1, metric, params)
	if err != nil {
		return nil, err
	}
	assign := make([][][]float32, l1)
	for _, vec := range vectors {
		_, idx := nearestCentroid(vec, top, metric)
		assign[idx] = append(assign[idx], vec)
	}
	perGroup := m / l1
	var out [][]float32
	for g := 0; g < l1; g++ {
		if len(assign[g]) == 0 {
			continue
		}
		k := perGroup
		if k > len(assign[g]) {
			k = len(assign[g])
		}
		if k == 0 {
			continue
		}
		sub, err := KMeansPlusPlus(assign[g], k, metric, params)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

// Assign returns, for each vector, the index of its nearest centroid.
func Assign(vectors [][]float32, centroids [][]float32, m distance.Metric) []int {
	out := make([]int, len(vectors))
	for i, v := range vectors {
		_, out[i] = nearestCentroid(v, centroids, m)
	}
	return out
}

func nearestCentroid(v []float32, centroids [][]float32, m distance.Metric) (float32, int) {
	fq := distance.FixArgument(m, v)
	best := float32(0)
	bestIdx := 0
	haveBest := false
	for i, c := range centroids {
		d := distance.Compute(m, fq, c)
		if !haveBest || m.Comparator(d, best) {
			best = d
			bestIdx = i
			haveBest = true
		}
	}
	return best, bestIdx
}

func nearestCentroidDist(v []float32, centroids [][]float32, m distance.Metric) float32 {
	if len(centroids) == 0 {
		return 0
	}
	d, _ := nearestCentroid(v, centroids, m)
	return d
}

func cloneVec(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

func sampleFraction(vectors [][]float32, frac float64, r *rand.Rand) [][]float32 {
	if frac >= 1 {
		return vectors
	}
	n := int(float64(len(vectors)) * frac)
	if n < 1 {
		n = 1
	}
	perm := r.Perm(len(vectors))[:n]
	out := make([][]float32, n)
	for i, idx := range perm {
		out[i] = vectors[idx]
	}
	return out
}
