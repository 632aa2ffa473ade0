package ivf

import (
	"path/filepath"
	"testing"

	"github.com/go-svs/svs/pkg/distance"
)

func testParams(storage StorageStrategy) Params {
	return Params{
		NumCentroids: 6,
		Hierarchical: false,
		NProbes:      3,
		Storage:      storage,
		QuantBits:    8,
		Iterations:   5,
		Seed:         9,
	}
}

func TestSaveLoadIndexRoundTrip(t *testing.T) {
	for _, storage := range []StorageStrategy{Sparse, Dense, Compressed} {
		data := randomVectors(200, 6, 5)
		idx, err := Build(data, distance.L2, testParams(storage))
		if err != nil {
			t.Fatalf("Build: %v", err)
		}

		dir := filepath.Join(t.TempDir(), "artifact")
		if err := idx.SaveIndex(dir); err != nil {
			t.Fatalf("SaveIndex: %v", err)
		}

		loaded, err := LoadIndex(dir)
		if err != nil {
			t.Fatalf("LoadIndex: %v", err)
		}

		if len(loaded.Centroids) != len(idx.Centroids) {
			t.Errorf("centroid count mismatch: got %d, want %d", len(loaded.Centroids), len(idx.Centroids))
		}
		if loaded.Params.NumCentroids != idx.Params.NumCentroids {
			t.Errorf("num_centroids mismatch: got %d, want %d", loaded.Params.NumCentroids, idx.Params.NumCentroids)
		}
		if loaded.Translator.Size() != idx.Translator.Size() {
			t.Errorf("translator size mismatch: got %d, want %d", loaded.Translator.Size(), idx.Translator.Size())
		}

		query, _ := data.Get(0)
		results, err := loaded.Search(query, 5)
		if err != nil {
			t.Fatalf("Search on loaded index: %v", err)
		}
		if len(results) == 0 {
			t.Error("expected at least one search result from loaded index")
		}
	}
}

func TestSaveLoadIndexRoundTripQuantizerVariants(t *testing.T) {
	variants := []Params{
		{
			NumCentroids: 6, NProbes: 3, Iterations: 5, Seed: 9,
			Storage: Compressed, Quantizer: LVQQuant, QuantBits: 8,
			LVQResidual: true, LVQResidualBits: 4,
		},
		{
			NumCentroids: 6, NProbes: 3, Iterations: 5, Seed: 9,
			Storage: Compressed, Quantizer: LeanVecQuant, LeanVecReducedDim: 4,
		},
	}

	for _, params := range variants {
		data := randomVectors(200, 6, 5)
		idx, err := Build(data, distance.L2, params)
		if err != nil {
			t.Fatalf("Build (quantizer=%d): %v", params.Quantizer, err)
		}

		dir := filepath.Join(t.TempDir(), "artifact")
		if err := idx.SaveIndex(dir); err != nil {
			t.Fatalf("SaveIndex (quantizer=%d): %v", params.Quantizer, err)
		}

		loaded, err := LoadIndex(dir)
		if err != nil {
			t.Fatalf("LoadIndex (quantizer=%d): %v", params.Quantizer, err)
		}

		if loaded.Params.Quantizer != params.Quantizer {
			t.Errorf("quantizer mismatch: got %d, want %d", loaded.Params.Quantizer, params.Quantizer)
		}
		if loaded.Params.LVQResidual != params.LVQResidual || loaded.Params.LVQResidualBits != params.LVQResidualBits {
			t.Errorf("lvq residual config mismatch: got (%v,%d), want (%v,%d)",
				loaded.Params.LVQResidual, loaded.Params.LVQResidualBits, params.LVQResidual, params.LVQResidualBits)
		}
		if loaded.Params.LeanVecReducedDim != params.LeanVecReducedDim {
			t.Errorf("lean_vec_reduced_dim mismatch: got %d, want %d", loaded.Params.LeanVecReducedDim, params.LeanVecReducedDim)
		}
		if params.Quantizer == LeanVecQuant && loaded.reducer == nil {
			t.Error("expected LeanVecQuant to reconstruct a reducer on load")
		}
		if params.Quantizer == LVQQuant && loaded.reducer != nil {
			t.Error("expected LVQQuant not to reconstruct a reducer on load")
		}

		query, _ := data.Get(0)
		results, err := loaded.Search(query, 5)
		if err != nil {
			t.Fatalf("Search on loaded index (quantizer=%d): %v", params.Quantizer, err)
		}
		if len(results) == 0 {
			t.Errorf("expected at least one search result from loaded index (quantizer=%d)", params.Quantizer)
		}
	}
}
