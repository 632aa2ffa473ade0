// Package config loads and validates the environment-variable-driven
// configuration every cmd/ entry point in the module shares. Grounded on the
// teacher's pkg/config/config.go: same Default()/LoadFromEnv()/Validate()
// three-function shape, generalized from HNSW/gRPC-server settings to the
// Vamana/IVF build and search parameters this module actually exposes.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds every setting a build or search invocation can tune.
type Config struct {
	Vamana     VamanaConfig
	IVF        IVFConfig
	ThreadPool ThreadPoolConfig
	Storage    StorageConfig
}

// VamanaConfig mirrors pkg/vamana.BuildParameters with environment-variable
// defaults, so cmd/svsbench doesn't need its own parsing layer.
type VamanaConfig struct {
	Alpha                float64
	GraphMaxDegree       int
	WindowSize           int
	MaxCandidatePoolSize int
	PruneTo              int
	UseFullSearchHistory bool
}

// IVFConfig mirrors pkg/ivf.Params.
type IVFConfig struct {
	NumCentroids int
	Hierarchical bool
	L1Centroids  int
	NProbes      int
	KReorder     int
}

// ThreadPoolConfig controls pkg/threadpool.New's worker count.
type ThreadPoolConfig struct {
	Workers int
}

// StorageConfig controls where save/load artifacts and optional bbolt
// sidecar graphs are written.
type StorageConfig struct {
	DataDir       string
	UseBoltGraph  bool
	CompressBlobs bool
}

// Default returns the baseline configuration before any environment
// variable overrides are applied.
func Default() *Config {
	return &Config{
		Vamana: VamanaConfig{
			Alpha:                1.2,
			GraphMaxDegree:       64,
			WindowSize:           100,
			MaxCandidatePoolSize: 750,
			PruneTo:              64,
			UseFullSearchHistory: true,
		},
		IVF: IVFConfig{
			NumCentroids: 256,
			Hierarchical: false,
			L1Centroids:  16,
			NProbes:      8,
			KReorder:     0,
		},
		ThreadPool: ThreadPoolConfig{
			Workers: 8,
		},
		Storage: StorageConfig{
			DataDir:       "./data",
			UseBoltGraph:  false,
			CompressBlobs: true,
		},
	}
}

// LoadFromEnv layers SVS_-prefixed environment variable overrides onto
// Default(), matching the teacher's VECTOR_-prefixed override pattern.
func LoadFromEnv() *Config {
	cfg := Default()

	if v := os.Getenv("SVS_VAMANA_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Vamana.Alpha = f
		}
	}
	if v := os.Getenv("SVS_VAMANA_GRAPH_MAX_DEGREE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Vamana.GraphMaxDegree = n
		}
	}
	if v := os.Getenv("SVS_VAMANA_WINDOW_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Vamana.WindowSize = n
		}
	}
	if v := os.Getenv("SVS_VAMANA_MAX_CANDIDATE_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Vamana.MaxCandidatePoolSize = n
		}
	}
	if v := os.Getenv("SVS_VAMANA_PRUNE_TO"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Vamana.PruneTo = n
		}
	}
	if v := os.Getenv("SVS_VAMANA_USE_FULL_SEARCH_HISTORY"); v == "false" {
		cfg.Vamana.UseFullSearchHistory = false
	}

	if v := os.Getenv("SVS_IVF_NUM_CENTROIDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.IVF.NumCentroids = n
		}
	}
	if v := os.Getenv("SVS_IVF_HIERARCHICAL"); v == "true" {
		cfg.IVF.Hierarchical = true
	}
	if v := os.Getenv("SVS_IVF_L1_CENTROIDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.IVF.L1Centroids = n
		}
	}
	if v := os.Getenv("SVS_IVF_NPROBES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.IVF.NProbes = n
		}
	}
	if v := os.Getenv("SVS_IVF_K_REORDER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.IVF.KReorder = n
		}
	}

	if v := os.Getenv("SVS_THREADPOOL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ThreadPool.Workers = n
		}
	}

	if v := os.Getenv("SVS_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SVS_USE_BOLT_GRAPH"); v == "true" {
		cfg.Storage.UseBoltGraph = true
	}
	if v := os.Getenv("SVS_COMPRESS_BLOBS"); v == "false" {
		cfg.Storage.CompressBlobs = false
	}

	return cfg
}

// Validate checks the invariants every build/search path assumes.
func (c *Config) Validate() error {
	if c.Vamana.GraphMaxDegree < 1 {
		return fmt.Errorf("invalid vamana graph_max_degree: %d (must be > 0)", c.Vamana.GraphMaxDegree)
	}
	if c.Vamana.PruneTo > c.Vamana.GraphMaxDegree {
		return fmt.Errorf("vamana prune_to %d exceeds graph_max_degree %d", c.Vamana.PruneTo, c.Vamana.GraphMaxDegree)
	}
	if c.Vamana.WindowSize < 1 {
		return fmt.Errorf("invalid vamana window_size: %d (must be > 0)", c.Vamana.WindowSize)
	}
	if c.IVF.NumCentroids < 1 {
		return fmt.Errorf("invalid ivf num_centroids: %d (must be > 0)", c.IVF.NumCentroids)
	}
	if c.IVF.NProbes < 1 || c.IVF.NProbes > c.IVF.NumCentroids {
		return fmt.Errorf("invalid ivf n_probes: %d (must be in [1, num_centroids=%d])", c.IVF.NProbes, c.IVF.NumCentroids)
	}
	if c.ThreadPool.Workers < 1 {
		return fmt.Errorf("invalid threadpool workers: %d (must be > 0)", c.ThreadPool.Workers)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("data directory not specified")
	}
	return nil
}
