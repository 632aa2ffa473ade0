package config

import (
	"os"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if cfg.Vamana.GraphMaxDegree != 64 {
		t.Errorf("expected graph_max_degree 64, got %d", cfg.Vamana.GraphMaxDegree)
	}
	if cfg.Vamana.Alpha != 1.2 {
		t.Errorf("expected alpha 1.2, got %v", cfg.Vamana.Alpha)
	}
	if cfg.IVF.NumCentroids != 256 {
		t.Errorf("expected num_centroids 256, got %d", cfg.IVF.NumCentroids)
	}
	if cfg.ThreadPool.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.ThreadPool.Workers)
	}
	if cfg.Storage.DataDir != "./data" {
		t.Errorf("expected data dir ./data, got %s", cfg.Storage.DataDir)
	}
}

func withEnv(t *testing.T, kv map[string]string, fn func()) {
	t.Helper()
	original := make(map[string]string)
	for k := range kv {
		original[k] = os.Getenv(k)
	}
	for k, v := range kv {
		os.Setenv(k, v)
	}
	defer func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()
	fn()
}

func TestLoadFromEnvOverridesDefaults(t *testing.T) {
	withEnv(t, map[string]string{
		"SVS_VAMANA_ALPHA":            "1.5",
		"SVS_VAMANA_GRAPH_MAX_DEGREE": "32",
		"SVS_IVF_NUM_CENTROIDS":       "64",
		"SVS_IVF_HIERARCHICAL":        "true",
		"SVS_THREADPOOL_WORKERS":      "4",
		"SVS_DATA_DIR":                "/var/lib/svs",
	}, func() {
		cfg := LoadFromEnv()
		if cfg.Vamana.Alpha != 1.5 {
			t.Errorf("expected alpha 1.5, got %v", cfg.Vamana.Alpha)
		}
		if cfg.Vamana.GraphMaxDegree != 32 {
			t.Errorf("expected graph_max_degree 32, got %d", cfg.Vamana.GraphMaxDegree)
		}
		if cfg.IVF.NumCentroids != 64 {
			t.Errorf("expected num_centroids 64, got %d", cfg.IVF.NumCentroids)
		}
		if !cfg.IVF.Hierarchical {
			t.Error("expected hierarchical clustering enabled")
		}
		if cfg.ThreadPool.Workers != 4 {
			t.Errorf("expected 4 workers, got %d", cfg.ThreadPool.Workers)
		}
		if cfg.Storage.DataDir != "/var/lib/svs" {
			t.Errorf("expected data dir /var/lib/svs, got %s", cfg.Storage.DataDir)
		}
	})
}

func TestLoadFromEnvIgnoresInvalidValues(t *testing.T) {
	withEnv(t, map[string]string{"SVS_VAMANA_GRAPH_MAX_DEGREE": "not-a-number"}, func() {
		cfg := LoadFromEnv()
		if cfg.Vamana.GraphMaxDegree != 64 {
			t.Errorf("expected default graph_max_degree 64 for invalid value, got %d", cfg.Vamana.GraphMaxDegree)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid default config", mutate: func(c *Config) {}, wantErr: false},
		{name: "prune_to exceeds graph_max_degree", mutate: func(c *Config) { c.Vamana.PruneTo = c.Vamana.GraphMaxDegree + 1 }, wantErr: true},
		{name: "zero graph_max_degree", mutate: func(c *Config) { c.Vamana.GraphMaxDegree = 0 }, wantErr: true},
		{name: "nprobes exceeds num_centroids", mutate: func(c *Config) { c.IVF.NProbes = c.IVF.NumCentroids + 1 }, wantErr: true},
		{name: "zero threadpool workers", mutate: func(c *Config) { c.ThreadPool.Workers = 0 }, wantErr: true},
		{name: "empty data dir", mutate: func(c *Config) { c.Storage.DataDir = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
