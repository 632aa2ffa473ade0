package saveload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

func TestVersionParseRoundTrip(t *testing.T) {
	v := Version{1, 2, 3}
	parsed, err := ParseVersion(v.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !parsed.Equal(v) {
		t.Fatalf("got %v, want %v", parsed, v)
	}
}

func TestVersionParseRejectsMalformed(t *testing.T) {
	cases := []string{"1.2.3", "v1.2", "va.b.c", "v1.2.3.4"}
	for _, c := range cases {
		if _, err := ParseVersion(c); err == nil {
			t.Fatalf("expected error for %q", c)
		}
	}
}

func TestVersionOrdering(t *testing.T) {
	if !(Version{0, 0, 1}).Less(Version{0, 0, 2}) {
		t.Fatal("0.0.1 should sort before 0.0.2")
	}
	if (Version{1, 0, 0}).Less(Version{0, 9, 9}) {
		t.Fatal("1.0.0 should not sort before 0.9.9")
	}
}

func TestSaveLoadRootRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sctx, err := NewSaveContext(dir)
	if err != nil {
		t.Fatalf("new save context: %v", err)
	}
	object := WithMetadata(Table{"alpha": 1.2, "graph_max_degree": int64(32)}, "vamana_build_parameters", Version{0, 0, 1})
	if err := SaveRoot(sctx, object); err != nil {
		t.Fatalf("save root: %v", err)
	}

	lctx := NewLoadContext(dir)
	loaded, err := LoadRoot(lctx)
	if err != nil {
		t.Fatalf("load root: %v", err)
	}
	if loaded.Schema != "vamana_build_parameters" {
		t.Fatalf("unexpected schema %q", loaded.Schema)
	}
	if err := CheckCompatible(loaded, "vamana_build_parameters", Version{0, 0, 1}); err != nil {
		t.Fatalf("expected compatible: %v", err)
	}
	if err := CheckCompatible(loaded, "vamana_build_parameters", Version{0, 0, 0}); err == nil {
		t.Fatal("expected version mismatch to fail")
	}
}

func TestLoadRootRejectsOldGlobalVersion(t *testing.T) {
	dir := t.TempDir()
	sctx, _ := NewSaveContext(dir)
	sctx.Version = Version{0, 0, 1}
	object := WithMetadata(Table{}, "x", Version{0, 0, 0})
	root := rootTable{Version: "v0.0.1", Object: object}
	data, err := toml.Marshal(root)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "svs_config.toml"), data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	lctx := NewLoadContext(dir)
	if _, err := LoadRoot(lctx); err == nil {
		t.Fatal("expected rejection of stale global version v0.0.1")
	}
}

func TestBlobRoundTripCompressed(t *testing.T) {
	dir := t.TempDir()
	sctx, _ := NewSaveContext(dir)
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i % 7)
	}
	bt, err := SaveBlob(sctx, "codes", "int8", 1, len(data), data, true)
	if err != nil {
		t.Fatalf("save blob: %v", err)
	}
	if bt.Compression != "zstd" {
		t.Fatal("expected zstd compression recorded")
	}
	lctx := NewLoadContext(dir)
	got, err := LoadBlob(lctx, bt)
	if err != nil {
		t.Fatalf("load blob: %v", err)
	}
	if len(got) != len(data) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(data))
	}
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("byte %d mismatch", i)
		}
	}
}
