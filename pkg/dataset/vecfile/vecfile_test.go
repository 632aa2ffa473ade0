package vecfile

import (
	"path/filepath"
	"testing"
)

func TestInternalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	rows := [][]float32{{1, 2, 3}, {4, 5, 6}}

	if err := WriteInternal(path, rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadInternal(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(got))
	}
	for i := range rows {
		for j := range rows[i] {
			if got[i][j] != rows[i][j] {
				t.Fatalf("row %d elem %d: got %f want %f", i, j, got[i][j], rows[i][j])
			}
		}
	}
}

func TestReadInternalMissingFile(t *testing.T) {
	if _, err := ReadInternal(filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
