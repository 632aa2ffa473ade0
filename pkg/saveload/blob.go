package saveload

import (
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/go-svs/svs/pkg/svserr"
)

// BlobTable is the table entry recorded alongside a sidecar binary file:
// enough metadata for a loader to know how to reinterpret the raw bytes
// without needing the writer's original types in scope.
type BlobTable struct {
	Filename      string `toml:"filename"`
	ElementSize   int    `toml:"element_size"`
	ElementType   string `toml:"element_type"`
	NumElements   int    `toml:"num_elements"`
	Compression   string `toml:"compression,omitempty"`
}

// SaveBlob writes data as a sidecar file under ctx's directory, optionally
// zstd-compressing it, and returns the table entry describing it. Every
// caller in this module (dataset rows, graph adjacency, IVF cluster members)
// sets compress=true; the root svs_config.toml itself is never compressed so
// it stays human-diffable.
func SaveBlob(ctx *SaveContext, prefix, elementType string, elementSize, numElements int, data []byte, compress bool) (BlobTable, error) {
	name := ctx.GenerateName(prefix, "bin")
	path := ctx.Path(name)

	payload := data
	compression := ""
	if compress {
		encoded, err := zstdEncode(data)
		if err != nil {
			return BlobTable{}, err
		}
		payload = encoded
		compression = "zstd"
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return BlobTable{}, svserr.IO("writing blob %s: %v", path, err)
	}
	return BlobTable{
		Filename:    name,
		ElementSize: elementSize,
		ElementType: elementType,
		NumElements: numElements,
		Compression: compression,
	}, nil
}

// LoadBlob reads a sidecar file described by a BlobTable, reversing any
// zstd compression applied at save time.
func LoadBlob(ctx *LoadContext, t BlobTable) ([]byte, error) {
	path := ctx.Path(t.Filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, svserr.IO("reading blob %s: %v", path, err)
	}
	if t.Compression == "zstd" {
		return zstdDecode(data)
	}
	if t.Compression != "" {
		return nil, svserr.Serialization("blob %s declares unknown compression %q", t.Filename, t.Compression)
	}
	return data, nil
}

func zstdEncode(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, svserr.Serialization("creating zstd encoder: %v", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func zstdDecode(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, svserr.Serialization("creating zstd decoder: %v", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, svserr.Serialization("decoding zstd blob: %v", err)
	}
	return out, nil
}
