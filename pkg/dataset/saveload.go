package dataset

import (
	"bytes"
	"encoding/binary"

	"github.com/go-svs/svs/pkg/saveload"
	"github.com/go-svs/svs/pkg/svserr"
)

const denseSchema = "uncompressed"

var denseSaveVersion = saveload.Version{Major: 0, Minor: 0, Patch: 1}

// Save writes d as a "dataset artifact": a single sidecar blob of
// fixed-stride float32 rows plus a table recording the vector count and
// dimensions. The blob holds the raw rows only, without the 64-byte header
// that vecfile.WriteInternal writes.
func (d *Dense) Save(ctx *saveload.SaveContext) (saveload.Table, error) {
	var buf bytes.Buffer
	for _, row := range d.rows {
		if err := binary.Write(&buf, binary.LittleEndian, row); err != nil {
			return nil, svserr.Serialization("encoding dataset rows: %v", err)
		}
	}
	blob, err := saveload.SaveBlob(ctx, "dataset", "float32", 4, d.Size()*d.dim, buf.Bytes(), true)
	if err != nil {
		return nil, err
	}
	t := saveload.Table{
		"num_vectors": d.Size(),
		"dimensions":  d.dim,
		"blob":        blob,
	}
	return saveload.WithMetadata(t, denseSchema, denseSaveVersion), nil
}

// LoadDense reverses Save.
func LoadDense(ctx *saveload.LoadContext, loaded *saveload.LoadedRoot) (*Dense, error) {
	if err := saveload.CheckCompatible(loaded, denseSchema, denseSaveVersion); err != nil {
		return nil, err
	}
	n := toInt(loaded.Object["num_vectors"])
	dim := toInt(loaded.Object["dimensions"])
	blob, err := decodeBlobTable(loaded.Object["blob"])
	if err != nil {
		return nil, err
	}
	raw, err := saveload.LoadBlob(ctx, blob)
	if err != nil {
		return nil, err
	}
	d := NewDense(n, dim)
	r := bytes.NewReader(raw)
	for i := 0; i < n; i++ {
		row := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, svserr.Serialization("decoding dataset row %d: %v", i, err)
		}
		d.rows[i] = row
	}
	return d, nil
}

func decodeBlobTable(v interface{}) (saveload.BlobTable, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		if t, ok := v.(saveload.BlobTable); ok {
			return t, nil
		}
		return saveload.BlobTable{}, svserr.Serialization("blob table has unexpected shape %T", v)
	}
	return saveload.BlobTable{
		Filename:    toString(m["filename"]),
		ElementSize: toInt(m["element_size"]),
		ElementType: toString(m["element_type"]),
		NumElements: toInt(m["num_elements"]),
		Compression: toString(m["compression"]),
	}, nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}
