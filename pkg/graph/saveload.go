package graph

import (
	"bytes"
	"encoding/binary"

	"github.com/go-svs/svs/pkg/saveload"
	"github.com/go-svs/svs/pkg/svserr"
)

const graphSchema = "vamana_graph"

var graphSaveVersion = saveload.Version{Major: 0, Minor: 0, Patch: 1}

// Backend selects how Save/Load materializes the adjacency rows.
type Backend string

const (
	// FlatBackend is the default: one count-prefixed blob holding every row,
	// loaded back entirely into memory. Simple and fast for graphs that fit
	// in RAM.
	FlatBackend Backend = "flat"
	// BoltBackend persists rows in a bbolt-backed BoltStore sidecar file
	// instead of a flat blob, for graphs too large to comfortably hold as
	// one in-memory buffer during save/load.
	BoltBackend Backend = "bbolt"
)

// Save writes the graph using the default flat backend. Equivalent to
// SaveWithBackend(ctx, FlatBackend).
func (g *Graph) Save(ctx *saveload.SaveContext) (saveload.Table, error) {
	return g.SaveWithBackend(ctx, FlatBackend)
}

// SaveWithBackend writes the graph using the named backend, matching §6's
// "vamana_graph" artifact for either the default flat encoding or the
// bbolt-backed large-graph alternative.
func (g *Graph) SaveWithBackend(ctx *saveload.SaveContext, backend Backend) (saveload.Table, error) {
	switch backend {
	case BoltBackend:
		return g.saveBolt(ctx)
	case "", FlatBackend:
		return g.saveFlat(ctx)
	default:
		return nil, svserr.Serialization("unknown graph backend %q", backend)
	}
}

// saveFlat writes the graph as a count-prefixed adjacency blob: for each
// row, a uint32 neighbor count followed by that many uint32 neighbor ids.
func (g *Graph) saveFlat(ctx *saveload.SaveContext) (saveload.Table, error) {
	var buf bytes.Buffer
	for _, row := range g.rows {
		if err := binary.Write(&buf, binary.LittleEndian, uint32(len(row))); err != nil {
			return nil, svserr.Serialization("encoding graph row length: %v", err)
		}
		if err := binary.Write(&buf, binary.LittleEndian, row); err != nil {
			return nil, svserr.Serialization("encoding graph row: %v", err)
		}
	}
	blob, err := saveload.SaveBlob(ctx, "graph", "uint32", 4, len(g.rows), buf.Bytes(), true)
	if err != nil {
		return nil, err
	}
	t := saveload.Table{
		"num_nodes":  len(g.rows),
		"max_degree": g.maxDegree,
		"backend":    string(FlatBackend),
		"blob":       blob,
	}
	return saveload.WithMetadata(t, graphSchema, graphSaveVersion), nil
}

// saveBolt flushes every row into a fresh BoltStore sidecar file within
// ctx's directory and records its relative path in the root table.
func (g *Graph) saveBolt(ctx *saveload.SaveContext) (saveload.Table, error) {
	name := ctx.GenerateName("graph", "bolt")
	store, err := OpenBoltStore(ctx.Path(name))
	if err != nil {
		return nil, err
	}
	defer store.Close()
	if err := store.Flush(g); err != nil {
		return nil, err
	}
	t := saveload.Table{
		"num_nodes":  len(g.rows),
		"max_degree": g.maxDegree,
		"backend":    string(BoltBackend),
		"bolt_file":  name,
	}
	return saveload.WithMetadata(t, graphSchema, graphSaveVersion), nil
}

// Load reverses Save/SaveWithBackend, dispatching on the persisted backend.
func Load(ctx *saveload.LoadContext, loaded *saveload.LoadedRoot) (*Graph, error) {
	if err := saveload.CheckCompatible(loaded, graphSchema, graphSaveVersion); err != nil {
		return nil, err
	}
	n := asInt(loaded.Object["num_nodes"])
	maxDegree := asInt(loaded.Object["max_degree"])
	backend, _ := loaded.Object["backend"].(string)
	switch Backend(backend) {
	case BoltBackend:
		return loadBolt(ctx, loaded, n, maxDegree)
	case "", FlatBackend:
		return loadFlat(ctx, loaded, n, maxDegree)
	default:
		return nil, svserr.Serialization("graph backend %q not supported by Load", backend)
	}
}

func loadFlat(ctx *saveload.LoadContext, loaded *saveload.LoadedRoot, n, maxDegree int) (*Graph, error) {
	blob, err := decodeBlobTable(loaded.Object["blob"])
	if err != nil {
		return nil, err
	}
	raw, err := saveload.LoadBlob(ctx, blob)
	if err != nil {
		return nil, err
	}
	g := New(n, maxDegree)
	r := bytes.NewReader(raw)
	for i := 0; i < n; i++ {
		var count uint32
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, svserr.Serialization("decoding graph row %d length: %v", i, err)
		}
		row := make([]uint32, count)
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, svserr.Serialization("decoding graph row %d: %v", i, err)
		}
		g.rows[i] = row
	}
	return g, nil
}

func loadBolt(ctx *saveload.LoadContext, loaded *saveload.LoadedRoot, n, maxDegree int) (*Graph, error) {
	name := asString(loaded.Object["bolt_file"])
	store, err := OpenBoltStore(ctx.Path(name))
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.LoadGraph(n, maxDegree)
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
		Filename:    asString(m["filename"]),
		ElementSize: asInt(m["element_size"]),
		ElementType: asString(m["element_type"]),
		NumElements: asInt(m["num_elements"]),
		Compression: asString(m["compression"]),
	}, nil
}

func asInt(v interface{}) int {
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

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
