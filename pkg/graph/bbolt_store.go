package graph

import (
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/go-svs/svs/pkg/svserr"
)

// BoltStore persists adjacency rows keyed by internal id. It replaces the
// teacher's DiskGraph (pkg/diskann/disk_graph.go), which hand-rolled an
// "SSTable-like structure for efficient random access" by appending records
// to a flat file and rebuilding a map[uint64]int64 offset index from a
// linear scan on load; bbolt gives the same random-access contract with a
// real embedded B+tree index that persists itself, so the rebuild-on-load
// step disappears entirely.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
}

var graphBucket = []byte("vamana_graph")

// OpenBoltStore opens (creating if absent) a bbolt-backed adjacency store at
// path, used as the "vamana_graph" sidecar backend when an artifact's table
// records backend = "bbolt".
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0644, nil)
	if err != nil {
		return nil, svserr.IO("opening bbolt graph store %s: %v", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(graphBucket)
		return e
	})
	if err != nil {
		db.Close()
		return nil, svserr.IO("initializing bbolt bucket in %s: %v", path, err)
	}
	return &BoltStore{db: db, bucket: graphBucket}, nil
}

// Close releases the underlying file handle.
func (s *BoltStore) Close() error { return s.db.Close() }

// PutNeighbors stores i's adjacency row.
func (s *BoltStore) PutNeighbors(i int, neighbors []uint32) error {
	key := idKey(i)
	val := make([]byte, len(neighbors)*4)
	for j, n := range neighbors {
		binary.LittleEndian.PutUint32(val[j*4:], n)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(key, val)
	})
}

// Neighbors retrieves i's adjacency row.
func (s *BoltStore) Neighbors(i int) ([]uint32, error) {
	var out []uint32
	err := s.db.View(func(tx *bolt.Tx) error {
		val := tx.Bucket(s.bucket).Get(idKey(i))
		if val == nil {
			return nil
		}
		out = make([]uint32, len(val)/4)
		for j := range out {
			out[j] = binary.LittleEndian.Uint32(val[j*4:])
		}
		return nil
	})
	if err != nil {
		return nil, svserr.IO("reading row %d: %v", i, err)
	}
	return out, nil
}

// Flush persists every row of an in-memory Graph into the store in one
// transaction, used when serializing a built index.
func (s *BoltStore) Flush(g *Graph) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for i := 0; i < g.Size(); i++ {
			neighbors, err := g.Neighbors(i)
			if err != nil {
				return err
			}
			val := make([]byte, len(neighbors)*4)
			for j, n := range neighbors {
				binary.LittleEndian.PutUint32(val[j*4:], n)
			}
			if err := b.Put(idKey(i), val); err != nil {
				return fmt.Errorf("putting row %d: %w", i, err)
			}
		}
		return nil
	})
}

// LoadGraph reconstructs an in-memory Graph of n nodes with the given max
// degree by reading every row persisted via Flush.
func (s *BoltStore) LoadGraph(n, maxDegree int) (*Graph, error) {
	g := New(n, maxDegree)
	for i := 0; i < n; i++ {
		neighbors, err := s.Neighbors(i)
		if err != nil {
			return nil, err
		}
		if err := g.SetNeighbors(i, neighbors); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func idKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}
