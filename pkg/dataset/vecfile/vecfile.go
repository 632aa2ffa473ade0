// Package vecfile reads the three canonical vector file shapes named in the
// external-interfaces section: "vecs" (per-row length prefix), "binary"
// (DiskANN/SVS-style fixed header), and this module's own internal format.
// These are dataset sources, not a general legacy-format adapter framework —
// adapters for other ecosystems' formats stay out of scope.
package vecfile

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/go-svs/svs/pkg/svserr"
)

// ReadVecs reads the classic "vecs" layout: a sequence of
// (length uint32, element[length] float32) records. All records must share
// the same length; a mismatched record is a hard error since downstream
// datasets require uniform dimensionality.
func ReadVecs(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, svserr.IO("open %s: %v", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var rows [][]float32
	var dim uint32
	for {
		var length uint32
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			if err == io.EOF {
				break
			}
			return nil, svserr.IO("reading vecs length prefix in %s: %v", path, err)
		}
		if len(rows) == 0 {
			dim = length
		} else if length != dim {
			return nil, svserr.InvalidInput("vecs row %d has length %d, want %d", len(rows), length, dim)
		}
		row := make([]float32, length)
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, svserr.IO("reading vecs row %d in %s: %v", len(rows), path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// BinaryHeader is the fixed 8-byte header preceding DiskANN/SVS-style
// ".bin" vector files: num_vectors then vector_dim, both little-endian u32.
type BinaryHeader struct {
	NumVectors uint32
	VectorDim  uint32
}

// ReadBinaryHeader reads the header and rewinds to the start, mirroring get_dims in
// the original implementation's binary.h (seek to start, read header, seek
// back to start so a subsequent full read starts from byte zero).
func ReadBinaryHeader(r io.ReadSeeker) (BinaryHeader, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return BinaryHeader{}, svserr.IO("seeking binary header: %v", err)
	}
	var h BinaryHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return BinaryHeader{}, svserr.IO("reading binary header: %v", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return BinaryHeader{}, svserr.IO("rewinding after binary header: %v", err)
	}
	return h, nil
}

// ReadBinary reads a full ".bin" file into dense rows.
func ReadBinary(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, svserr.IO("open %s: %v", path, err)
	}
	defer f.Close()

	h, err := ReadBinaryHeader(f)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(8, io.SeekStart); err != nil {
		return nil, svserr.IO("seeking past binary header in %s: %v", path, err)
	}
	r := bufio.NewReader(f)
	rows := make([][]float32, h.NumVectors)
	for i := range rows {
		row := make([]float32, h.VectorDim)
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, svserr.IO("reading binary row %d in %s: %v", i, path, err)
		}
		rows[i] = row
	}
	return rows, nil
}

// internalHeader is this module's own persisted-dataset header: 64 bytes so
// the row data begins on a cache-line-friendly boundary.
type internalHeader struct {
	NumVectors  uint64
	VectorDim   uint64
	ElementSize uint64
	_           [40]byte // pad to 64 bytes
}

// WriteInternal writes rows using the internal fixed-stride format described
// in the external-interfaces section.
func WriteInternal(path string, rows [][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return svserr.IO("create %s: %v", path, err)
	}
	defer f.Close()

	var dim uint64
	if len(rows) > 0 {
		dim = uint64(len(rows[0]))
	}
	h := internalHeader{NumVectors: uint64(len(rows)), VectorDim: dim, ElementSize: 4}
	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return svserr.IO("writing internal header to %s: %v", path, err)
	}
	for i, row := range rows {
		if uint64(len(row)) != dim {
			return svserr.InvalidInput("row %d has dimension %d, want %d", i, len(row), dim)
		}
		if err := binary.Write(w, binary.LittleEndian, row); err != nil {
			return svserr.IO("writing internal row %d to %s: %v", i, path, err)
		}
	}
	return w.Flush()
}

// ReadInternal reads rows written by WriteInternal.
func ReadInternal(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, svserr.IO("open %s: %v", path, err)
	}
	defer f.Close()

	var h internalHeader
	if err := binary.Read(f, binary.LittleEndian, &h); err != nil {
		return nil, svserr.IO("reading internal header from %s: %v", path, err)
	}
	r := bufio.NewReader(f)
	rows := make([][]float32, h.NumVectors)
	for i := range rows {
		row := make([]float32, h.VectorDim)
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, svserr.IO("reading internal row %d from %s: %v", i, path, err)
		}
		rows[i] = row
	}
	return rows, nil
}
