// Package translate implements the bidirectional external<->internal id
// mapping (C12). Grounded directly on the original implementation's
// IDTranslator (original_source/include/svs/core/translation.h): external
// ids are uint64, internal ids are uint32, two maps are kept in lockstep,
// and every bulk mutation validates before it touches either map so a
// failed call leaves the translator completely unchanged.
package translate

import (
	"github.com/go-svs/svs/pkg/svserr"
)

// Translator holds the external<->internal bijection for one index.
type Translator struct {
	extToInt map[uint64]uint32
	intToExt map[uint32]uint64
}

// New creates an empty translator.
func New() *Translator {
	return &Translator{
		extToInt: make(map[uint64]uint32),
		intToExt: make(map[uint32]uint64),
	}
}

// Identity creates a translator mapping external id i to internal id i for
// i in [0, n), mirroring the C++ Identity tag constructor used when a
// dataset is loaded without an explicit id file.
func Identity(n int) *Translator {
	t := New()
	for i := 0; i < n; i++ {
		t.extToInt[uint64(i)] = uint32(i)
		t.intToExt[uint32(i)] = uint64(i)
	}
	return t
}

// Size returns the number of registered pairs. Both maps are always kept at
// equal size; this is the invariant the type maintains internally rather
// than one worth re-checking on every call.
func (t *Translator) Size() int { return len(t.extToInt) }

// HasExternal reports whether e is registered.
func (t *Translator) HasExternal(e uint64) bool {
	_, ok := t.extToInt[e]
	return ok
}

// HasInternal reports whether i is registered.
func (t *Translator) HasInternal(i uint32) bool {
	_, ok := t.intToExt[i]
	return ok
}

// GetInternal looks up the internal id for an external id.
func (t *Translator) GetInternal(e uint64) (uint32, error) {
	i, ok := t.extToInt[e]
	if !ok {
		return 0, svserr.UnknownID("external id %d", e)
	}
	return i, nil
}

// GetExternal looks up the external id for an internal id.
func (t *Translator) GetExternal(i uint32) (uint64, error) {
	e, ok := t.intToExt[i]
	if !ok {
		return 0, svserr.UnknownID("internal id %d", i)
	}
	return e, nil
}

// Insert bulk-registers paired external/internal ids. When check is true
// (the default the original implementation uses), every pair is validated
// before any mutation: externals and internals must each be unique within
// the batch, and none may already be registered. A failed check leaves the
// translator completely unchanged — the atomic bulk-insert contract.
func (t *Translator) Insert(externals []uint64, internals []uint32, check bool) error {
	if len(externals) != len(internals) {
		return svserr.InvalidInput("externals (%d) and internals (%d) length mismatch", len(externals), len(internals))
	}
	if check {
		seenExt := make(map[uint64]bool, len(externals))
		seenInt := make(map[uint32]bool, len(internals))
		for idx, e := range externals {
			i := internals[idx]
			if seenExt[e] {
				return svserr.DuplicateID("external id %d repeated within insert batch", e)
			}
			if seenInt[i] {
				return svserr.DuplicateID("internal id %d repeated within insert batch", i)
			}
			seenExt[e] = true
			seenInt[i] = true
			if t.HasExternal(e) {
				return svserr.DuplicateID("external id %d already registered", e)
			}
			if t.HasInternal(i) {
				return svserr.DuplicateID("internal id %d already registered", i)
			}
		}
	}
	for idx, e := range externals {
		i := internals[idx]
		t.extToInt[e] = i
		t.intToExt[i] = e
	}
	return nil
}

// InsertPair registers a single (external, internal) pair, with the same
// checks as Insert with check=true, for the common single-insert
// dynamic-update path.
func (t *Translator) InsertPair(e uint64, i uint32) error {
	return t.Insert([]uint64{e}, []uint32{i}, true)
}

// DeleteInternal bulk-removes entries by internal id. When check is true,
// every id must exist before any removal happens.
func (t *Translator) DeleteInternal(internals []uint32, check bool) error {
	if check {
		for _, i := range internals {
			if !t.HasInternal(i) {
				return svserr.UnknownID("internal id %d", i)
			}
		}
	}
	for _, i := range internals {
		if e, ok := t.intToExt[i]; ok {
			delete(t.intToExt, i)
			delete(t.extToInt, e)
		}
	}
	return nil
}

// DeleteExternal bulk-removes entries by external id.
func (t *Translator) DeleteExternal(externals []uint64, check bool) error {
	if check {
		for _, e := range externals {
			if !t.HasExternal(e) {
				return svserr.UnknownID("external id %d", e)
			}
		}
	}
	for _, e := range externals {
		if i, ok := t.extToInt[e]; ok {
			delete(t.extToInt, e)
			delete(t.intToExt, i)
		}
	}
	return nil
}

// RemapInternal rebinds the internal side of a mapping from one id to
// another while preserving the external binding: from must currently exist
// and to must not.
func (t *Translator) RemapInternal(from, to uint32) error {
	e, ok := t.intToExt[from]
	if !ok {
		return svserr.UnknownID("internal id %d", from)
	}
	if t.HasInternal(to) {
		return svserr.DuplicateID("internal id %d already registered", to)
	}
	delete(t.intToExt, from)
	t.intToExt[to] = e
	t.extToInt[e] = to
	return nil
}

// Pair is one (external, internal) binding, returned by All for iteration
// and for save/load serialization.
type Pair struct {
	External uint64
	Internal uint32
}

// All returns every registered pair. Order is unspecified, matching the
// original's map-backed iteration.
func (t *Translator) All() []Pair {
	out := make([]Pair, 0, len(t.extToInt))
	for e, i := range t.extToInt {
		out = append(out, Pair{External: e, Internal: i})
	}
	return out
}
