// Package searchbuffer implements the bounded best-k structure (C3) that
// every greedy search drives: a sorted list of (id, distance, visited)
// records capped at a capacity, with a window size controlling when the
// search is considered done. Grounded on the min/max-heap pair in the
// teacher's diskann search, generalized into a single sorted-slice buffer
// since Vamana search needs ordered iteration over the unvisited prefix
// rather than heap push/pop.
package searchbuffer

import "sort"

// Neighbor is one candidate record held by the buffer.
type Neighbor struct {
	ID       uint32
	Distance float32
	Visited  bool
}

// Comparator orders two distances; Less(a, b) means a is strictly closer.
type Comparator func(a, b float32) bool

// Buffer holds neighbor records sorted by distance under its comparator.
// At most one entry exists per id.
type Buffer struct {
	less     Comparator
	window   int
	capacity int
	entries  []Neighbor
	seen     map[uint32]int // id -> index into entries, for duplicate suppression
}

// New creates a buffer with the given window size w and capacity c (c must
// be >= w; callers that violate this get it silently raised to w).
func New(less Comparator, w, c int) *Buffer {
	if c < w {
		c = w
	}
	return &Buffer{
		less:     less,
		window:   w,
		capacity: c,
		entries:  make([]Neighbor, 0, c),
		seen:     make(map[uint32]int, c),
	}
}

// Len returns the number of entries currently held.
func (b *Buffer) Len() int { return len(b.entries) }

// Insert places a candidate in sorted position, evicting the worst entry if
// the buffer exceeds capacity. A duplicate id updates in place only if the
// new distance is better.
func (b *Buffer) Insert(id uint32, dist float32) {
	if idx, ok := b.seen[id]; ok {
		if b.less(dist, b.entries[idx].Distance) {
			b.entries[idx].Distance = dist
			b.resort()
		}
		return
	}
	pos := sort.Search(len(b.entries), func(i int) bool {
		return !b.less(b.entries[i].Distance, dist)
	})
	if pos >= b.capacity {
		return
	}
	b.entries = append(b.entries, Neighbor{})
	copy(b.entries[pos+1:], b.entries[pos:])
	b.entries[pos] = Neighbor{ID: id, Distance: dist}
	b.seen[id] = pos
	for i := pos + 1; i < len(b.entries); i++ {
		b.seen[b.entries[i].ID] = i
	}
	if len(b.entries) > b.capacity {
		evicted := b.entries[len(b.entries)-1]
		b.entries = b.entries[:b.capacity]
		delete(b.seen, evicted.ID)
	}
}

func (b *Buffer) resort() {
	sort.Slice(b.entries, func(i, j int) bool { return b.less(b.entries[i].Distance, b.entries[j].Distance) })
	for i, e := range b.entries {
		b.seen[e.ID] = i
	}
}

// BestUnvisited returns the unvisited neighbor with the best distance within
// the window, marking it visited. ok is false once every entry in the first
// min(len, window) positions is visited.
func (b *Buffer) BestUnvisited() (n Neighbor, ok bool) {
	limit := b.window
	if limit > len(b.entries) {
		limit = len(b.entries)
	}
	for i := 0; i < limit; i++ {
		if !b.entries[i].Visited {
			b.entries[i].Visited = true
			return b.entries[i], true
		}
	}
	return Neighbor{}, false
}

// Done reports whether every entry in the first min(len, window) positions
// has been visited.
func (b *Buffer) Done() bool {
	limit := b.window
	if limit > len(b.entries) {
		limit = len(b.entries)
	}
	for i := 0; i < limit; i++ {
		if !b.entries[i].Visited {
			return false
		}
	}
	return true
}

// Results returns up to k entries in sorted order.
func (b *Buffer) Results(k int) []Neighbor {
	if k > len(b.entries) {
		k = len(b.entries)
	}
	out := make([]Neighbor, k)
	copy(out, b.entries[:k])
	return out
}

// Clear empties the buffer, retaining its allocated capacity.
func (b *Buffer) Clear() {
	b.entries = b.entries[:0]
	for k := range b.seen {
		delete(b.seen, k)
	}
}

// ChangeMaxSize resizes window/capacity. Used by the batch iterator (C10) to
// grow a buffer incrementally between calls rather than discarding progress.
func (b *Buffer) ChangeMaxSize(w, c int) {
	if c < w {
		c = w
	}
	b.window = w
	b.capacity = c
	if len(b.entries) > c {
		for _, e := range b.entries[c:] {
			delete(b.seen, e.ID)
		}
		b.entries = b.entries[:c]
	}
}

// Window and Capacity expose the buffer's current sizing, used by the batch
// iterator to compute incremental growth.
func (b *Buffer) Window() int   { return b.window }
func (b *Buffer) Capacity() int { return b.capacity }
