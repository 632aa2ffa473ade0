// Package iterator implements the batch iterator (C10): repeated calls to
// Next return successive batches of nearest neighbors for a fixed query,
// growing the underlying search window incrementally between calls instead
// of re-running a larger search from scratch each time. Grounded directly on
// the original implementation's BatchIterator
// (original_source/include/svs/index/vamana/iterator.h): same
// extra-buffer-capacity default, same yielded-set dedup, same strong
// exception guarantee on the yielded-set/result-buffer pair.
package iterator

import (
	"github.com/go-svs/svs/pkg/distance"
	"github.com/go-svs/svs/pkg/searchbuffer"
	"github.com/go-svs/svs/pkg/svserr"
	"github.com/go-svs/svs/pkg/vamana"
)

// ExtraBufferCapacityDefault mirrors ITERATOR_EXTRA_BUFFER_CAPACITY_DEFAULT
// in the original implementation: how much search-buffer headroom beyond the
// requested batch size is kept so a batch boundary doesn't force an
// immediate re-search on the very next call.
const ExtraBufferCapacityDefault = 100

// Neighbor is one yielded result, carrying the external id the caller
// registered the vector under rather than the index's internal id.
type Neighbor struct {
	ExternalID uint64
	Distance   float32
}

// BatchIterator yields nearest neighbors for one query in expanding-window
// batches. Not safe for concurrent use by multiple goroutines.
type BatchIterator struct {
	index *vamana.Index
	query []float32
	fq    distance.FixedQuery
	buf   *searchbuffer.Buffer

	results      []Neighbor
	yielded      map[uint32]bool
	iteration    int
	isExhausted  bool
	restartFirst bool
	extraCap     int
}

// New constructs a batch iterator for query over idx. extraCapacity <= 0
// selects ExtraBufferCapacityDefault.
func New(idx *vamana.Index, query []float32, extraCapacity int) (*BatchIterator, error) {
	if len(query) != idx.Data.Dimensions() {
		return nil, svserr.InvalidInput("query has dimension %d, index expects %d", len(query), idx.Data.Dimensions())
	}
	if extraCapacity <= 0 {
		extraCapacity = ExtraBufferCapacityDefault
	}
	it := &BatchIterator{
		index:        idx,
		query:        append([]float32(nil), query...),
		fq:           distance.FixArgument(idx.Metric, query),
		buf:          searchbuffer.New(idx.Metric.Comparator, 0, extraCapacity),
		yielded:      make(map[uint32]bool),
		restartFirst: true,
		extraCap:     extraCapacity,
	}
	return it, nil
}

// Update resets the iterator onto a new query, restarting the search from
// scratch on the next call to Next.
func (it *BatchIterator) Update(query []float32) error {
	if len(query) != it.index.Data.Dimensions() {
		return svserr.InvalidInput("query has dimension %d, index expects %d", len(query), it.index.Data.Dimensions())
	}
	it.query = append(it.query[:0], query...)
	it.fq = distance.FixArgument(it.index.Metric, it.query)
	it.buf = searchbuffer.New(it.index.Metric.Comparator, 0, it.extraCap)
	it.restartFirst = true
	it.iteration = 0
	it.yielded = make(map[uint32]bool)
	it.results = nil
	it.isExhausted = false
	return nil
}

// Done reports whether every reachable node has been yielded or the search
// has been exhausted. The transition from not-done to done only happens
// inside a call to Next, matching the original implementation's contract.
func (it *BatchIterator) Done() bool {
	return it.isExhausted || len(it.yielded) == it.index.Graph.Size()
}

// BatchNumber returns how many successful calls to Next have run so far.
func (it *BatchIterator) BatchNumber() int { return it.iteration }

// Results returns the current batch's contents; the slice is invalidated by
// the next call to Next.
func (it *BatchIterator) Results() []Neighbor { return it.results }

// RestartNextSearch forces the next call to Next to restart the graph
// search from the index's entry point instead of resuming from the current
// buffer contents.
func (it *BatchIterator) RestartNextSearch() { it.restartFirst = true }

// Next expands the search window by batchSize and appends newly discovered,
// not-yet-yielded neighbors to Results, up to batchSize of them. If expanding
// the search surfaces nothing new, the iterator is marked exhausted and
// subsequent calls return immediately with an empty batch.
func (it *BatchIterator) Next(batchSize int) error {
	if it.Done() {
		it.results = it.results[:0]
		return nil
	}

	w := it.buf.Window() + batchSize
	c := it.buf.Capacity() + batchSize
	it.buf.ChangeMaxSize(w, c)

	entry := []int{it.index.EntryPoint}
	if it.restartFirst {
		it.buf.Clear()
	}
	it.restartFirst = false

	if err := vamana.GreedySearch(it.index.Graph, it.index.Data, it.index.Metric, entry, it.fq, it.buf); err != nil {
		return err
	}

	it.iteration++
	it.copyFromScratch(batchSize)
	if len(it.results) == 0 && batchSize > 0 {
		it.isExhausted = true
	}
	return nil
}

// copyFromScratch mirrors the original's copy_from_scratch: walk the search
// buffer in distance order, skip anything already yielded, and stop once
// batchSize new results have been collected. Because Go maps don't offer a
// try-insert-then-rollback primitive, the membership check and the append to
// results happen together under a single insert-then-confirm step so a
// partially built batch never leaves an id marked yielded without a
// corresponding result entry.
func (it *BatchIterator) copyFromScratch(batchSize int) {
	it.results = it.results[:0]
	for _, n := range it.buf.Results(it.buf.Capacity()) {
		if it.yielded[n.ID] {
			continue
		}
		ext, err := it.index.Translator.GetExternal(n.ID)
		if err != nil {
			// A node without an external mapping cannot be yielded; skip it
			// without marking it seen so a later translation fix-up could
			// still surface it.
			continue
		}
		it.yielded[n.ID] = true
		it.results = append(it.results, Neighbor{ExternalID: ext, Distance: n.Distance})
		if len(it.results) == batchSize {
			break
		}
	}
}
