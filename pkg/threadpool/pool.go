// Package threadpool implements the static-partition worker pool that backs
// graph build and search throughout the module: split a range into
// contiguous per-worker chunks, run them concurrently, join before the
// caller observes the result. There is no work stealing and no per-operation
// timeout; cancellation is cooperative via a predicate polled by the caller's
// own work function.
package threadpool

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/go-svs/svs/pkg/svserr"
)

// WorkerState mirrors the per-worker control-block states described in the
// concurrency model: a worker only ever leaves Working on its own, and only
// the controller drives it back into Working or into RequestShutdown.
type WorkerState int32

const (
	Working WorkerState = iota
	Spinning
	Sleeping
	Exception
	RequestShutdown
	Shutdown
)

// Pool runs StaticPartition invocations across a fixed number of workers.
// Crashed workers are not torn down explicitly; their failure is captured
// and surfaced to the next caller, then the pool proceeds with a fresh
// errgroup on the following invocation (transparent restart).
type Pool struct {
	size    int
	mu      sync.Mutex
	states  []int32 // atomic WorkerState per worker, index-addressed
	lastErr error   // sticky until observed once via LastError
}

// New creates a pool with n workers. n <= 1 yields a pool that still
// satisfies the Partitioner interface but runs everything on the caller's
// goroutine — the Go analog of the source's single-threaded pool used for
// deterministic tests.
func New(n int) *Pool {
	if n < 1 {
		n = 1
	}
	return &Pool{size: n, states: make([]int32, n)}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// State returns the observed state of worker i.
func (p *Pool) State(i int) WorkerState {
	return WorkerState(atomic.LoadInt32(&p.states[i]))
}

// StaticPartition splits [0, n) into p.Size() contiguous ranges and invokes
// f(lo, hi, workerID) once per range concurrently, joining before returning.
// Writes performed inside f happen-before StaticPartition returns: callers
// may safely read shared state immediately afterward without extra
// synchronization, as long as distinct workers touched disjoint memory.
func (p *Pool) StaticPartition(ctx context.Context, n int, f func(lo, hi, workerID int) error) error {
	if n <= 0 {
		return nil
	}
	if p.size == 1 {
		atomic.StoreInt32(&p.states[0], int32(Working))
		err := ctx.Err()
		if err == nil {
			if ferr := f(0, n, 0); ferr != nil {
				err = svserr.ThreadCrashed(0, ferr)
			}
		}
		atomic.StoreInt32(&p.states[0], int32(Sleeping))
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		return err
	}
	workers := p.size
	if workers > n {
		workers = n
	}

	chunk := (n + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		workerID := w
		atomic.StoreInt32(&p.states[workerID], int32(Working))
		g.Go(func() error {
			defer atomic.StoreInt32(&p.states[workerID], int32(Sleeping))
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			if err := f(lo, hi, workerID); err != nil {
				atomic.StoreInt32(&p.states[workerID], int32(Exception))
				return svserr.ThreadCrashed(workerID, err)
			}
			return nil
		})
	}

	err := g.Wait()
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
	return err
}

// LastError returns and clears the error (if any) from the most recent
// StaticPartition call, mirroring the controller observing a crashed
// worker's stored exception on the next assign.
func (p *Pool) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.lastErr
	p.lastErr = nil
	return err
}

// Sequential is a capacity-1 pool that runs every partition inline on the
// caller's goroutine, for deterministic tests that need reproducible
// interleaving.
func Sequential() *Pool { return New(1) }
