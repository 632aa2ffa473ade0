package graph

import "sync/atomic"

// SpinLock is the per-row lock protecting concurrent graph edits (C4),
// grounded directly on the source's SpinLock: a single atomic bool, CAS to
// acquire, store-release to release. Used instead of sync.Mutex because
// graph-row critical sections during build are a handful of slice writes —
// short enough that spinning beats parking a goroutine.
type SpinLock struct {
	held int32
}

// TryLock attempts to acquire the lock without blocking.
func (s *SpinLock) TryLock() bool {
	return atomic.CompareAndSwapInt32(&s.held, 0, 1)
}

// Lock spins until the lock is acquired.
func (s *SpinLock) Lock() {
	for !s.TryLock() {
	}
}

// Unlock releases the lock.
func (s *SpinLock) Unlock() {
	atomic.StoreInt32(&s.held, 0)
}

// IsLocked reports whether the lock is currently held, for diagnostics only.
func (s *SpinLock) IsLocked() bool {
	return atomic.LoadInt32(&s.held) != 0
}
