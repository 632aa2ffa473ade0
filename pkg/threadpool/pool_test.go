package threadpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/go-svs/svs/pkg/svserr"
)

func TestStaticPartitionCoversRange(t *testing.T) {
	pool := New(4)
	var touched [100]int32

	err := pool.StaticPartition(context.Background(), len(touched), func(lo, hi, workerID int) error {
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&touched[i], 1)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range touched {
		if v != 1 {
			t.Fatalf("index %d touched %d times, want 1", i, v)
		}
	}
}

func TestStaticPartitionPropagatesWorkerError(t *testing.T) {
	pool := New(2)
	boom := errors.New("boom")

	err := pool.StaticPartition(context.Background(), 10, func(lo, hi, workerID int) error {
		if workerID == 1 {
			return boom
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, svserr.ErrThreadCrashed) {
		t.Fatalf("expected ErrThreadCrashed, got %v", err)
	}
}

func TestSequentialPoolIsSingleWorker(t *testing.T) {
	pool := Sequential()
	if pool.Size() != 1 {
		t.Fatalf("expected size 1, got %d", pool.Size())
	}
}
