package translate

import (
	"errors"
	"testing"

	"github.com/go-svs/svs/pkg/svserr"
)

func TestIdentityBijection(t *testing.T) {
	tr := Identity(5)
	for i := 0; i < 5; i++ {
		got, err := tr.GetInternal(uint64(i))
		if err != nil || got != uint32(i) {
			t.Fatalf("external %d: got internal %d err %v", i, got, err)
		}
	}
}

func TestInsertAtomicOnFailure(t *testing.T) {
	tr := New()
	if err := tr.InsertPair(1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := tr.Insert([]uint64{2, 1}, []uint32{2, 3}, true)
	if err == nil {
		t.Fatal("expected duplicate external id to fail the whole batch")
	}
	if tr.HasExternal(2) {
		t.Fatal("partial mutation leaked: external id 2 should not be registered after a failed bulk insert")
	}
	if tr.Size() != 1 {
		t.Fatalf("expected size 1 after failed insert, got %d", tr.Size())
	}
}

func TestBijectionAfterMutations(t *testing.T) {
	tr := New()
	for i := 0; i < 10; i++ {
		if err := tr.InsertPair(uint64(i*2), uint32(i)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if err := tr.DeleteInternal([]uint32{3}, true); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := tr.RemapInternal(5, 50); err != nil {
		t.Fatalf("remap: %v", err)
	}

	pairs := tr.All()
	if len(pairs) != tr.Size() {
		t.Fatalf("All() length %d != Size() %d", len(pairs), tr.Size())
	}
	for _, p := range pairs {
		got, err := tr.GetExternal(p.Internal)
		if err != nil || got != p.External {
			t.Fatalf("bijection broken for internal %d", p.Internal)
		}
	}
}

func TestRemapRejectsExistingTarget(t *testing.T) {
	tr := New()
	tr.InsertPair(1, 1)
	tr.InsertPair(2, 2)
	if err := tr.RemapInternal(1, 2); !errors.Is(err, svserr.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}
