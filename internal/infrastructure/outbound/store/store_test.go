package store_test

import (
	"testing"

	"github.com/sophialabs/mimicrab/internal/domain/expectation"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/store"
)

func TestStore_AddAssignsID(t *testing.T) {
	s := store.New()

	first := s.Add(expectation.Expectation{})
	if first.ID != 1 {
		t.Errorf("got id %d, want 1", first.ID)
	}

	second := s.Add(expectation.Expectation{})
	if second.ID != 2 {
		t.Errorf("got id %d, want 2", second.ID)
	}

	explicit := s.Add(expectation.Expectation{ID: 99})
	if explicit.ID != 99 {
		t.Errorf("got id %d, want 99", explicit.ID)
	}

	next := s.Add(expectation.Expectation{})
	if next.ID != 100 {
		t.Errorf("got id %d, want 100 (max+1)", next.ID)
	}
}

func TestStore_UpdateAndDelete(t *testing.T) {
	s := store.New()
	e := s.Add(expectation.Expectation{Condition: expectation.RequestCondition{Path: "/a"}})

	ok := s.Update(e.ID, expectation.Expectation{Condition: expectation.RequestCondition{Path: "/b"}})
	if !ok {
		t.Fatal("expected update to succeed")
	}
	if s.Snapshot()[0].Condition.Path != "/b" {
		t.Errorf("update did not apply")
	}

	if s.Update(12345, expectation.Expectation{}) {
		t.Error("expected update of unknown id to fail")
	}

	if !s.Delete(e.ID) {
		t.Fatal("expected delete to succeed")
	}
	if len(s.Snapshot()) != 0 {
		t.Errorf("expected empty store after delete, got %d", len(s.Snapshot()))
	}
	if s.Delete(e.ID) {
		t.Error("expected second delete to fail")
	}
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := store.New()
	s.Add(expectation.Expectation{})

	snap := s.Snapshot()
	s.Add(expectation.Expectation{})

	if len(snap) != 1 {
		t.Errorf("expected previously captured snapshot to stay at len 1, got %d", len(snap))
	}
	if len(s.Snapshot()) != 2 {
		t.Errorf("expected current snapshot to reflect the new add, got %d", len(s.Snapshot()))
	}
}

func TestStore_Replace(t *testing.T) {
	s := store.New()
	s.Add(expectation.Expectation{})

	s.Replace([]expectation.Expectation{{ID: 5}, {ID: 6}})
	if len(s.Snapshot()) != 2 {
		t.Fatalf("expected 2 expectations after replace, got %d", len(s.Snapshot()))
	}
}
