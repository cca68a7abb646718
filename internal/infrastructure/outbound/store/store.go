// Package store holds the process-wide expectation sequence behind an
// atomic, lock-free-to-read snapshot, and defines the Persister interface
// through which callers save the mutated sequence. Store itself does not
// persist anything.
package store

import (
	"sync"
	"sync/atomic"

	"github.com/sophialabs/mimicrab/internal/domain/expectation"
)

// Store is the process-wide ExpectationStore: a pointer-swappable snapshot
// of the expectation sequence. Reads never block a concurrent write and
// always observe a complete, internally consistent sequence.
type Store struct {
	snapshot atomic.Pointer[[]expectation.Expectation]
	mu       sync.Mutex // serializes mutations; reads never take it
}

// New returns an empty Store.
func New() *Store {
	s := &Store{}
	empty := []expectation.Expectation{}
	s.snapshot.Store(&empty)
	return s
}

// Snapshot returns the current expectation sequence. The returned slice
// must not be mutated by the caller.
func (s *Store) Snapshot() []expectation.Expectation {
	return *s.snapshot.Load()
}

// Replace atomically publishes a new sequence as-is (used for import and
// for external reloads from file or cluster watch).
func (s *Store) Replace(list []expectation.Expectation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]expectation.Expectation(nil), list...)
	s.snapshot.Store(&cp)
}

// Add assigns exp an id (max existing id + 1) if it has none, appends it,
// and publishes the new snapshot. It returns the stored expectation.
func (s *Store) Add(exp expectation.Expectation) expectation.Expectation {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := *s.snapshot.Load()
	if exp.ID == 0 {
		exp.ID = nextID(cur)
	}
	next := append(append([]expectation.Expectation(nil), cur...), exp)
	s.snapshot.Store(&next)
	return exp
}

// Update locates the expectation by id and replaces it in place. It
// reports whether an expectation with that id existed.
func (s *Store) Update(id uint64, exp expectation.Expectation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := *s.snapshot.Load()
	idx := indexOf(cur, id)
	if idx < 0 {
		return false
	}

	next := append([]expectation.Expectation(nil), cur...)
	exp.ID = id
	next[idx] = exp
	s.snapshot.Store(&next)
	return true
}

// Delete removes the expectation with the given id. It reports whether an
// expectation with that id existed.
func (s *Store) Delete(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := *s.snapshot.Load()
	idx := indexOf(cur, id)
	if idx < 0 {
		return false
	}

	next := make([]expectation.Expectation, 0, len(cur)-1)
	next = append(next, cur[:idx]...)
	next = append(next, cur[idx+1:]...)
	s.snapshot.Store(&next)
	return true
}

func indexOf(list []expectation.Expectation, id uint64) int {
	for i, e := range list {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func nextID(list []expectation.Expectation) uint64 {
	var max uint64
	for _, e := range list {
		if e.ID > max {
			max = e.ID
		}
	}
	return max + 1
}
