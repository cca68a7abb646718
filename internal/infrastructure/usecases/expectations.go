package usecases

import (
	"context"

	"github.com/sophialabs/mimicrab/internal/domain/expectation"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/store"
	"github.com/sophialabs/mimicrab/internal/infrastructure/ports"
)

// ExpectationsUseCase is the admin-plane mutation surface (spec §4.5, §4.7):
// every successful store mutation is followed by a best-effort persist to
// whichever Persister the process was wired with (file or cluster). A
// persistence failure is logged and swallowed; the in-memory mutation is
// never rolled back (spec §4.5, §7).
type ExpectationsUseCase struct {
	store     *store.Store
	persister store.Persister
	logger    ports.Logger
}

// NewExpectationsUseCase wires an ExpectationsUseCase.
func NewExpectationsUseCase(s *store.Store, p store.Persister, logger ports.Logger) *ExpectationsUseCase {
	return &ExpectationsUseCase{store: s, persister: p, logger: logger}
}

// LoadInitial loads the persisted expectation list (at startup) and
// publishes it to the store.
func (u *ExpectationsUseCase) LoadInitial(ctx context.Context) error {
	list, err := u.persister.Load(ctx)
	if err != nil {
		return err
	}
	u.store.Replace(list)
	return nil
}

// ReplaceFromExternal publishes list into the store without persisting it
// back out: it is used by the control-plane watcher and the file watcher
// to apply an out-of-band edit that is already durable at its source.
func (u *ExpectationsUseCase) ReplaceFromExternal(list []expectation.Expectation) {
	u.store.Replace(list)
}

// List returns the current expectation sequence.
func (u *ExpectationsUseCase) List() []expectation.Expectation {
	return u.store.Snapshot()
}

// Export is an alias of List: GET /_admin/export returns the same content
// as GET /_admin/mocks (spec §4.7).
func (u *ExpectationsUseCase) Export() []expectation.Expectation {
	return u.store.Snapshot()
}

// Add appends exp (assigning an id if absent) and persists the result.
func (u *ExpectationsUseCase) Add(ctx context.Context, exp expectation.Expectation) expectation.Expectation {
	created := u.store.Add(exp)
	u.persist(ctx)
	return created
}

// Update replaces the expectation identified by id and persists the
// result. It reports whether id existed.
func (u *ExpectationsUseCase) Update(ctx context.Context, id uint64, exp expectation.Expectation) bool {
	ok := u.store.Update(id, exp)
	if ok {
		u.persist(ctx)
	}
	return ok
}

// Delete removes the expectation identified by id and persists the
// result. It reports whether id existed.
func (u *ExpectationsUseCase) Delete(ctx context.Context, id uint64) bool {
	ok := u.store.Delete(id)
	if ok {
		u.persist(ctx)
	}
	return ok
}

// Import replaces the entire expectation list and persists the result.
func (u *ExpectationsUseCase) Import(ctx context.Context, list []expectation.Expectation) {
	u.store.Replace(list)
	u.persist(ctx)
}

func (u *ExpectationsUseCase) persist(ctx context.Context) {
	if err := u.persister.Save(ctx, u.store.Snapshot()); err != nil {
		u.logger.Error("persist expectations failed", "error", err)
	}
}
