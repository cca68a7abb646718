package store

import (
	"context"

	"github.com/sophialabs/mimicrab/internal/domain/expectation"
)

// Persister durably stores the expectation list. Mutations publish to it
// best-effort: a persistence failure is logged by the caller but never
// rolls back the in-memory change.
type Persister interface {
	Save(ctx context.Context, list []expectation.Expectation) error
	// Load returns the persisted expectation list. It returns an empty
	// list, not an error, when nothing has ever been persisted.
	Load(ctx context.Context) ([]expectation.Expectation, error)
}
