package engine

import (
	"context"

	"github.com/mesh-intelligence/larder/pkg/query"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// Backend is the storage capability contract the engine requires.
// Implementations resolve plan fields against the model descriptor and
// ignore names they cannot resolve rather than failing.
type Backend interface {
	// Attach connects the backend using the given configuration.
	// Returns types.ErrAlreadyAttached on a second call.
	Attach(config types.Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error

	// EnsureTable prepares storage for a registered model.
	EnsureTable(model types.Model) error

	// Select starts a read query against the model's table.
	Select(model types.Model) Selection

	// Insert writes the given records in one transaction and returns
	// the stored rows. The batch fails or succeeds as a whole.
	Insert(ctx context.Context, model types.Model, records []*types.Record) ([]*types.Record, error)

	// Update applies the set document to every row matching the
	// predicates and returns the updated rows.
	Update(ctx context.Context, model types.Model, set map[string]any, preds []query.Predicate) ([]*types.Record, error)

	// Count returns the number of rows matching the predicates.
	Count(ctx context.Context, model types.Model, preds []query.Predicate) (int, error)
}

// Selection is a fluent read query. Each method returns the selection
// for chaining; Rows executes it.
type Selection interface {
	Where(preds []query.Predicate) Selection
	OrderBy(orders []query.Order) Selection
	Limit(n int) Selection
	Offset(n int) Selection
	Rows(ctx context.Context) ([]*types.Record, error)
}
