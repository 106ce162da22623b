package numerator

import (
	"context"
	"errors"

	"garageflow/internal/core/id"
)

// ErrNotInTransaction is returned by Lock when no transaction is bound to ctx.
var ErrNotInTransaction = errors.New("numerator: lock requires a transaction")

// Counter stores the next sequence value per (garage, category).
// Implementations must advance atomically on the storage side.
type Counter interface {
	// Peek returns the next sequence value without side effects.
	Peek(ctx context.Context, garageID id.ID, cat Category) (int64, error)

	// Lock returns the next sequence value and holds a row lock until the
	// surrounding transaction ends.
	Lock(ctx context.Context, garageID id.ID, cat Category) (int64, error)

	// Commit marks used as consumed: the stored value becomes at least used+1.
	// Repeating a Commit for the same value is a no-op. Returns the new next value.
	Commit(ctx context.Context, garageID id.ID, cat Category, used int64) (int64, error)

	// Set overwrites the next value. Administrative use only.
	Set(ctx context.Context, garageID id.ID, cat Category, next int64) error
}
