package numerator

import (
	"context"

	"garageflow/internal/core/id"
)

// MockCounter is a function-field Counter for unit tests.
// Unset functions fall back to a counter that always reports FirstSequence.
type MockCounter struct {
	PeekFunc   func(ctx context.Context, garageID id.ID, cat Category) (int64, error)
	LockFunc   func(ctx context.Context, garageID id.ID, cat Category) (int64, error)
	CommitFunc func(ctx context.Context, garageID id.ID, cat Category, used int64) (int64, error)
	SetFunc    func(ctx context.Context, garageID id.ID, cat Category, next int64) error

	CommitCalls int
}

func (m *MockCounter) Peek(ctx context.Context, garageID id.ID, cat Category) (int64, error) {
	if m.PeekFunc != nil {
		return m.PeekFunc(ctx, garageID, cat)
	}
	return FirstSequence, nil
}

func (m *MockCounter) Lock(ctx context.Context, garageID id.ID, cat Category) (int64, error) {
	if m.LockFunc != nil {
		return m.LockFunc(ctx, garageID, cat)
	}
	return m.Peek(ctx, garageID, cat)
}

func (m *MockCounter) Commit(ctx context.Context, garageID id.ID, cat Category, used int64) (int64, error) {
	m.CommitCalls++
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx, garageID, cat, used)
	}
	return used + 1, nil
}

func (m *MockCounter) Set(ctx context.Context, garageID id.ID, cat Category, next int64) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, garageID, cat, next)
	}
	return nil
}

var _ Counter = (*MockCounter)(nil)
