package numerator

import (
	"context"
	"sync"

	"garageflow/internal/core/id"
	corenumerator "garageflow/internal/core/numerator"
)

type memoryKey struct {
	garage id.ID
	cat    corenumerator.Category
}

// Memory is an in-process Counter for tests and the CLI's dry runs.
// Lock does not hold anything past the call.
type Memory struct {
	mu   sync.Mutex
	next map[memoryKey]int64
}

var _ corenumerator.Counter = (*Memory)(nil)

// NewMemory creates an empty in-memory counter.
func NewMemory() *Memory {
	return &Memory{next: make(map[memoryKey]int64)}
}

func (m *Memory) value(k memoryKey) int64 {
	if v, ok := m.next[k]; ok {
		return v
	}
	return corenumerator.FirstSequence
}

func (m *Memory) Peek(_ context.Context, garageID id.ID, cat corenumerator.Category) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value(memoryKey{garageID, cat}), nil
}

func (m *Memory) Lock(ctx context.Context, garageID id.ID, cat corenumerator.Category) (int64, error) {
	return m.Peek(ctx, garageID, cat)
}

func (m *Memory) Commit(_ context.Context, garageID id.ID, cat corenumerator.Category, used int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memoryKey{garageID, cat}
	next := max(m.value(k), used+1)
	m.next[k] = next
	return next, nil
}

func (m *Memory) Set(_ context.Context, garageID id.ID, cat corenumerator.Category, next int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next[memoryKey{garageID, cat}] = next
	return nil
}
