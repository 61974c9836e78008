package numerator

import (
	"context"
	"sync"
)

// MockAllocator is a test implementation of Allocator.
// Without NextFunc it behaves like an in-memory counter.
type MockAllocator struct {
	NextFunc func(ctx context.Context, tenantID, key string, floor int64) (int64, error)

	mu       sync.Mutex
	counters map[string]int64
}

// Next implements Allocator.
func (m *MockAllocator) Next(ctx context.Context, tenantID, key string, floor int64) (int64, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, tenantID, key, floor)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	k := tenantID + ":" + key
	cur := m.counters[k]
	if floor > cur {
		cur = floor
	}
	cur++
	m.counters[k] = cur
	return cur, nil
}

// Reserve implements Allocator.
func (m *MockAllocator) Reserve(_ context.Context, tenantID, key string, floor int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	k := tenantID + ":" + key
	if floor > m.counters[k] {
		m.counters[k] = floor
	}
	return nil
}

// Ensure compile-time interface compliance.
var _ Allocator = (*MockAllocator)(nil)
