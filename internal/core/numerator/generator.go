// Package numerator provides domain contracts for per-tenant counters.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
)

// Allocator hands out monotonically increasing numbers per (tenant, key).
//
// Next returns max(current, floor) + 1 and stores it as the new current value
// in one atomic step. The floor lets callers respect numbers that already
// exist in data written before the counter did.
type Allocator interface {
	Next(ctx context.Context, tenantID, key string, floor int64) (int64, error)

	// Reserve raises the current value to floor if it is lower, so numbers
	// up to floor taken from elsewhere are never returned by Next.
	Reserve(ctx context.Context, tenantID, key string, floor int64) error
}
