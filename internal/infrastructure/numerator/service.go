// Package numerator provides the PostgreSQL implementation of per-tenant counters.
// This is the infrastructure layer - it implements core/numerator.Allocator interface.
package numerator

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	corenumerator "customfields/internal/core/numerator"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc picks the querier for a call, usually the active transaction.
type QuerierFunc func(ctx context.Context) Querier

// Service allocates numbers from custom_field_sequences.
// Allocations made through a transaction querier roll back with it.
type Service struct {
	querier QuerierFunc
}

// Ensure compile-time interface compliance.
var _ corenumerator.Allocator = (*Service)(nil)

// New creates a numerator service with static querier.
// Use for tools and testing scenarios.
func New(querier Querier) *Service {
	return &Service{querier: func(context.Context) Querier { return querier }}
}

// NewWithQuerierFunc creates a numerator service that resolves the querier per call.
func NewWithQuerierFunc(fn QuerierFunc) *Service {
	return &Service{querier: fn}
}

// Next returns max(current, floor) + 1 for (tenantID, key) and stores it,
// using UPSERT + RETURNING so concurrent callers never see the same number.
func (s *Service) Next(ctx context.Context, tenantID, key string, floor int64) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("numerator service is not initialized")
	}
	if floor < 0 {
		floor = 0
	}

	var num int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO custom_field_sequences (tenant_id, seq_key, current_val)
		VALUES ($1, $2, $3 + 1)
		ON CONFLICT (tenant_id, seq_key) DO UPDATE
			SET current_val = GREATEST(custom_field_sequences.current_val, $3) + 1
		RETURNING current_val
	`, tenantID, key, floor).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", key, err)
	}
	return num, nil
}

// Reserve raises the counter to floor without allocating.
func (s *Service) Reserve(ctx context.Context, tenantID, key string, floor int64) error {
	if s == nil {
		return fmt.Errorf("numerator service is not initialized")
	}
	if floor <= 0 {
		return nil
	}

	var result int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO custom_field_sequences (tenant_id, seq_key, current_val)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, seq_key) DO UPDATE
			SET current_val = GREATEST(custom_field_sequences.current_val, $3)
		RETURNING current_val
	`, tenantID, key, floor).Scan(&result)
	if err != nil {
		return fmt.Errorf("reserve %s: %w", key, err)
	}
	return nil
}
