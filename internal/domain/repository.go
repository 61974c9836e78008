// Package domain provides core business logic interfaces and types.
package domain

import (
	"customfields/internal/domain/filter"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search performs case-insensitive search on name and refId
	Search string

	// EntityType filters definitions attached to one entity type
	EntityType string

	// IDs filters by specific IDs
	IDs []string

	// AdvancedFilters - список произвольных отборов
	AdvancedFilters []filter.Item

	// OrderBy specifies sorting (e.g., "name", "-order").
	// Results are always tie-broken by order and id.
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "order",
	}
}

// Normalize clamps pagination into [0, maxLimit].
func (f ListFilter) Normalize(maxLimit int) ListFilter {
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListFilter().Limit
	}
	if maxLimit > 0 && f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	return f
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
