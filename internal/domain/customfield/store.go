package customfield

import (
	"context"

	"customfields/internal/domain"
)

// Store persists definitions per tenant.
//
// Implementations must make RunAtomic serializable with respect to other
// writers of the same tenant, or back refId and order with unique
// constraints and surface violations as CONFLICT errors.
type Store interface {
	// Save inserts d and returns the stored copy.
	Save(ctx context.Context, tenantID string, d *Definition) (*Definition, error)

	// FindByID returns a NOT_FOUND AppError when no definition has id.
	FindByID(ctx context.Context, tenantID, id string) (*Definition, error)

	// FindByFilter returns one page plus the total number of matches.
	FindByFilter(ctx context.Context, tenantID string, filter domain.ListFilter) ([]*Definition, int64, error)

	// FindAll returns every definition of the tenant ordered by order.
	FindAll(ctx context.Context, tenantID string) ([]*Definition, error)

	// MaxOrder returns the largest order, 0 for an empty tenant.
	MaxOrder(ctx context.Context, tenantID string) (int, error)

	// MaxRefIDSuffix returns the largest n among refIds "<slug>_<n>", 0 if none.
	MaxRefIDSuffix(ctx context.Context, tenantID, slug string) (int64, error)

	// Update replaces the stored definition with the same id.
	// applied is false when there is no such definition.
	Update(ctx context.Context, tenantID string, d *Definition) (applied bool, err error)

	// Delete removes a definition. applied is false when there is no such definition.
	Delete(ctx context.Context, tenantID, id string) (applied bool, err error)

	// RunAtomic runs fn so that all store calls made with the ctx it receives
	// apply together or not at all.
	RunAtomic(ctx context.Context, tenantID string, fn func(ctx context.Context) error) error
}
