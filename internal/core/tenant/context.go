// Package tenant carries the tenant identity of a request.
// All tenants share one database; every definition row is keyed by tenant id.
package tenant

import (
	"context"
	"errors"
	"regexp"
)

type ctxKey int

const (
	tenantKey ctxKey = iota
)

// Errors for context operations.
var (
	ErrNoTenantInContext = errors.New("tenant not found in context")
	ErrInvalidTenantID   = errors.New("invalid tenant id")
)

var tenantIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,62}$`)

// ValidateID checks that id is usable as a tenant key.
func ValidateID(id string) error {
	if !tenantIDPattern.MatchString(id) {
		return ErrInvalidTenantID
	}
	return nil
}

// WithTenantID stores tenant id in context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// GetTenantID returns tenant ID or empty string.
func GetTenantID(ctx context.Context) string {
	id, _ := ctx.Value(tenantKey).(string)
	return id
}

// RequireTenantID returns tenant ID or ErrNoTenantInContext.
func RequireTenantID(ctx context.Context) (string, error) {
	id := GetTenantID(ctx)
	if id == "" {
		return "", ErrNoTenantInContext
	}
	return id, nil
}
