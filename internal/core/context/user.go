// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext contains authenticated user information.
type UserContext struct {
	UserID    string
	TenantID  string
	Username  string
	Email     string
	Roles     []string
	SessionID string
}

// Actor identifies who performed a change. Used for metadata stamping only.
type Actor struct {
	ID          string
	DisplayName string
}

// IsZero reports whether no actor is known.
func (a Actor) IsZero() bool {
	return a.ID == "" && a.DisplayName == ""
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetTenantID returns tenant ID from context or empty string.
func GetTenantID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.TenantID
	}
	return ""
}

// HasRole checks if user has specific role.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ResolveActor returns the acting user. Username wins over email for the display name.
func ResolveActor(ctx context.Context) Actor {
	u := GetUser(ctx)
	if u == nil {
		return Actor{}
	}
	name := u.Username
	if name == "" {
		name = u.Email
	}
	return Actor{ID: u.UserID, DisplayName: name}
}
