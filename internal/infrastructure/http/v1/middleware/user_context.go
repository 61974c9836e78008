// Package middleware provides HTTP middleware for the custom fields API.
package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "customfields/internal/core/context"
	"customfields/internal/core/tenant"
)

// Headers set by a trusted gateway when token validation is disabled.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
)

// UserContext makes sure the domain layer can resolve the acting user.
//
// It must run AFTER Auth. A user put in context by Auth wins; otherwise,
// with auth disabled, the gateway headers are used. Requests without either
// stay anonymous and get no metadata actor.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if appctx.GetUser(ctx) == nil {
			if uid := c.GetHeader(HeaderUserID); uid != "" {
				user := &appctx.UserContext{
					UserID:   uid,
					TenantID: tenant.GetTenantID(ctx),
					Username: c.GetHeader(HeaderUserName),
				}
				c.Request = c.Request.WithContext(appctx.WithUser(ctx, user))
				c.Set("user_id", uid)
			}
		}
		c.Next()
	}
}
