package middleware

import (
	"github.com/gin-gonic/gin"

	"customfields/internal/core/apperror"
	"customfields/internal/core/tenant"
)

const (
	// TenantHeader is the HTTP header for tenant identification.
	TenantHeader = "X-Tenant-ID"
)

// Tenant middleware resolves the tenant from the header and stores it in the
// request context. Every custom field operation is scoped by it.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(TenantHeader)
		if tenantID == "" {
			_ = c.Error(
				apperror.NewValidation("Tenant is required").
					WithDetail("header", TenantHeader),
			)
			c.Abort()
			return
		}

		if err := tenant.ValidateID(tenantID); err != nil {
			_ = c.Error(
				apperror.NewValidation("Invalid tenant id").
					WithDetail("header", TenantHeader).
					WithDetail("value", tenantID),
			)
			c.Abort()
			return
		}

		ctx := tenant.WithTenantID(c.Request.Context(), tenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("tenant_id", tenantID)

		c.Next()
	}
}
