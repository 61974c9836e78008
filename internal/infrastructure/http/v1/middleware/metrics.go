package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"customfields/internal/infrastructure/metrics"
)

// Metrics records request counts, latency and error codes.
// Routes are labelled by their pattern to keep cardinality bounded.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics.ShouldSkipEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start))
		if code := ErrorCode(c); code != "" {
			m.RecordError(code)
		}
	}
}
