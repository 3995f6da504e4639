package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"basecode-go/internal/metrics"
)

const unmatchedRoute = "unmatched"

// Metrics records request counts and latencies per route pattern
func Metrics(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Route patterns keep ids out of the label set.
		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		m.Observe(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
