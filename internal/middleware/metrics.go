package middleware

import (
	"strconv"
	"time"

	"houseofstone-client/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware labels requests by route template so path parameters do
// not create new series.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, endpoint, status).Observe(duration)
	}
}
