package middleware

import (
	"time"

	"houseofstone-client/pkg/logger"

	"github.com/gin-gonic/gin"
)

// LoggingMiddleware writes one line per bridge request. Server errors log at
// ERROR and client errors at WARN. The cache field echoes the X-Cache header
// set by proxied property reads, "-" when absent.
func LoggingMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log := l
		if log == nil {
			log = logger.Default()
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		cacheState := c.Writer.Header().Get("X-Cache")
		if cacheState == "" {
			cacheState = "-"
		}
		status := c.Writer.Status()
		format := "Bridge request: method=%s, path=%s, route=%s, status=%d, latency=%v, cache=%s"
		args := []interface{}{method, path, route, status, time.Since(start), cacheState}

		switch {
		case status >= 500:
			log.Errorf(format+", errors=%s", append(args, c.Errors.String())...)
		case status >= 400:
			log.Warnf(format, args...)
		default:
			log.Printf(format, args...)
		}
	}
}
