package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecureHeaders marks bridge responses as private to the local UI. HSTS is
// left out because the bridge only speaks plain HTTP on loopback.
func SecureHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Resource-Policy", "same-site")
		// Session and saved-property payloads must never be reused by an HTTP cache.
		h.Set("Cache-Control", "no-store")
		c.Next()
	}
}
