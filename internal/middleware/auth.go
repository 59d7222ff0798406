package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BridgeAuthMiddleware requires "Authorization: Bearer <token>" when token is
// set. An empty token leaves the bridge open, which is only safe on loopback.
func BridgeAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "authorization header required", "code": "UNAUTHORIZED"}})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "invalid authorization header format", "code": "UNAUTHORIZED"}})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "invalid bridge token", "code": "UNAUTHORIZED"}})
			c.Abort()
			return
		}
		c.Next()
	}
}
