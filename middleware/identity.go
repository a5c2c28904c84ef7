package middleware

import (
	"github.com/gin-gonic/gin"
)

// Identity resolves the caller from the X-User-ID header set by the external
// identity provider's proxy. Services still verify org membership and role;
// this only makes the identity available to handlers.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set("userID", userID)
		}
		c.Next()
	}
}
