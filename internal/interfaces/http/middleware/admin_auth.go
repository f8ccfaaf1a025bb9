package middleware

import (
	"net/http"

	"eqic-a2a.backend/pkg/crypto"
	"github.com/gin-gonic/gin"
)

// AdminKeyHeader carries the administrative API key for registry mutations.
const AdminKeyHeader = "X-Admin-Key"

// AdminAuthMiddleware guards administrative endpoints with a pre-shared key.
// The configured value is a bcrypt hash so the plaintext key never lives in
// the environment.
func AdminAuthMiddleware(adminKeyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKeyHash == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Administrative access is not configured",
			})
			return
		}

		key := c.GetHeader(AdminKeyHeader)
		if key == "" || !crypto.CheckKey(key, adminKeyHash) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Invalid admin key",
			})
			return
		}

		c.Next()
	}
}
