package middleware

import (
	"log"
	"net/http"
	"strings"

	"eqic-a2a.backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// WalletAddressKey is the context key for the principal's wallet address
	WalletAddressKey = "walletAddress"
	// PrincipalRoleKey is the context key for the principal's role
	PrincipalRoleKey = "principalRole"
)

// AuthMiddleware validates the bearer token issued by the external identity
// service and exposes the wallet-owning principal to handlers. No wallet
// signature is verified here; the token is the trust boundary.
func AuthMiddleware(jwtService *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			log.Printf("[AuthMiddleware] Request to %s failed: Authorization header is missing", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header is required",
			})
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			log.Printf("[AuthMiddleware] Request to %s failed: Invalid authorization format", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization format. Use: Bearer <token>",
			})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			log.Printf("[AuthMiddleware] Request to %s failed: %v", c.Request.URL.Path, err)
			if err == jwt.ErrExpiredToken {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Token has expired",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			return
		}

		if claims.WalletAddress == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Token carries no wallet principal",
			})
			return
		}

		c.Set(WalletAddressKey, claims.WalletAddress)
		c.Set(PrincipalRoleKey, claims.Role)

		c.Next()
	}
}

// GetWalletAddress gets the principal's wallet address from context
func GetWalletAddress(c *gin.Context) (string, bool) {
	address, exists := c.Get(WalletAddressKey)
	if !exists {
		return "", false
	}
	return address.(string), true
}

// GetPrincipalRole gets the principal's role from context
func GetPrincipalRole(c *gin.Context) (string, bool) {
	role, exists := c.Get(PrincipalRoleKey)
	if !exists {
		return "", false
	}
	return role.(string), true
}
