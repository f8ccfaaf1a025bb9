package middleware

import (
	"time"

	"eqic-a2a.backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// LoggerMiddleware logs each request through the structured logger.
// Probe endpoints are skipped to keep the logs readable.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if path == "/health" || path == "/metrics" {
			return
		}

		if raw != "" {
			path = path + "?" + raw
		}

		// RequestIDMiddleware has already stashed the id in the request
		// context, so LogRequest picks it up from there.
		logger.LogRequest(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}
