package middleware

import (
	"context"

	"eqic-a2a.backend/pkg/utils"
	"github.com/gin-gonic/gin"
)

const RequestIDKey = "request_id"

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with an id, honoring a
// caller-supplied X-Request-ID when present.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = utils.GenerateUUIDv7().String()
		}

		c.Set(RequestIDKey, id)
		c.Header(requestIDHeader, id)

		// pkg/logger reads the id from the request context, so stash it
		// there too for WithContext.
		ctx := context.WithValue(c.Request.Context(), "request_id", id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
