package middleware

import (
	"net/http"
	"runtime/debug"

	"task-tracker/backend/internal/logging"

	"github.com/gin-gonic/gin"
)

// RecoveryWithLog turns a handler panic into an opaque 500 and logs the
// panic value with its stack.
func RecoveryWithLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logging.FromContext(c.Request.Context()).Error("panic recovered",
					"panic", r,
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}
