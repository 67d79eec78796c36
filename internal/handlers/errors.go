package handlers

import (
	"net/http"

	"task-tracker/backend/internal/logging"
	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
)

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"message": message,
	})
}

// handleServiceError maps a core error onto its HTTP response. Internal
// failures are logged here and never echoed to the client.
func handleServiceError(c *gin.Context, err error) {
	switch services.KindOf(err) {
	case services.KindValidation:
		badRequest(c, err.Error())
	case services.KindConflict:
		c.JSON(http.StatusConflict, gin.H{
			"error":   "conflict",
			"message": "Username already exists",
		})
	case services.KindUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "Invalid credentials",
		})
	case services.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Task not found",
		})
	case services.KindCanceled:
		c.AbortWithStatus(middleware.StatusClientClosedRequest)
	case services.KindUnavailable:
		logging.FromContext(c.Request.Context()).Error("request failed", "error", err)
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "service_unavailable",
			"message": "Service temporarily unavailable",
		})
	default:
		logging.FromContext(c.Request.Context()).Error("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Internal server error",
		})
	}
}
