package middleware

import (
	"context"
	"net/http"
	"strings"

	"task-tracker/backend/internal/logging"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "currentUser"

// StatusClientClosedRequest is written when the caller disconnected before
// the response was ready. Nothing is sent back.
const StatusClientClosedRequest = 499

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Authenticate rejects the request before any handler runs unless it carries
// a valid bearer token for an existing user. On success the user is stored on
// the gin context; handlers read it with CurrentUser.
func Authenticate(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c)
			return
		}

		ctx := c.Request.Context()
		user, err := authn.Authenticate(ctx, token)
		if err != nil {
			switch services.KindOf(err) {
			case services.KindUnauthorized:
				abortUnauthorized(c)
			case services.KindCanceled:
				c.AbortWithStatus(StatusClientClosedRequest)
			case services.KindUnavailable:
				logging.FromContext(ctx).Error("authentication unavailable", "error", err)
				c.Header("Retry-After", "1")
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"error":   "service_unavailable",
					"message": "Service temporarily unavailable",
				})
			default:
				logging.FromContext(ctx).Error("authentication failed", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "internal_error",
					"message": "Internal server error",
				})
			}
			return
		}

		logger := logging.FromContext(ctx).With("user_id", user.ID.String())
		c.Request = c.Request.WithContext(logging.WithContext(ctx, logger))
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user attached by Authenticate.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": "A valid access token is required",
	})
}
