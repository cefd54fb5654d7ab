package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fluxhq/flux-api/internal/auth"
	"github.com/fluxhq/flux-api/internal/constants"
	apierrors "github.com/fluxhq/flux-api/internal/errors"
)

// RequireAuth verifies the login token from the token cookie or the
// Authorization header and stores the caller's user ID on the context
func RequireAuth(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			apierrors.Unauthorized(c)
			c.Abort()
			return
		}

		userID, err := issuer.Parse(tokenStr)
		if err != nil {
			apierrors.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(constants.TokenCookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// GetUserID returns the authenticated user ID set by RequireAuth
func GetUserID(c *gin.Context) (string, bool) {
	value, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return "", false
	}
	userID, ok := value.(string)
	return userID, ok && userID != ""
}
