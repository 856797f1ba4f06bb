package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskforge/api/internal/models"
	"taskforge/api/internal/security"
)

const currentUserKey = "current_user"

// UserLoader resolves a verified token subject to a live user record.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// Auth is the single gate in front of every protected route: extract the
// bearer token, verify it, resolve the user, attach it to the request
// context. Every failure path returns the same 401 shape so a probe learns
// nothing about which step rejected it.
func Auth(tokens *security.TokenService, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user the Auth middleware attached. Handlers behind
// Auth can rely on ok being true; the second return guards misuse.
func CurrentUser(c *gin.Context) (models.User, bool) {
	val, exists := c.Get(currentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}
