package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"course-marketplace/internal/domain"
	authsvc "course-marketplace/internal/service/auth"
)

const (
	ctxUserIDKey = "authUserID"
	ctxRoleKey   = "authRole"
)

// authRequired rejects requests without a valid bearer token.
func authRequired(auth AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, auth)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(ctxUserIDKey, userID)
		c.Set(ctxRoleKey, claims.Role)
		c.Next()
	}
}

// authOptional resolves the caller when a valid token is present and lets
// the request through either way.
func authOptional(auth AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c, auth); ok {
			if userID, err := claims.UserID(); err == nil {
				c.Set(ctxUserIDKey, userID)
				c.Set(ctxRoleKey, claims.Role)
			}
		}
		c.Next()
	}
}

func requireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, exists := c.Get(ctxRoleKey)
		if !exists || got.(domain.Role) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, auth AuthService) (*authsvc.Claims, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}
	claims, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, false
	}
	return claims, true
}

func currentUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ctxUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
