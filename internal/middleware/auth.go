package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"zapbot/api/internal/auth"
)

const (
	// ContextUser holds the authenticated *models.PublicUser.
	ContextUser = "current_user"
	// ContextToken holds the raw bearer token string.
	ContextToken = "access_token"
)

// Auth verifies the bearer token through the auth service, which checks the
// active-token set as well as the signature, and stores the resolved user
// on the context.
func Auth(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Token não fornecido",
			})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		result := authService.VerifyToken(c.Request.Context(), tokenStr)
		if !result.Success {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": result.Message,
			})
			return
		}

		c.Set(ContextToken, tokenStr)
		c.Set(ContextUser, result.User)

		c.Next()
	}
}
