package middleware

import (
	"strings"

	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/aman-churiwal/media-quota/internal/service"
	"github.com/gin-gonic/gin"
)

// Resolves the caller's subject from a bearer token when one is sent. Never
// aborts: a bad token leaves the caller anonymous with the failure recorded
// under AuthErrorKey for RequireSubject.
func Authenticate(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Set(AuthErrorKey, apperr.New(apperr.KindUnauthenticated, "auth", "Invalid authorization header format. Use: Bearer <token>", nil))
			c.Next()
			return
		}

		subject, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.Set(AuthErrorKey, err)
			c.Next()
			return
		}

		c.Set(SubjectKey, subject)
		c.Next()
	}
}

// Rejects anonymous requests with 401, reporting the token failure if there was one
func RequireSubject() gin.HandlerFunc {
	return func(c *gin.Context) {
		if SubjectID(c) == "" {
			if err, ok := c.Get(AuthErrorKey); ok {
				abortWithError(c, err.(error))
				return
			}
			abortWithError(c, apperr.New(apperr.KindUnauthenticated, "auth", "Authentication required", nil))
			return
		}
		c.Next()
	}
}
