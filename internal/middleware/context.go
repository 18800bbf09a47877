package middleware

import (
	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/gin-gonic/gin"
)

// Keys set on the gin context
const (
	RequestIDKey   = "request_id"
	SubjectKey     = "subject_id"
	ZoneKey        = "rate_limit_zone"
	RateLimitedKey = "rate_limited"
	AuthErrorKey   = "auth_error"
)

// Subject of the authenticated caller, empty when anonymous
func SubjectID(c *gin.Context) string {
	return c.GetString(SubjectKey)
}

func abortWithError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   apperr.Code(err),
		"code":    status,
		"message": apperr.Message(err),
	})
}
