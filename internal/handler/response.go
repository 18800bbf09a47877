package handler

import (
	"strconv"

	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/gin-gonic/gin"
)

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// Translates err into the error envelope. Server-side failures are attached
// to the context so the request logger records the cause.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= 500 {
		c.Error(err)
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   apperr.Code(err),
		"code":    status,
		"message": apperr.Message(err),
	})
}

// Parses a positive integer query parameter, falling back to def
func queryInt(c *gin.Context, name string, def int) int {
	if raw := c.Query(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			return v
		}
	}
	return def
}
