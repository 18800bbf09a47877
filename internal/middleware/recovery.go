package middleware

import (
	"runtime/debug"

	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func Recovery(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.WithFields(logrus.Fields{
					"request_id": c.GetString(RequestIDKey),
					"panic":      err,
					"stack":      string(debug.Stack()),
				}).Error("panic while handling request")

				abortWithError(c, apperr.New(apperr.KindInternal, "recovery", "", nil))
			}
		}()
		c.Next()
	}
}
