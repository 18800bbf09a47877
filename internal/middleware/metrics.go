package middleware

import (
	"time"

	"github.com/aman-churiwal/media-quota/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Observes latency per matched route template, not raw path
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
