package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aman-churiwal/media-quota/internal/metrics"
	"github.com/aman-churiwal/media-quota/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Admits requests against zone's fixed window. The identity is the
// authenticated subject, or the client address for anonymous callers.
func RateLimit(limiter ratelimit.Limiter, zone ratelimit.Zone, m *metrics.Metrics, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := "ip:" + c.ClientIP()
		if subject := SubjectID(c); subject != "" {
			identity = "subject:" + subject
		}
		c.Set(ZoneKey, zone.Name)

		res, err := limiter.Check(c.Request.Context(), identity, zone)
		if err != nil {
			// Admission must not take the API down with it
			log.WithError(err).WithField("zone", zone.Name).Error("rate limit check failed, admitting request")
			c.Next()
			return
		}
		m.RecordRateLimit(zone.Name, res.Allowed)

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetTime.Unix(), 10))

		if !res.Allowed {
			c.Set(RateLimitedKey, true)
			c.Header("Retry-After", strconv.Itoa(res.RetryAfter(time.Now())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":   false,
				"error":     "RATE_LIMITED",
				"message":   "Too many requests, please try again later",
				"resetTime": res.ResetTime.UTC().Format(time.RFC3339),
			})
			return
		}

		c.Next()
	}
}
