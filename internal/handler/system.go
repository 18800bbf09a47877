package handler

import (
	"net/http"
	"time"

	"github.com/aman-churiwal/media-quota/internal/circuitbreaker"
	"github.com/aman-churiwal/media-quota/internal/healthcheck"
	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// Handles system-related endpoints
type SystemHandler struct {
	checker *healthcheck.Checker
	breaker *circuitbreaker.CircuitBreaker // nil without the redis limiter
	version string
}

func NewSystemHandler(checker *healthcheck.Checker, breaker *circuitbreaker.CircuitBreaker, version string) *SystemHandler {
	return &SystemHandler{
		checker: checker,
		breaker: breaker,
		version: version,
	}
}

// Handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	overall := h.checker.OverallHealth()

	statusCode := http.StatusOK
	if overall == healthcheck.Unhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	body := gin.H{
		"status":    overall.String(),
		"service":   "media-quota",
		"version":   h.version,
		"uptime":    time.Since(startTime).Seconds(),
		"timestamp": time.Now().Unix(),
		"checks":    h.checker.GetAllStatus(),
	}
	if h.breaker != nil {
		body["circuit_breaker"] = h.breaker.Snapshot()
	}

	c.JSON(statusCode, body)
}
