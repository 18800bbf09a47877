package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/aman-churiwal/media-quota/internal/middleware"
	"github.com/aman-churiwal/media-quota/internal/service"
	"github.com/gin-gonic/gin"
)

// Counts a subject's rejected requests in a time range
type RateLimitCounter interface {
	CountRateLimited(ctx context.Context, subjectID string, from, to time.Time) (int64, error)
}

type PlanHandler struct {
	plans         *service.PlanService
	subscriptions *service.SubscriptionService
	logs          RateLimitCounter
}

func NewPlanHandler(plans *service.PlanService, subscriptions *service.SubscriptionService, logs RateLimitCounter) *PlanHandler {
	return &PlanHandler{plans: plans, subscriptions: subscriptions, logs: logs}
}

// Handles GET /api/plans
func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.plans.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, plans)
}

// Handles GET /api/session
func (h *PlanHandler) Session(c *gin.Context) {
	ctx := c.Request.Context()
	subject := middleware.SubjectID(c)

	plan, err := h.plans.LimitsFor(ctx, subject)
	if err != nil {
		respondError(c, err)
		return
	}

	sub, err := h.subscriptions.Get(ctx, subject)
	if err != nil {
		respondError(c, err)
		return
	}

	period := service.PeriodOf(time.Now())
	limited, err := h.logs.CountRateLimited(ctx, subject, period.Start, period.End)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"subject_id":              subject,
		"plan":                    plan,
		"subscription":            sub,
		"rate_limited_this_month": limited,
	})
}
