package handler

import (
	"net/http"

	"github.com/aman-churiwal/media-quota/internal/middleware"
	"github.com/aman-churiwal/media-quota/internal/service"
	"github.com/gin-gonic/gin"
)

type UsageHandler struct {
	service *service.UsageService
}

func NewUsageHandler(service *service.UsageService) *UsageHandler {
	return &UsageHandler{service: service}
}

// Handles GET /api/usage
func (h *UsageHandler) GetCurrent(c *gin.Context) {
	report, err := h.service.Current(c.Request.Context(), middleware.SubjectID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, report)
}

// Handles POST /api/usage/reconcile
func (h *UsageHandler) Reconcile(c *gin.Context) {
	result, err := h.service.Reconcile(c.Request.Context(), middleware.SubjectID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result)
}

// Handles GET /api/usage/history
func (h *UsageHandler) History(c *gin.Context) {
	records, err := h.service.History(c.Request.Context(), middleware.SubjectID(c), queryInt(c, "limit", 12))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, records)
}
