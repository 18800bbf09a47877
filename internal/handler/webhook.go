package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/aman-churiwal/media-quota/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	signatureHeader = "X-Webhook-Signature"
	maxWebhookBody  = 64 << 10
)

type WebhookHandler struct {
	service *service.SubscriptionService
}

func NewWebhookHandler(service *service.SubscriptionService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// Handles POST /api/webhooks/payment
func (h *WebhookHandler) Payment(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		respondError(c, apperr.InvalidInput("webhook.payment", "Unreadable request body"))
		return
	}

	if !h.service.VerifySignature(body, c.GetHeader(signatureHeader)) {
		respondError(c, apperr.New(apperr.KindUnauthenticated, "webhook.payment", "Invalid webhook signature", nil))
		return
	}

	var event service.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondError(c, apperr.InvalidInput("webhook.payment", "Invalid event payload"))
		return
	}

	sub, err := h.service.HandleEvent(c.Request.Context(), event)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, sub)
}
