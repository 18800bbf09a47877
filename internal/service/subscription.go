package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/aman-churiwal/media-quota/internal/models"
	"github.com/aman-churiwal/media-quota/internal/repository"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
)

// Payment gateway callback event types
const (
	EventSubscriptionActivated = "subscription.activated"
	EventSubscriptionUpdated   = "subscription.updated"
	EventSubscriptionCancelled = "subscription.cancelled"
)

type PaymentEvent struct {
	Type      string `json:"type"`
	SubjectID string `json:"subject_id"`
	Plan      string `json:"plan"`
	Reference string `json:"reference"`
}

func (e PaymentEvent) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Type, validation.Required,
			validation.In(EventSubscriptionActivated, EventSubscriptionUpdated, EventSubscriptionCancelled)),
		validation.Field(&e.SubjectID, validation.Required, validation.Length(1, 255)),
		validation.Field(&e.Plan, validation.When(e.Type != EventSubscriptionCancelled, validation.Required)),
	)
}

type SubscriptionService struct {
	subs   *repository.SubscriptionRepository
	plans  *PlanService
	secret []byte
	log    logrus.FieldLogger
}

func NewSubscriptionService(subs *repository.SubscriptionRepository, plans *PlanService, webhookSecret string, log logrus.FieldLogger) *SubscriptionService {
	return &SubscriptionService{
		subs:   subs,
		plans:  plans,
		secret: []byte(webhookSecret),
		log:    log,
	}
}

// Checks the hex HMAC-SHA256 of body. Always false without a configured secret.
func (s *SubscriptionService) VerifySignature(body []byte, signature string) bool {
	if len(s.secret) == 0 || signature == "" {
		return false
	}

	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

// Applies a verified payment callback to the subject's subscription
func (s *SubscriptionService) HandleEvent(ctx context.Context, e PaymentEvent) (*models.Subscription, error) {
	if err := e.Validate(); err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "subscription.handle", err.Error(), nil)
	}

	sub := &models.Subscription{
		SubjectID:   e.SubjectID,
		PlanName:    e.Plan,
		Status:      models.SubscriptionActive,
		ProviderRef: e.Reference,
	}

	if e.Type == EventSubscriptionCancelled {
		existing, err := s.subs.FindBySubject(ctx, e.SubjectID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, apperr.NotFound("subscription.handle", "No subscription for subject")
		}
		sub.PlanName = existing.PlanName
		sub.Status = models.SubscriptionCancelled
		if sub.ProviderRef == "" {
			sub.ProviderRef = existing.ProviderRef
		}
	} else {
		plan, err := s.plans.Find(ctx, e.Plan)
		if err != nil {
			return nil, err
		}
		if plan == nil {
			return nil, apperr.InvalidInput("subscription.handle", "Unknown plan: "+e.Plan)
		}
	}

	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"subject_id": sub.SubjectID,
		"plan":       sub.PlanName,
		"status":     sub.Status,
		"event":      e.Type,
	}).Info("subscription updated")

	return s.subs.FindBySubject(ctx, e.SubjectID)
}

func (s *SubscriptionService) Get(ctx context.Context, subjectID string) (*models.Subscription, error) {
	return s.subs.FindBySubject(ctx, subjectID)
}
