package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// A subject's plan, maintained from payment gateway callbacks
type Subscription struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SubjectID   string    `gorm:"uniqueIndex;not null" json:"subject_id"`
	PlanName    string    `gorm:"not null;default:'free'" json:"plan_name"`
	Status      string    `gorm:"not null;default:'active'" json:"status"`
	ProviderRef string    `json:"provider_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (Subscription) TableName() string {
	return "subscriptions"
}
