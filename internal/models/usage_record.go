package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Per-subject, per-month consumption counters. Exactly one row exists for each
// (subject_id, month, year); the composite unique index backs the upsert.
type UsageRecord struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SubjectID           string    `gorm:"not null;uniqueIndex:ux_usage_subject_period,priority:1" json:"subject_id"`
	Month               int       `gorm:"not null;uniqueIndex:ux_usage_subject_period,priority:2" json:"month"`
	Year                int       `gorm:"not null;uniqueIndex:ux_usage_subject_period,priority:3" json:"year"`
	StorageUsed         int64     `gorm:"not null;default:0" json:"storage_used"` // MB
	TransformationsUsed int64     `gorm:"not null;default:0" json:"transformations_used"`
	UploadsCount        int64     `gorm:"not null;default:0" json:"uploads_count"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (u *UsageRecord) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (UsageRecord) TableName() string {
	return "usage_records"
}
