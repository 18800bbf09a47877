package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// An asset already processed and stored by the external media service. This
// table is the system of record for storage reconciliation.
type MediaAsset struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SubjectID    string    `gorm:"not null;index:ix_media_subject_created,priority:1" json:"subject_id"`
	PublicID     string    `gorm:"not null" json:"public_id"`
	ResourceType string    `gorm:"not null;default:'image'" json:"resource_type"` // image, video
	Format       string    `json:"format"`
	OriginalSize int64     `gorm:"not null" json:"original_size"` // bytes
	URL          string    `json:"url"`
	CreatedAt    time.Time `gorm:"index:ix_media_subject_created,priority:2" json:"created_at"`
}

func (m *MediaAsset) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (MediaAsset) TableName() string {
	return "media_assets"
}
