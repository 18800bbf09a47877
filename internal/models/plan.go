package models

import "time"

// Plan tier limits, seeded from config
type Plan struct {
	Name                 string    `gorm:"primaryKey" json:"name"`
	StorageLimit         int64     `gorm:"not null" json:"storage_limit"`   // MB
	MaxUploadSize        int64     `gorm:"not null" json:"max_upload_size"` // MB
	TransformationsLimit int64     `gorm:"not null" json:"transformations_limit"`
	TeamMembers          int       `gorm:"not null;default:1" json:"team_members"` // -1 = unlimited
	UpdatedAt            time.Time `json:"-"`
}

func (Plan) TableName() string {
	return "plans"
}
