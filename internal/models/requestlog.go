package models

import (
	"time"
)

// Represents a logged API request
type RequestLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Timestamp      time.Time `gorm:"index" json:"timestamp"`
	RequestID      string    `json:"request_id"`
	SubjectID      string    `gorm:"index" json:"subject_id,omitempty"`
	Zone           string    `gorm:"index" json:"zone,omitempty"`
	RateLimited    bool      `json:"rate_limited"`
	Method         string    `json:"method"`
	Path           string    `gorm:"index" json:"path"`
	StatusCode     int       `gorm:"index" json:"status_code"`
	ResponseTimeMs int       `json:"response_time_ms"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
}

func (RequestLog) TableName() string {
	return "request_logs"
}
