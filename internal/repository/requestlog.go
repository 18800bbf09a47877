package repository

import (
	"context"
	"time"

	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/aman-churiwal/media-quota/internal/models"
	"github.com/aman-churiwal/media-quota/internal/storage"
)

type RequestLogRepository struct {
	db *storage.Database
}

func NewRequestLogRepository(db *storage.Database) *RequestLogRepository {
	return &RequestLogRepository{db: db}
}

// Inserts multiple request logs (for batch insertion)
func (r *RequestLogRepository) CreateBatch(ctx context.Context, logs []models.RequestLog) error {
	if len(logs) == 0 {
		return nil
	}

	return apperr.Store("request_log.create", r.db.DB.WithContext(ctx).Create(&logs).Error)
}

// Rate-limited requests for a subject within a time range
func (r *RequestLogRepository) CountRateLimited(ctx context.Context, subjectID string, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.RequestLog{}).
		Where("subject_id = ? AND rate_limited = ? AND timestamp BETWEEN ? AND ?", subjectID, true, from, to).
		Count(&count).Error

	return count, apperr.Store("request_log.count", err)
}

// Deletes logs older than the specified time
func (r *RequestLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("timestamp < ?", before).
		Delete(&models.RequestLog{})

	return result.RowsAffected, apperr.Store("request_log.delete", result.Error)
}
