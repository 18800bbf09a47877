package repository

import (
	"context"
	"time"

	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/aman-churiwal/media-quota/internal/models"
	"github.com/aman-churiwal/media-quota/internal/storage"
	"gorm.io/gorm"
)

type MediaRepository struct {
	db *storage.Database
}

func NewMediaRepository(db *storage.Database) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) WithTx(tx *gorm.DB) *MediaRepository {
	return &MediaRepository{db: &storage.Database{DB: tx}}
}

// Runs fn inside one transaction; use WithTx to bind repositories to it
func (r *MediaRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(ctx, fn)
}

func (r *MediaRepository) Create(ctx context.Context, asset *models.MediaAsset) error {
	return apperr.Store("media.create", r.db.DB.WithContext(ctx).Create(asset).Error)
}

// Scoped to the owner so one subject can never see another's asset
func (r *MediaRepository) FindByID(ctx context.Context, subjectID, id string) (*models.MediaAsset, error) {
	var asset models.MediaAsset
	err := r.db.DB.WithContext(ctx).
		Where("id = ? AND subject_id = ?", id, subjectID).
		First(&asset).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store("media.find", err)
	}

	return &asset, nil
}

func (r *MediaRepository) ListBySubject(ctx context.Context, subjectID string, limit, offset int) ([]models.MediaAsset, error) {
	var assets []models.MediaAsset
	err := r.db.DB.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&assets).Error

	if err != nil {
		return nil, apperr.Store("media.list", err)
	}
	return assets, nil
}

// Reports whether a row was removed
func (r *MediaRepository) Delete(ctx context.Context, subjectID, id string) (bool, error) {
	result := r.db.DB.WithContext(ctx).
		Where("id = ? AND subject_id = ?", id, subjectID).
		Delete(&models.MediaAsset{})

	if result.Error != nil {
		return false, apperr.Store("media.delete", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Total original bytes and asset count for assets created in [from, to)
func (r *MediaRepository) SumCreatedBetween(ctx context.Context, subjectID string, from, to time.Time) (int64, int64, error) {
	var totals struct {
		TotalBytes int64
		Count      int64
	}

	err := r.db.DB.WithContext(ctx).
		Model(&models.MediaAsset{}).
		Select("COALESCE(SUM(original_size), 0) AS total_bytes, COUNT(*) AS count").
		Where("subject_id = ? AND created_at >= ? AND created_at < ?", subjectID, from, to).
		Scan(&totals).Error

	if err != nil {
		return 0, 0, apperr.Store("media.sum", err)
	}
	return totals.TotalBytes, totals.Count, nil
}
