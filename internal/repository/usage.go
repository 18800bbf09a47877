package repository

import (
	"context"

	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/aman-churiwal/media-quota/internal/models"
	"github.com/aman-churiwal/media-quota/internal/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Relative adjustments to one usage record. Storage is in MB.
type Deltas struct {
	Storage         int64
	Transformations int64
	Uploads         int64
}

func (d Deltas) IsZero() bool {
	return d.Storage == 0 && d.Transformations == 0 && d.Uploads == 0
}

type UsageRepository struct {
	db *storage.Database
}

func NewUsageRepository(db *storage.Database) *UsageRepository {
	return &UsageRepository{db: db}
}

// Returns a copy whose statements run inside tx
func (r *UsageRepository) WithTx(tx *gorm.DB) *UsageRepository {
	return &UsageRepository{db: &storage.Database{DB: tx}}
}

// Returns the record for the period, creating a zeroed one on first access.
// Concurrent callers race on the unique index, never on an exists-check.
func (r *UsageRepository) GetOrCreate(ctx context.Context, subjectID string, month, year int) (*models.UsageRecord, error) {
	record := models.UsageRecord{SubjectID: subjectID, Month: month, Year: year}

	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject_id"}, {Name: "month"}, {Name: "year"}},
			DoNothing: true,
		}).
		Create(&record).Error
	if err != nil {
		return nil, apperr.Store("usage.get_or_create", err)
	}

	found, err := r.Find(ctx, subjectID, month, year)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, apperr.Store("usage.get_or_create", gorm.ErrRecordNotFound)
	}

	return found, nil
}

func (r *UsageRepository) Find(ctx context.Context, subjectID string, month, year int) (*models.UsageRecord, error) {
	var record models.UsageRecord
	err := r.db.DB.WithContext(ctx).
		Where("subject_id = ? AND month = ? AND year = ?", subjectID, month, year).
		First(&record).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store("usage.find", err)
	}

	return &record, nil
}

// Applies all deltas in one UPDATE, each column clamped at zero
func (r *UsageRepository) ApplyDeltas(ctx context.Context, subjectID string, month, year int, d Deltas) error {
	if d.IsZero() {
		return nil
	}

	updates := map[string]interface{}{}
	if d.Storage != 0 {
		updates["storage_used"] = clampedAdd("storage_used", d.Storage)
	}
	if d.Transformations != 0 {
		updates["transformations_used"] = clampedAdd("transformations_used", d.Transformations)
	}
	if d.Uploads != 0 {
		updates["uploads_count"] = clampedAdd("uploads_count", d.Uploads)
	}

	err := r.db.DB.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Where("subject_id = ? AND month = ? AND year = ?", subjectID, month, year).
		Updates(updates).Error

	return apperr.Store("usage.apply_deltas", err)
}

// Portable max(0, col + delta); GREATEST is not available on every driver
func clampedAdd(column string, delta int64) clause.Expr {
	return gorm.Expr("CASE WHEN "+column+" + ? < 0 THEN 0 ELSE "+column+" + ? END", delta, delta)
}

// Replaces the storage and upload counters outright. Last write wins.
func (r *UsageRepository) Overwrite(ctx context.Context, subjectID string, month, year int, storageMB, uploads int64) error {
	err := r.db.DB.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Where("subject_id = ? AND month = ? AND year = ?", subjectID, month, year).
		Updates(map[string]interface{}{
			"storage_used":  storageMB,
			"uploads_count": uploads,
		}).Error

	return apperr.Store("usage.overwrite", err)
}

// Newest first
func (r *UsageRepository) History(ctx context.Context, subjectID string, limit int) ([]models.UsageRecord, error) {
	var records []models.UsageRecord
	err := r.db.DB.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("year DESC, month DESC").
		Limit(limit).
		Find(&records).Error

	if err != nil {
		return nil, apperr.Store("usage.history", err)
	}
	return records, nil
}
