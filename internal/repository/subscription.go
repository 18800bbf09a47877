package repository

import (
	"context"

	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/aman-churiwal/media-quota/internal/models"
	"github.com/aman-churiwal/media-quota/internal/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepository struct {
	db *storage.Database
}

func NewSubscriptionRepository(db *storage.Database) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) FindBySubject(ctx context.Context, subjectID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.DB.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		First(&sub).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store("subscription.find", err)
	}

	return &sub, nil
}

// One subscription per subject; a later callback replaces plan, status and reference
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"plan_name", "status", "provider_ref", "updated_at"}),
		}).
		Create(sub).Error

	return apperr.Store("subscription.upsert", err)
}
