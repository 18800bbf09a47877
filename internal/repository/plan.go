package repository

import (
	"context"

	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/aman-churiwal/media-quota/internal/models"
	"github.com/aman-churiwal/media-quota/internal/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlanRepository struct {
	db *storage.Database
}

func NewPlanRepository(db *storage.Database) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) FindByName(ctx context.Context, name string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.DB.WithContext(ctx).
		Where("name = ?", name).
		First(&plan).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store("plan.find", err)
	}

	return &plan, nil
}

func (r *PlanRepository) List(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.DB.WithContext(ctx).
		Order("storage_limit ASC").
		Find(&plans).Error

	if err != nil {
		return nil, apperr.Store("plan.list", err)
	}
	return plans, nil
}

// Inserts or refreshes every plan row by name
func (r *PlanRepository) UpsertAll(ctx context.Context, plans []models.Plan) error {
	if len(plans) == 0 {
		return nil
	}

	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			UpdateAll: true,
		}).
		Create(&plans).Error

	return apperr.Store("plan.upsert", err)
}
