package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/aman-churiwal/media-quota/internal/config"
	"github.com/aman-churiwal/media-quota/internal/models"
	"github.com/aman-churiwal/media-quota/internal/repository"
	"github.com/aman-churiwal/media-quota/internal/storage"
	"github.com/sirupsen/logrus"
)

const planCacheTTL = 5 * time.Minute

type PlanService struct {
	plans *repository.PlanRepository
	subs  *repository.SubscriptionRepository
	redis *storage.RedisClient // optional
	log   logrus.FieldLogger
}

func NewPlanService(plans *repository.PlanRepository, subs *repository.SubscriptionRepository, redis *storage.RedisClient, log logrus.FieldLogger) *PlanService {
	return &PlanService{
		plans: plans,
		subs:  subs,
		redis: redis,
		log:   log,
	}
}

// Resolves the plan for subject: the plan of an active subscription, otherwise
// free. A subscription naming an unknown plan also falls back to free. No free
// row at all means the deployment was not seeded and is reported as
// MissingPlanData.
func (s *PlanService) LimitsFor(ctx context.Context, subjectID string) (*models.Plan, error) {
	name := config.PlanFree

	sub, err := s.subs.FindBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if sub != nil && sub.Status == models.SubscriptionActive {
		name = sub.PlanName
	}

	plan, err := s.Find(ctx, name)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		return plan, nil
	}

	if name != config.PlanFree {
		s.log.WithFields(logrus.Fields{
			"subject_id": subjectID,
			"plan":       name,
		}).Warn("subscribed plan not found, falling back to free")

		plan, err = s.Find(ctx, config.PlanFree)
		if err != nil {
			return nil, err
		}
		if plan != nil {
			return plan, nil
		}
	}

	s.log.WithField("subject_id", subjectID).Error("free plan row is missing, plans were not seeded")
	return nil, apperr.New(apperr.KindMissingPlanData, "plan.limits_for", "no plan configured, including the free fallback", nil)
}

// Cached lookup by name. Returns nil when the plan does not exist.
func (s *PlanService) Find(ctx context.Context, name string) (*models.Plan, error) {
	cacheKey := fmt.Sprintf("plan:cache:%s", name)

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, cacheKey)
		if err == nil && cached != "" {
			var plan models.Plan
			if err := json.Unmarshal([]byte(cached), &plan); err == nil {
				return &plan, nil
			}
		}
	}

	plan, err := s.plans.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, nil
	}

	if s.redis != nil {
		planJSON, _ := json.Marshal(plan)
		if err := s.redis.Set(ctx, cacheKey, planJSON, planCacheTTL); err != nil {
			s.log.WithError(err).Debug("plan cache write failed")
		}
	}

	return plan, nil
}

func (s *PlanService) List(ctx context.Context) ([]models.Plan, error) {
	return s.plans.List(ctx)
}

// Writes the configured plan table and drops cached copies
func (s *PlanService) Seed(ctx context.Context, plans []config.PlanConfig) error {
	rows := make([]models.Plan, 0, len(plans))
	keys := make([]string, 0, len(plans))
	for _, p := range plans {
		rows = append(rows, models.Plan{
			Name:                 p.Name,
			StorageLimit:         p.StorageLimit,
			MaxUploadSize:        p.MaxUploadSize,
			TransformationsLimit: p.TransformationsLimit,
			TeamMembers:          p.TeamMembers,
		})
		keys = append(keys, fmt.Sprintf("plan:cache:%s", p.Name))
	}

	if err := s.plans.UpsertAll(ctx, rows); err != nil {
		return err
	}

	if s.redis != nil {
		if err := s.redis.Del(ctx, keys...); err != nil {
			s.log.WithError(err).Warn("failed to invalidate plan cache")
		}
	}

	s.log.WithField("plans", len(rows)).Info("plans seeded")
	return nil
}
