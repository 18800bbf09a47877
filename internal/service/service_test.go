package service

import (
	"context"
	"testing"
	"time"

	"github.com/aman-churiwal/media-quota/internal/config"
	"github.com/aman-churiwal/media-quota/internal/logger"
	"github.com/aman-churiwal/media-quota/internal/metrics"
	"github.com/aman-churiwal/media-quota/internal/repository"
	"github.com/aman-churiwal/media-quota/internal/storage"
	"github.com/aman-churiwal/media-quota/internal/storage/storagetest"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db            *storage.Database
	usageRepo     *repository.UsageRepository
	mediaRepo     *repository.MediaRepository
	subsRepo      *repository.SubscriptionRepository
	plans         *PlanService
	usage         *UsageService
	media         *MediaService
	subscriptions *SubscriptionService
}

func newFixture(t *testing.T, seed bool) *fixture {
	t.Helper()

	db := storagetest.New(t)
	log := logger.Discard()
	m := metrics.New()

	f := &fixture{
		db:        db,
		usageRepo: repository.NewUsageRepository(db),
		mediaRepo: repository.NewMediaRepository(db),
		subsRepo:  repository.NewSubscriptionRepository(db),
	}
	f.plans = NewPlanService(repository.NewPlanRepository(db), f.subsRepo, nil, log)
	f.usage = NewUsageService(f.usageRepo, f.mediaRepo, f.plans, m, log)
	f.usage.SetClock(func() time.Time { return testNow })
	f.media = NewMediaService(f.mediaRepo, f.usage, f.plans, m, log)
	f.subscriptions = NewSubscriptionService(f.subsRepo, f.plans, "whsec_test", log)

	if seed {
		require.NoError(t, f.plans.Seed(context.Background(), config.DefaultPlans()))
	}
	return f
}
