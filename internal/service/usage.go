package service

import (
	"context"
	"time"

	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/aman-churiwal/media-quota/internal/metrics"
	"github.com/aman-churiwal/media-quota/internal/models"
	"github.com/aman-churiwal/media-quota/internal/quota"
	"github.com/aman-churiwal/media-quota/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// A usage counter that can be adjusted
type Field string

const (
	FieldStorage         Field = "storage"
	FieldTransformations Field = "transformations"
	FieldUploads         Field = "uploads"
)

func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldStorage, FieldTransformations, FieldUploads:
		return f, nil
	}
	return "", apperr.InvalidInput("usage.parse_field", "unknown usage field: "+s)
}

// A calendar month in UTC, as the half-open range [Start, End)
type Period struct {
	Month int
	Year  int
	Start time.Time
	End   time.Time
}

func PeriodOf(t time.Time) Period {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Month: int(t.Month()),
		Year:  t.Year(),
		Start: start,
		End:   start.AddDate(0, 1, 0),
	}
}

type PlanInfo struct {
	Name                 string `json:"name"`
	StorageLimit         int64  `json:"storage_limit"`
	MaxUploadSize        int64  `json:"max_upload_size"`
	TransformationsLimit int64  `json:"transformations_limit"`
	TeamMembers          int    `json:"team_members"`
}

func planInfo(p *models.Plan) PlanInfo {
	return PlanInfo{
		Name:                 p.Name,
		StorageLimit:         p.StorageLimit,
		MaxUploadSize:        p.MaxUploadSize,
		TransformationsLimit: p.TransformationsLimit,
		TeamMembers:          p.TeamMembers,
	}
}

type UsageReport struct {
	Month           int            `json:"month"`
	Year            int            `json:"year"`
	Storage         quota.Resource `json:"storage"`
	Transformations quota.Resource `json:"transformations"`
	Uploads         int64          `json:"uploads"`
	Plan            PlanInfo       `json:"plan"`
}

type UsageSnapshot struct {
	StorageUsed  int64 `json:"storage_used"`
	UploadsCount int64 `json:"uploads_count"`
}

type Reconciliation struct {
	Month       int           `json:"month"`
	Year        int           `json:"year"`
	Before      UsageSnapshot `json:"before"`
	After       UsageSnapshot `json:"after"`
	Differences UsageSnapshot `json:"differences"`
}

type UsageService struct {
	usage   *repository.UsageRepository
	media   *repository.MediaRepository
	plans   *PlanService
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewUsageService(usage *repository.UsageRepository, media *repository.MediaRepository, plans *PlanService, m *metrics.Metrics, log logrus.FieldLogger) *UsageService {
	return &UsageService{
		usage:   usage,
		media:   media,
		plans:   plans,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Replaces the wall clock, for tests
func (s *UsageService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *UsageService) Now() time.Time {
	return s.now().UTC()
}

func (s *UsageService) CurrentPeriod() Period {
	return PeriodOf(s.now())
}

// Returns a copy whose reads and writes run inside tx
func (s *UsageService) WithTx(tx *gorm.DB) *UsageService {
	cp := *s
	cp.usage = s.usage.WithTx(tx)
	cp.media = s.media.WithTx(tx)
	return &cp
}

// The current month's record, created with zero counters on first access
func (s *UsageService) CurrentRecord(ctx context.Context, subjectID string) (*models.UsageRecord, Period, error) {
	if subjectID == "" {
		return nil, Period{}, apperr.ErrUnauthenticated
	}
	p := s.CurrentPeriod()
	record, err := s.usage.GetOrCreate(ctx, subjectID, p.Month, p.Year)
	return record, p, err
}

// Current month's counters measured against the subject's plan
func (s *UsageService) Current(ctx context.Context, subjectID string) (*UsageReport, error) {
	record, p, err := s.CurrentRecord(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	plan, err := s.plans.LimitsFor(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	return &UsageReport{
		Month:           p.Month,
		Year:            p.Year,
		Storage:         quota.Summarize(record.StorageUsed, plan.StorageLimit),
		Transformations: quota.Summarize(record.TransformationsUsed, plan.TransformationsLimit),
		Uploads:         record.UploadsCount,
		Plan:            planInfo(plan),
	}, nil
}

// Adjusts one counter of the current month's record. Storage deltas are MB.
// Counters are clamped at zero by the store.
func (s *UsageService) ApplyDelta(ctx context.Context, subjectID string, field Field, delta int64) error {
	var d repository.Deltas
	switch field {
	case FieldStorage:
		d.Storage = delta
	case FieldTransformations:
		d.Transformations = delta
	case FieldUploads:
		d.Uploads = delta
	default:
		return apperr.InvalidInput("usage.apply_delta", "unknown usage field: "+string(field))
	}
	return s.apply(ctx, subjectID, d)
}

// Counts one uploaded file of the given size
func (s *UsageService) RecordUpload(ctx context.Context, subjectID string, bytes int64) error {
	return s.apply(ctx, subjectID, repository.Deltas{Storage: quota.BytesToMB(bytes), Uploads: 1})
}

// Reverses RecordUpload for a file of the same size
func (s *UsageService) RecordDelete(ctx context.Context, subjectID string, bytes int64) error {
	return s.apply(ctx, subjectID, repository.Deltas{Storage: -quota.BytesToMB(bytes), Uploads: -1})
}

func (s *UsageService) RecordTransformation(ctx context.Context, subjectID string) error {
	return s.apply(ctx, subjectID, repository.Deltas{Transformations: 1})
}

func (s *UsageService) apply(ctx context.Context, subjectID string, d repository.Deltas) error {
	_, p, err := s.CurrentRecord(ctx, subjectID)
	if err != nil {
		return err
	}

	if err := s.usage.ApplyDeltas(ctx, subjectID, p.Month, p.Year, d); err != nil {
		return err
	}

	s.metrics.RecordUsageDelta(string(FieldStorage), d.Storage)
	s.metrics.RecordUsageDelta(string(FieldUploads), d.Uploads)
	s.metrics.RecordUsageDelta(string(FieldTransformations), d.Transformations)
	return nil
}

// Recomputes storage and uploads for the current month from the media
// inventory and overwrites the stored counters. Transformations are left as
// they are. Running it twice with no inventory change is a no-op.
//
// A delta applied between the inventory read and the overwrite is lost; the
// next reconciliation corrects it.
func (s *UsageService) Reconcile(ctx context.Context, subjectID string) (*Reconciliation, error) {
	record, p, err := s.CurrentRecord(ctx, subjectID)
	if err != nil {
		s.metrics.RecordReconciliation(err, 0, 0)
		return nil, err
	}

	totalBytes, count, err := s.media.SumCreatedBetween(ctx, subjectID, p.Start, p.End)
	if err != nil {
		s.metrics.RecordReconciliation(err, 0, 0)
		return nil, err
	}

	before := UsageSnapshot{StorageUsed: record.StorageUsed, UploadsCount: record.UploadsCount}
	after := UsageSnapshot{StorageUsed: quota.BytesToMB(totalBytes), UploadsCount: count}

	if err := s.usage.Overwrite(ctx, subjectID, p.Month, p.Year, after.StorageUsed, after.UploadsCount); err != nil {
		s.metrics.RecordReconciliation(err, 0, 0)
		return nil, err
	}

	diff := UsageSnapshot{
		StorageUsed:  after.StorageUsed - before.StorageUsed,
		UploadsCount: after.UploadsCount - before.UploadsCount,
	}
	s.metrics.RecordReconciliation(nil, diff.StorageUsed, diff.UploadsCount)

	s.log.WithFields(logrus.Fields{
		"subject_id":    subjectID,
		"month":         p.Month,
		"year":          p.Year,
		"storage_drift": diff.StorageUsed,
		"uploads_drift": diff.UploadsCount,
	}).Info("usage reconciled")

	return &Reconciliation{
		Month:       p.Month,
		Year:        p.Year,
		Before:      before,
		After:       after,
		Differences: diff,
	}, nil
}

// Monthly records, newest first. Limit is clamped to [1, 24].
func (s *UsageService) History(ctx context.Context, subjectID string, limit int) ([]models.UsageRecord, error) {
	if subjectID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	if limit <= 0 {
		limit = 12
	}
	if limit > 24 {
		limit = 24
	}
	return s.usage.History(ctx, subjectID, limit)
}
