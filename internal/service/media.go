package service

import (
	"context"
	"fmt"

	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/aman-churiwal/media-quota/internal/metrics"
	"github.com/aman-churiwal/media-quota/internal/models"
	"github.com/aman-churiwal/media-quota/internal/quota"
	"github.com/aman-churiwal/media-quota/internal/repository"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Metadata of an asset the media service has already processed
type UploadInput struct {
	PublicID     string `json:"public_id"`
	ResourceType string `json:"resource_type"`
	Format       string `json:"format"`
	Bytes        int64  `json:"bytes"`
	URL          string `json:"url"`
}

func (in UploadInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.PublicID, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.ResourceType, validation.In("image", "video", "raw")),
		validation.Field(&in.Format, validation.Length(0, 16)),
		validation.Field(&in.Bytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.URL, is.URL),
	)
}

type MediaService struct {
	media   *repository.MediaRepository
	usage   *UsageService
	plans   *PlanService
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

func NewMediaService(media *repository.MediaRepository, usage *UsageService, plans *PlanService, m *metrics.Metrics, log logrus.FieldLogger) *MediaService {
	return &MediaService{
		media:   media,
		usage:   usage,
		plans:   plans,
		metrics: m,
		log:     log,
	}
}

// Records an uploaded asset and charges it to the current month. The file
// must fit the plan's per-file limit and the remaining storage.
func (s *MediaService) Upload(ctx context.Context, subjectID string, in UploadInput) (*models.MediaAsset, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "media.upload", err.Error(), nil)
	}

	plan, err := s.plans.LimitsFor(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	if in.Bytes > plan.MaxUploadSize*quota.BytesPerMB {
		s.metrics.RecordQuotaRejection("upload_size")
		return nil, apperr.QuotaExceeded("media.upload",
			fmt.Sprintf("File exceeds the %d MB upload limit of the %s plan", plan.MaxUploadSize, plan.Name))
	}

	record, _, err := s.usage.CurrentRecord(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if record.StorageUsed+quota.BytesToMB(in.Bytes) > plan.StorageLimit {
		s.metrics.RecordQuotaRejection("storage")
		return nil, apperr.QuotaExceeded("media.upload",
			fmt.Sprintf("Storage limit of %d MB reached", plan.StorageLimit))
	}

	resourceType := in.ResourceType
	if resourceType == "" {
		resourceType = "image"
	}

	// One clock decides which month an asset is charged to
	asset := &models.MediaAsset{
		SubjectID:    subjectID,
		PublicID:     in.PublicID,
		ResourceType: resourceType,
		Format:       in.Format,
		OriginalSize: in.Bytes,
		URL:          in.URL,
		CreatedAt:    s.usage.Now(),
	}

	err = s.media.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.media.WithTx(tx).Create(ctx, asset); err != nil {
			return err
		}
		return s.usage.WithTx(tx).RecordUpload(ctx, subjectID, in.Bytes)
	})
	if err != nil {
		s.log.WithError(err).WithField("subject_id", subjectID).Warn("upload not recorded")
		return nil, apperr.Store("media.upload", err)
	}

	return asset, nil
}

// Removes an asset. Storage is released only when the asset belongs to the
// current month, since earlier months are never re-targeted.
func (s *MediaService) Delete(ctx context.Context, subjectID, id string) error {
	asset, err := s.find(ctx, subjectID, id, "media.delete")
	if err != nil {
		return err
	}

	releases := !asset.CreatedAt.Before(s.usage.CurrentPeriod().Start)

	err = s.media.Transaction(ctx, func(tx *gorm.DB) error {
		deleted, err := s.media.WithTx(tx).Delete(ctx, subjectID, asset.ID.String())
		if err != nil {
			return err
		}
		if !deleted {
			return apperr.NotFound("media.delete", "Media not found")
		}
		if !releases {
			return nil
		}
		return s.usage.WithTx(tx).RecordDelete(ctx, subjectID, asset.OriginalSize)
	})
	return apperr.Store("media.delete", err)
}

// Counts one transformation of an owned asset against the plan
func (s *MediaService) Transform(ctx context.Context, subjectID, id string) (*quota.Resource, error) {
	if _, err := s.find(ctx, subjectID, id, "media.transform"); err != nil {
		return nil, err
	}

	plan, err := s.plans.LimitsFor(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	record, _, err := s.usage.CurrentRecord(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if record.TransformationsUsed >= plan.TransformationsLimit {
		s.metrics.RecordQuotaRejection("transformations")
		return nil, apperr.QuotaExceeded("media.transform",
			fmt.Sprintf("Transformation limit of %d reached", plan.TransformationsLimit))
	}

	if err := s.usage.RecordTransformation(ctx, subjectID); err != nil {
		return nil, err
	}

	res := quota.Summarize(record.TransformationsUsed+1, plan.TransformationsLimit)
	return &res, nil
}

func (s *MediaService) List(ctx context.Context, subjectID string, limit, offset int) ([]models.MediaAsset, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.media.ListBySubject(ctx, subjectID, limit, offset)
}

func (s *MediaService) find(ctx context.Context, subjectID, id, op string) (*models.MediaAsset, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.InvalidInput(op, "Invalid media ID")
	}

	asset, err := s.media.FindByID(ctx, subjectID, id)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, apperr.NotFound(op, "Media not found")
	}
	return asset, nil
}
