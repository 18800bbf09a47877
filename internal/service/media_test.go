package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/aman-churiwal/media-quota/internal/models"
	"github.com/aman-churiwal/media-quota/internal/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUploadChargesUsage(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	asset, err := f.media.Upload(ctx, "s1", UploadInput{
		PublicID: "folder/cat",
		Format:   "png",
		Bytes:    2*quota.BytesPerMB + 1,
		URL:      "https://cdn.example.com/cat.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "image", asset.ResourceType)
	assert.True(t, testNow.Equal(asset.CreatedAt))

	report, err := f.usage.Current(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.Storage.Used)
	assert.Equal(t, int64(1), report.Uploads)
}

func TestUploadValidation(t *testing.T) {
	f := newFixture(t, true)

	tests := []struct {
		name string
		in   UploadInput
	}{
		{"missing public id", UploadInput{Bytes: 10}},
		{"zero bytes", UploadInput{PublicID: "a"}},
		{"bad resource type", UploadInput{PublicID: "a", Bytes: 10, ResourceType: "pdf"}},
		{"bad url", UploadInput{PublicID: "a", Bytes: 10, URL: "not a url"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.media.Upload(context.Background(), "s1", tt.in)
			assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
		})
	}
}

func TestUploadEnforcesPlanLimits(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	// free plan: 10 MB per file
	_, err := f.media.Upload(ctx, "s1", UploadInput{PublicID: "big", Bytes: 10*quota.BytesPerMB + 1})
	assert.Equal(t, apperr.KindQuotaExceeded, apperr.KindOf(err))

	// free plan: 500 MB total
	require.NoError(t, f.usage.ApplyDelta(ctx, "s1", FieldStorage, 495))
	_, err = f.media.Upload(ctx, "s1", UploadInput{PublicID: "fits", Bytes: 5 * quota.BytesPerMB})
	require.NoError(t, err)
	_, err = f.media.Upload(ctx, "s1", UploadInput{PublicID: "overflow", Bytes: 1})
	assert.Equal(t, apperr.KindQuotaExceeded, apperr.KindOf(err))
	assert.Equal(t, 403, apperr.HTTPStatus(err))
}

func TestDeleteReleasesCurrentMonthStorage(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	asset, err := f.media.Upload(ctx, "s1", UploadInput{PublicID: "a", Bytes: 3 * quota.BytesPerMB})
	require.NoError(t, err)

	require.NoError(t, f.media.Delete(ctx, "s1", asset.ID.String()))

	record, _, err := f.usage.CurrentRecord(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), record.StorageUsed)
	assert.Equal(t, int64(0), record.UploadsCount)

	err = f.media.Delete(ctx, "s1", asset.ID.String())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = f.media.Delete(ctx, "s1", "not-a-uuid")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestDeletePastMonthAssetLeavesCurrentCounters(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	old := models.MediaAsset{SubjectID: "s1", PublicID: "old", OriginalSize: 8 * quota.BytesPerMB, CreatedAt: testNow.AddDate(0, -2, 0)}
	require.NoError(t, f.mediaRepo.Create(ctx, &old))
	require.NoError(t, f.usage.ApplyDelta(ctx, "s1", FieldStorage, 20))

	require.NoError(t, f.media.Delete(ctx, "s1", old.ID.String()))

	record, _, err := f.usage.CurrentRecord(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(20), record.StorageUsed)
}

func TestTransformCountsAgainstLimit(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	asset, err := f.media.Upload(ctx, "s1", UploadInput{PublicID: "a", Bytes: 100})
	require.NoError(t, err)

	res, err := f.media.Transform(ctx, "s1", asset.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Used)
	assert.Equal(t, int64(999), res.Remaining)

	require.NoError(t, f.usage.ApplyDelta(ctx, "s1", FieldTransformations, 999))
	_, err = f.media.Transform(ctx, "s1", asset.ID.String())
	assert.Equal(t, apperr.KindQuotaExceeded, apperr.KindOf(err))

	_, err = f.media.Transform(ctx, "someone-else", asset.ID.String())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUploadDeleteThenReconcileAgree(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	sizes := []int64{1, quota.BytesPerMB, quota.BytesPerMB + 1}
	var ids []string
	for i, size := range sizes {
		asset, err := f.media.Upload(ctx, "s1", UploadInput{PublicID: string(rune('a' + i)), Bytes: size})
		require.NoError(t, err)
		ids = append(ids, asset.ID.String())
	}
	require.NoError(t, f.media.Delete(ctx, "s1", ids[0]))

	result, err := f.usage.Reconcile(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.After.UploadsCount)
	assert.Equal(t, int64(0), result.Differences.UploadsCount)
	// per-file ceilings (1 + 2) vs ceiling of the sum (3)
	assert.Equal(t, int64(3), result.After.StorageUsed)
	assert.Equal(t, int64(0), result.Differences.StorageUsed)

	list, err := f.media.List(ctx, "s1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

// Fails every UPDATE of usage_records on db
func failUsageUpdates(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Callback().Update().Before("gorm:update").Register("test:fail_usage_update", func(tx *gorm.DB) {
		if tx.Statement.Table == "usage_records" {
			tx.AddError(errors.New("store down"))
		}
	})
	require.NoError(t, err)
}

func TestUploadRollsBackWhenUsageUpdateFails(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	failUsageUpdates(t, f.db.DB)

	_, err := f.media.Upload(ctx, "s1", UploadInput{PublicID: "cat", Bytes: quota.BytesPerMB})
	require.Error(t, err)
	assert.Equal(t, apperr.KindStoreUnavailable, apperr.KindOf(err))

	var count int64
	require.NoError(t, f.db.DB.Model(&models.MediaAsset{}).Where("subject_id = ?", "s1").Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteRollsBackWhenUsageUpdateFails(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	asset, err := f.media.Upload(ctx, "s1", UploadInput{PublicID: "cat", Bytes: quota.BytesPerMB})
	require.NoError(t, err)

	failUsageUpdates(t, f.db.DB)

	err = f.media.Delete(ctx, "s1", asset.ID.String())
	require.Error(t, err)

	found, err := f.mediaRepo.FindByID(ctx, "s1", asset.ID.String())
	require.NoError(t, err)
	assert.NotNil(t, found)
}
