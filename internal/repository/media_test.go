package repository

import (
	"context"
	"testing"
	"time"

	"github.com/aman-churiwal/media-quota/internal/models"
	"github.com/aman-churiwal/media-quota/internal/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumCreatedBetween(t *testing.T) {
	db := storagetest.New(t)
	repo := NewMediaRepository(db)
	ctx := context.Background()

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	assets := []models.MediaAsset{
		{SubjectID: "s3", PublicID: "a", OriginalSize: 4 * 1024 * 1024, CreatedAt: start},
		{SubjectID: "s3", PublicID: "b", OriginalSize: 4 * 1024 * 1024, CreatedAt: start.Add(48 * time.Hour)},
		{SubjectID: "s3", PublicID: "c", OriginalSize: 4 * 1024 * 1024, CreatedAt: end.Add(-time.Second)},
		{SubjectID: "s3", PublicID: "last-month", OriginalSize: 999, CreatedAt: start.Add(-time.Second)},
		{SubjectID: "s3", PublicID: "next-month", OriginalSize: 999, CreatedAt: end},
		{SubjectID: "other", PublicID: "x", OriginalSize: 999, CreatedAt: start.Add(time.Hour)},
	}
	for i := range assets {
		require.NoError(t, repo.Create(ctx, &assets[i]))
	}

	total, count, err := repo.SumCreatedBetween(ctx, "s3", start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(12582912), total)
	assert.Equal(t, int64(3), count)

	total, count, err = repo.SumCreatedBetween(ctx, "empty", start, end)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, count)
}

func TestMediaScopedToOwner(t *testing.T) {
	repo := NewMediaRepository(storagetest.New(t))
	ctx := context.Background()

	asset := models.MediaAsset{SubjectID: "owner", PublicID: "p1", OriginalSize: 10}
	require.NoError(t, repo.Create(ctx, &asset))

	found, err := repo.FindByID(ctx, "intruder", asset.ID.String())
	require.NoError(t, err)
	assert.Nil(t, found)

	deleted, err := repo.Delete(ctx, "intruder", asset.ID.String())
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.Delete(ctx, "owner", asset.ID.String())
	require.NoError(t, err)
	assert.True(t, deleted)

	list, err := repo.ListBySubject(ctx, "owner", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
