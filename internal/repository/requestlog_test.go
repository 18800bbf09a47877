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

func TestRequestLogRetention(t *testing.T) {
	repo := NewRequestLogRepository(storagetest.New(t))
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateBatch(ctx, []models.RequestLog{
		{Timestamp: now.AddDate(0, 0, -40), SubjectID: "s1", Path: "/api/usage", RateLimited: true},
		{Timestamp: now.AddDate(0, 0, -2), SubjectID: "s1", Path: "/api/usage", RateLimited: true},
		{Timestamp: now.AddDate(0, 0, -1), SubjectID: "s1", Path: "/api/usage"},
	}))

	limited, err := repo.CountRateLimited(ctx, "s1", now.AddDate(0, 0, -7), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), limited)

	deleted, err := repo.DeleteOlderThan(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
