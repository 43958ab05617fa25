package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precipwatch/internal/types"
)

func TestAlertRepositoryCreateAndGet(t *testing.T) {
	sqlDB := newTestDB(t)
	clock := &fixedClock{now: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
	repo := NewAlertRepository(sqlDB, clock)
	ctx := context.Background()

	draft := &types.AlertDraft{
		CityID:    1,
		Category:  types.CategorySnowfall,
		Threshold: 5.0,
		Notes:     "pack the skis",
	}

	created, err := repo.Create(ctx, draft)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, clock.now, created.CreatedAt)
	assert.Nil(t, created.SnoozedUntil)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, types.CategorySnowfall, got.Category)
	assert.Equal(t, 5.0, got.Threshold)
	assert.Equal(t, "pack the skis", got.Notes)
}

func TestAlertRepositoryCreateRejectsInvalidDraft(t *testing.T) {
	repo := NewAlertRepository(newTestDB(t), nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		draft    types.AlertDraft
		wantCode types.ErrorCode
	}{
		{
			name:     "zero threshold",
			draft:    types.AlertDraft{CityID: 1, Category: types.CategoryRainfall, Threshold: 0},
			wantCode: types.ErrCodeValidationThreshold,
		},
		{
			name:     "negative threshold",
			draft:    types.AlertDraft{CityID: 1, Category: types.CategoryRainfall, Threshold: -1},
			wantCode: types.ErrCodeValidationThreshold,
		},
		{
			name:     "bad category",
			draft:    types.AlertDraft{CityID: 1, Category: "hail_fall", Threshold: 5},
			wantCode: types.ErrCodeValidationInvalidCategory,
		},
		{
			name:     "missing city",
			draft:    types.AlertDraft{Category: types.CategoryRainfall, Threshold: 5},
			wantCode: types.ErrCodeValidationMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Create(ctx, &tt.draft)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, types.CodeOf(err))
		})
	}
}

func TestAlertRepositoryListOrder(t *testing.T) {
	sqlDB := newTestDB(t)
	clock := &fixedClock{now: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
	repo := NewAlertRepository(sqlDB, clock)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		a, err := repo.Create(ctx, &types.AlertDraft{CityID: 1, Category: types.CategoryRainfall, Threshold: 1})
		require.NoError(t, err)
		ids = append(ids, a.ID)
		clock.now = clock.now.Add(time.Minute)
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, a := range list {
		assert.Equal(t, ids[i], a.ID)
	}
}

func TestAlertRepositoryUpdate(t *testing.T) {
	repo := NewAlertRepository(newTestDB(t), nil)
	ctx := context.Background()

	created, err := repo.Create(ctx, &types.AlertDraft{CityID: 1, Category: types.CategorySnowfall, Threshold: 5})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, &types.AlertDraft{
		CityID:    1,
		Category:  types.CategoryRainfall,
		Threshold: 12.5,
		Notes:     "bring an umbrella",
	})
	require.NoError(t, err)
	assert.Equal(t, types.CategoryRainfall, updated.Category)
	assert.Equal(t, 12.5, updated.Threshold)
	assert.Equal(t, "bring an umbrella", updated.Notes)

	_, err = repo.Update(ctx, "no-such-alert", &types.AlertDraft{CityID: 1, Category: types.CategoryRainfall, Threshold: 1})
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeAlertNotFound, types.CodeOf(err))
}

func TestAlertRepositorySnoozeOverwriteAndClear(t *testing.T) {
	repo := NewAlertRepository(newTestDB(t), nil)
	ctx := context.Background()

	created, err := repo.Create(ctx, &types.AlertDraft{CityID: 1, Category: types.CategorySnowfall, Threshold: 5})
	require.NoError(t, err)

	first := time.Date(2026, 1, 11, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetSnoozedUntil(ctx, created.ID, &first))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SnoozedUntil)
	assert.Equal(t, first, *got.SnoozedUntil)

	// A second snooze replaces the first outright.
	second := time.Date(2026, 1, 18, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetSnoozedUntil(ctx, created.ID, &second))

	got, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, second, *got.SnoozedUntil)

	require.NoError(t, repo.SetSnoozedUntil(ctx, created.ID, nil))
	got, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SnoozedUntil)
}

func TestAlertRepositoryDelete(t *testing.T) {
	repo := NewAlertRepository(newTestDB(t), nil)
	ctx := context.Background()

	created, err := repo.Create(ctx, &types.AlertDraft{CityID: 1, Category: types.CategorySnowfall, Threshold: 5})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.GetByID(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeAlertNotFound, types.CodeOf(err))

	err = repo.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeAlertNotFound, types.CodeOf(err))
}
