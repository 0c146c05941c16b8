package app

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"vision-inspector/internal/domain/entity"
	"vision-inspector/internal/infrastructure/storage"
)

func TestUserService_SelectInspectionAndCancel(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.SelectInspection(ctx, 1, 10, 7)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, user.State)
	require.Equal(t, int64(7), user.InspectionID)

	user, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
	require.Equal(t, int64(7), user.InspectionID)
}

func TestUserService_SetState(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.SetState(ctx, 2, 20, entity.StateProcessing)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, user.State)
	require.Equal(t, int64(20), user.ChatID)

	stored, err := repo.Get(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, stored.State)
}

func TestUserService_SetStateKeepsSession(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	_, err := svc.SelectInspection(ctx, 4, 40, 9)
	require.NoError(t, err)
	_, err = svc.SetThreshold(ctx, 4, 40, 0.6)
	require.NoError(t, err)

	user, err := svc.SetState(ctx, 4, 40, entity.StateProcessing)
	require.NoError(t, err)
	require.Equal(t, int64(9), user.InspectionID)
	require.Equal(t, 0.6, *user.Threshold)

	// Возвращённая сессия является копией.
	user.State = entity.StateMainMenu
	*user.Threshold = 0.1
	stored, err := repo.Get(ctx, 4, 40)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, stored.State)
	require.Equal(t, 0.6, *stored.Threshold)
}

func TestUserService_SetThreshold(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.SetThreshold(ctx, 3, 30, 0.35)
	require.NoError(t, err)
	require.NotNil(t, user.Threshold)
	require.Equal(t, 0.35, *user.Threshold)

	user, err = svc.Get(ctx, 3, 30)
	require.NoError(t, err)
	require.Equal(t, 0.35, *user.Threshold)
}

func TestUserService_OutOfRangeThresholdFallsBackToDefault(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	_, err := svc.SetThreshold(ctx, 5, 50, 0.35)
	require.NoError(t, err)

	for _, v := range []float64{1.5, -0.2, math.NaN()} {
		user, err := svc.SetThreshold(ctx, 5, 50, v)
		require.NoError(t, err)
		require.Nil(t, user.Threshold)
		require.Equal(t, DefaultThreshold, ResolveThreshold(user.Threshold, DefaultThreshold))
	}

	user, err := svc.Get(ctx, 5, 50)
	require.NoError(t, err)
	require.Nil(t, user.Threshold)
}
