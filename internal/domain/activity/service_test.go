package activity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/bidsync/internal/domain/activity"
	"github.com/rpggio/bidsync/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_LogAndList(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	entry := &activity.Entry{
		ProjectID: "p1",
		Type:      activity.TypeBidPlaced,
		Summary:   "Alice bid 150",
	}

	repo.On("Log", ctx, entry).Return(nil)
	repo.On("List", ctx, activity.ListOptions{ProjectID: "p1"}).Return([]activity.Entry{*entry}, nil)

	svc := activity.NewService(repo, "tab-1", nil)
	require.NoError(t, svc.LogActivity(ctx, entry))
	require.Equal(t, "tab-1", entry.TabID)
	require.False(t, entry.CreatedAt.IsZero())

	entries, err := svc.GetRecentActivity(ctx, activity.ListOptions{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestActivityService_RejectsIncompleteEntry(t *testing.T) {
	svc := activity.NewService(&mocks.ActivityRepository{}, "tab-1", nil)

	require.ErrorIs(t, svc.LogActivity(context.Background(), nil), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.LogActivity(context.Background(), &activity.Entry{Type: activity.TypeBidPlaced}), activity.ErrInvalidInput)
}

func TestActivityService_RecordSwallowsErrors(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	repo.On("Log", ctx, mock.Anything).Return(errors.New("disk full"))

	svc := activity.NewService(repo, "tab-1", nil)
	require.NotPanics(t, func() {
		svc.Record(ctx, activity.Entry{ProjectID: "p1", Type: activity.TypeBidReceived})
	})
	repo.AssertNumberOfCalls(t, "Log", 1)
}
