package project_test

import (
	"testing"
	"time"

	"github.com/rpggio/bidsync/internal/domain/bid"
	"github.com/rpggio/bidsync/internal/domain/project"
	"github.com/stretchr/testify/require"
)

func TestProject_StatusAt(t *testing.T) {
	closeAt := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	p := project.Project{ID: "p1", BidClose: closeAt}

	require.Equal(t, project.StatusOpen, p.StatusAt(closeAt.Add(-time.Nanosecond)))
	require.Equal(t, project.StatusClosed, p.StatusAt(closeAt))
	require.Equal(t, project.StatusClosed, p.StatusAt(closeAt.Add(time.Hour)))
}

func TestProject_Validate(t *testing.T) {
	closeAt := time.Now().Add(time.Hour)

	require.NoError(t, project.Project{ID: "p1", BidClose: closeAt, BudgetMin: 1, BudgetMax: 2}.Validate())
	require.ErrorIs(t, project.Project{BidClose: closeAt}.Validate(), project.ErrInvalidProject)
	require.ErrorIs(t, project.Project{ID: "p1"}.Validate(), project.ErrInvalidProject)
	require.ErrorIs(t, project.Project{ID: "p1", BidClose: closeAt, BudgetMin: 5, BudgetMax: 2}.Validate(), project.ErrInvalidProject)
}

func TestNewView(t *testing.T) {
	now := time.Now()
	p := project.Project{ID: "p1", BidClose: now.Add(time.Hour)}

	empty := project.NewView(p, nil, now)
	require.Nil(t, empty.HighestBid)
	require.NotNil(t, empty.Bids)
	require.Equal(t, project.StatusOpen, empty.Status)

	bids := []bid.Bid{
		{Bidder: "Alice", Amount: 150, Timestamp: now},
		{Bidder: "Bob", Amount: 200, Timestamp: now.Add(time.Second)},
	}
	v := project.NewView(p, bids, now)
	require.NotNil(t, v.HighestBid)
	require.Equal(t, "Bob", v.HighestBid.Bidder)

	bids[1].Amount = 1
	require.Equal(t, float64(200), v.Bids[1].Amount)
}

func TestFallback(t *testing.T) {
	now := time.Now()
	projects := project.Fallback(now)
	require.NotEmpty(t, projects)

	seen := map[string]bool{}
	for _, p := range projects {
		require.NoError(t, p.Validate())
		require.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
		require.Equal(t, project.StatusOpen, p.StatusAt(now))
	}
}
