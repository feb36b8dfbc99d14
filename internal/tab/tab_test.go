package tab_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/bidsync/internal/bidstore"
	"github.com/rpggio/bidsync/internal/broadcast"
	"github.com/rpggio/bidsync/internal/domain/activity"
	"github.com/rpggio/bidsync/internal/domain/bid"
	"github.com/rpggio/bidsync/internal/domain/board"
	"github.com/rpggio/bidsync/internal/domain/project"
	"github.com/rpggio/bidsync/internal/memstore"
	"github.com/rpggio/bidsync/internal/sqlite"
	"github.com/rpggio/bidsync/internal/tab"
	"github.com/rpggio/bidsync/internal/tabsync"
	"github.com/stretchr/testify/require"
)

func opener(hub *broadcast.Hub) tabsync.OpenFunc {
	return func(name string) (tabsync.Channel, error) {
		c, err := hub.Open(name)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

func openTab(t *testing.T, opts tab.Options) *tab.Tab {
	t.Helper()
	if opts.Projects == nil {
		opts.Projects = project.Fallback(time.Now())
	}
	tb, err := tab.Open(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tb.Close() })
	return tb
}

func highest(t *testing.T, tb *tab.Tab, projectID string) func() float64 {
	return func() float64 {
		view, err := tb.Board.Project(projectID)
		require.NoError(t, err)
		return bid.HighestAmount(view.Bids)
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 3*time.Second, 10*time.Millisecond)
}

func TestTab_RequiresStorage(t *testing.T) {
	_, err := tab.Open(context.Background(), tab.Options{})
	require.ErrorIs(t, err, tab.ErrNoStorage)
}

func TestTabs_ConvergeOverChannel(t *testing.T) {
	ctx := context.Background()
	origin := memstore.New(0)
	hub := broadcast.NewHub()
	defer hub.Close()

	a := openTab(t, tab.Options{Storage: origin.Open(), Open: opener(hub)})
	b := openTab(t, tab.Options{Storage: origin.Open(), Open: opener(hub)})
	require.True(t, a.ChannelActive())

	_, err := a.Board.PlaceBid(ctx, "p1", "Alice", 150)
	require.NoError(t, err)
	eventually(t, func() bool { return highest(t, b, "p1")() == 150 })

	_, err = b.Board.PlaceBid(ctx, "p1", "Bob", 200)
	require.NoError(t, err)
	eventually(t, func() bool { return highest(t, a, "p1")() == 200 })

	_, err = a.Board.PlaceBid(ctx, "p1", "Alice", 180)
	require.ErrorIs(t, err, board.ErrInvalidBid)

	viewA, err := a.Board.Project("p1")
	require.NoError(t, err)
	viewB, err := b.Board.Project("p1")
	require.NoError(t, err)
	require.Len(t, viewA.Bids, 2)
	require.Len(t, viewB.Bids, 2)
	require.Equal(t, "Bob", viewA.HighestBid.Bidder)
	require.Equal(t, "Bob", viewB.HighestBid.Bidder)
}

func TestTabs_ConvergeOverStorageWithoutChannel(t *testing.T) {
	ctx := context.Background()
	origin := memstore.New(0)

	a := openTab(t, tab.Options{Storage: origin.Open()})
	b := openTab(t, tab.Options{Storage: origin.Open()})
	require.False(t, a.ChannelActive())

	_, err := a.Board.PlaceBid(ctx, "p2", "Carol", 900)
	require.NoError(t, err)
	eventually(t, func() bool { return highest(t, b, "p2")() == 900 })

	_, err = b.Board.PlaceBid(ctx, "p2", "Dan", 950)
	require.NoError(t, err)
	eventually(t, func() bool {
		view, err := a.Board.Project("p2")
		require.NoError(t, err)
		return len(view.Bids) == 2
	})
}

func TestTab_HydratesFromStorage(t *testing.T) {
	ctx := context.Background()
	origin := memstore.New(0)

	first := openTab(t, tab.Options{Storage: origin.Open()})
	_, err := first.Board.PlaceBid(ctx, "p1", "Alice", 150)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	reopened := openTab(t, tab.Options{Storage: origin.Open()})
	view, err := reopened.Board.Project("p1")
	require.NoError(t, err)
	require.Len(t, view.Bids, 1)
	require.Equal(t, "Alice", view.HighestBid.Bidder)
}

func TestTab_StorageQuotaKeepsBidInMemory(t *testing.T) {
	ctx := context.Background()
	origin := memstore.New(8)

	tb := openTab(t, tab.Options{Storage: origin.Open()})
	_, err := tb.Board.PlaceBid(ctx, "p1", "Alice", 150)
	require.NoError(t, err)
	require.Equal(t, float64(150), highest(t, tb, "p1")())

	other := origin.Open()
	_, ok, err := other.Get(ctx, bidstore.StorageKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTabs_ConvergeOverSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	kvOpts := sqlite.KVOptions{PollInterval: 20 * time.Millisecond}
	a := openTab(t, tab.Options{
		Storage:  sqlite.NewKVStore(db, kvOpts),
		Activity: sqlite.NewActivityRepository(db),
	})
	b := openTab(t, tab.Options{
		Storage:  sqlite.NewKVStore(db, kvOpts),
		Activity: sqlite.NewActivityRepository(db),
	})

	_, err = a.Board.PlaceBid(ctx, "p3", "Erin", 2500)
	require.NoError(t, err)
	eventually(t, func() bool { return highest(t, b, "p3")() == 2500 })

	placed, err := a.Activity.GetRecentActivity(ctx, activity.ListOptions{ProjectID: "p3", TabID: a.ID})
	require.NoError(t, err)
	require.Len(t, placed, 1)
	require.Equal(t, activity.TypeBidPlaced, placed[0].Type)

	eventually(t, func() bool {
		received, err := b.Activity.GetRecentActivity(ctx, activity.ListOptions{ProjectID: "p3", TabID: b.ID})
		require.NoError(t, err)
		return len(received) == 1 && received[0].Type == activity.TypeHistoryResynced
	})
}

func TestTabs_SQLiteSaveAdoptsUnseenWrites(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	// The watchers never poll, so only the save path can carry B's bid to A.
	kvOpts := sqlite.KVOptions{PollInterval: time.Hour}
	a := openTab(t, tab.Options{Storage: sqlite.NewKVStore(db, kvOpts)})
	b := openTab(t, tab.Options{Storage: sqlite.NewKVStore(db, kvOpts)})

	_, err = b.Board.PlaceBid(ctx, "p2", "Dan", 1950)
	require.NoError(t, err)
	_, err = a.Board.PlaceBid(ctx, "p1", "Alice", 150)
	require.NoError(t, err)

	view, err := a.Board.Project("p2")
	require.NoError(t, err)
	require.Len(t, view.Bids, 1)
	require.Equal(t, "Dan", view.HighestBid.Bidder)

	_, err = a.Board.PlaceBid(ctx, "p2", "Alice", 1900)
	require.ErrorIs(t, err, board.ErrInvalidBid)

	stored := bidstore.New(sqlite.NewKVStore(db, kvOpts), nil).Load(ctx)
	require.Len(t, stored["p1"], 1)
	require.Len(t, stored["p2"], 1)
}
