package tabsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/bidsync/internal/bidstore"
	"github.com/rpggio/bidsync/internal/broadcast"
	"github.com/rpggio/bidsync/internal/domain/bid"
	"github.com/rpggio/bidsync/internal/memstore"
	"github.com/rpggio/bidsync/internal/repository"
	"github.com/rpggio/bidsync/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var stamp = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func hubOpener(hub *broadcast.Hub) OpenFunc {
	return func(name string) (Channel, error) {
		c, err := hub.Open(name)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

func nextEvent(t *testing.T, b *Broadcaster) bid.Event {
	t.Helper()
	select {
	case ev, ok := <-b.Events():
		require.True(t, ok, "events closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return bid.Event{}
	}
}

func requireNoEvent(t *testing.T, b *Broadcaster) {
	t.Helper()
	select {
	case ev := <-b.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEnvelope_RoundTrip(t *testing.T) {
	placed := bid.Bid{Bidder: "Alice", Amount: 150, Timestamp: stamp}

	data, err := EncodeEnvelope("p1", placed)
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"new-bid","projectId":"p1","bid":{"bidder":"Alice","amount":150,"timestamp":"2026-03-01T12:00:00Z"}}`, string(data))

	ev, err := DecodeEnvelope(data)
	require.NoError(t, err)
	require.Equal(t, bid.KindDelta, ev.Kind)
	require.Equal(t, bid.SourceChannel, ev.Source)
	require.Equal(t, "p1", ev.ProjectID)
	require.True(t, placed.Same(ev.Bid))
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":      `{`,
		"wrong type":    `{"type":"chat","projectId":"p1","bid":{"bidder":"A","amount":1,"timestamp":"2026-03-01T12:00:00Z"}}`,
		"no project":    `{"type":"new-bid","bid":{"bidder":"A","amount":1,"timestamp":"2026-03-01T12:00:00Z"}}`,
		"no bid":        `{"type":"new-bid","projectId":"p1"}`,
		"blank bidder":  `{"type":"new-bid","projectId":"p1","bid":{"bidder":" ","amount":1,"timestamp":"2026-03-01T12:00:00Z"}}`,
		"negative":      `{"type":"new-bid","projectId":"p1","bid":{"bidder":"A","amount":-1,"timestamp":"2026-03-01T12:00:00Z"}}`,
		"no timestamp":  `{"type":"new-bid","projectId":"p1","bid":{"bidder":"A","amount":1}}`,
		"amount string": `{"type":"new-bid","projectId":"p1","bid":{"bidder":"A","amount":"1","timestamp":"2026-03-01T12:00:00Z"}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(raw))
			require.ErrorIs(t, err, ErrMalformedMessage)
		})
	}
}

func TestDecodeStorageChange(t *testing.T) {
	a := bid.Bid{Bidder: "Alice", Amount: 1, Timestamp: stamp}
	raw, err := bidstore.Encode(bid.Histories{"p2": {a}, "p1": {a}})
	require.NoError(t, err)

	events, err := DecodeStorageChange(repository.Change{Key: bidstore.StorageKey, NewValue: raw})
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "p1", events[0].ProjectID)
	require.Equal(t, "p2", events[1].ProjectID)
	require.Equal(t, bid.KindFullSync, events[0].Kind)
	require.Equal(t, bid.SourceStorage, events[0].Source)

	events, err = DecodeStorageChange(repository.Change{Key: "unrelated", NewValue: "{"})
	require.NoError(t, err)
	require.Empty(t, events)

	_, err = DecodeStorageChange(repository.Change{Key: bidstore.StorageKey, NewValue: "{"})
	require.ErrorIs(t, err, ErrMalformedMessage)
}

func TestBroadcaster_DeltaReachesOtherTabsAndSelf(t *testing.T) {
	ctx := context.Background()
	hub := broadcast.NewHub()
	defer hub.Close()

	sender := New(Options{Open: hubOpener(hub)})
	receiver := New(Options{Open: hubOpener(hub)})
	sender.Start(ctx)
	receiver.Start(ctx)
	defer sender.Close()
	defer receiver.Close()
	require.True(t, sender.ChannelActive())

	placed := bid.Bid{Bidder: "Alice", Amount: 150, Timestamp: stamp}
	sender.Publish(ctx, "p1", placed)

	remote := nextEvent(t, receiver)
	require.Equal(t, bid.SourceChannel, remote.Source)
	require.True(t, placed.Same(remote.Bid))

	local := nextEvent(t, sender)
	require.Equal(t, bid.SourceLocal, local.Source)
	require.Equal(t, "p1", local.ProjectID)
	requireNoEvent(t, sender)
}

func TestBroadcaster_DropsMalformedAndContinues(t *testing.T) {
	ctx := context.Background()
	hub := broadcast.NewHub()
	defer hub.Close()

	rogue, err := hub.Open(DefaultChannelName)
	require.NoError(t, err)
	receiver := New(Options{Open: hubOpener(hub)})
	receiver.Start(ctx)
	defer receiver.Close()

	require.NoError(t, rogue.Post(ctx, []byte(`garbage`)))
	good, err := EncodeEnvelope("p1", bid.Bid{Bidder: "Bob", Amount: 5, Timestamp: stamp})
	require.NoError(t, err)
	require.NoError(t, rogue.Post(ctx, good))

	ev := nextEvent(t, receiver)
	require.Equal(t, "Bob", ev.Bid.Bidder)
}

func TestBroadcaster_StorageNotifications(t *testing.T) {
	ctx := context.Background()
	origin := memstore.New(0)
	writer := bidstore.New(origin.Open(), nil)

	receiver := New(Options{Storage: origin.Open()})
	receiver.Start(ctx)
	defer receiver.Close()
	require.False(t, receiver.ChannelActive())

	a := bid.Bid{Bidder: "Alice", Amount: 150, Timestamp: stamp}
	writer.Save(ctx, bid.Histories{"p1": {a}})

	ev := nextEvent(t, receiver)
	require.Equal(t, bid.KindFullSync, ev.Kind)
	require.Equal(t, "p1", ev.ProjectID)
	require.Len(t, ev.Bids, 1)
}

func TestBroadcaster_DegradesWhenChannelUnavailable(t *testing.T) {
	ctx := context.Background()
	failing := func(string) (Channel, error) { return nil, errors.New("unsupported") }

	b := New(Options{Open: failing})
	b.Start(ctx)
	defer b.Close()
	require.False(t, b.ChannelActive())

	b.Publish(ctx, "p1", bid.Bid{Bidder: "Alice", Amount: 1, Timestamp: stamp})
	ev := nextEvent(t, b)
	require.Equal(t, bid.SourceLocal, ev.Source)
}

func TestBroadcaster_WatchFailureIsSoft(t *testing.T) {
	ctx := context.Background()
	kv := &mocks.KeyValueStore{}
	kv.On("Watch", mock.Anything).Return(nil, errors.New("no watch"))

	b := New(Options{Storage: kv})
	require.NotPanics(t, func() { b.Start(ctx) })
	require.NoError(t, b.Close())
}

func TestBroadcaster_CloseEndsEvents(t *testing.T) {
	hub := broadcast.NewHub()
	defer hub.Close()

	b := New(Options{Open: hubOpener(hub)})
	b.Start(context.Background())
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, open := <-b.Events()
	require.False(t, open)

	require.NotPanics(t, func() {
		b.Publish(context.Background(), "p1", bid.Bid{Bidder: "A", Amount: 1, Timestamp: stamp})
	})
}
