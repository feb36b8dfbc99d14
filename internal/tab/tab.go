// Package tab assembles one execution context: a controller over the loaded
// projects, its own storage handle and its own broadcast subscription.
package tab

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/bidsync/internal/bidstore"
	"github.com/rpggio/bidsync/internal/domain/activity"
	"github.com/rpggio/bidsync/internal/domain/board"
	"github.com/rpggio/bidsync/internal/domain/project"
	"github.com/rpggio/bidsync/internal/repository"
	"github.com/rpggio/bidsync/internal/tabsync"
)

// ErrNoStorage indicates Options.Storage was not set.
var ErrNoStorage = errors.New("tab requires a storage handle")

// Options describes the resources a tab is opened with. Storage is this
// tab's own handle; Open joins the shared broadcast hub and may be nil when
// no channel exists. Activity may be nil.
type Options struct {
	Projects    []project.Project
	Storage     repository.KeyValueStore
	Open        tabsync.OpenFunc
	ChannelName string
	Activity    activity.Repository
	Clock       func() time.Time
	Logger      *slog.Logger
}

// Tab is a running execution context.
type Tab struct {
	ID       string
	Board    *board.Service
	Activity *activity.Service

	storage     repository.KeyValueStore
	broadcaster *tabsync.Broadcaster
	logger      *slog.Logger
	done        chan error
}

// Open hydrates a tab from storage and starts its inbound loop.
func Open(ctx context.Context, opts Options) (*Tab, error) {
	if opts.Storage == nil {
		return nil, ErrNoStorage
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	logger = logger.With("tab_id", id)

	broadcaster := tabsync.New(tabsync.Options{
		ChannelName: opts.ChannelName,
		Open:        opts.Open,
		Storage:     opts.Storage,
		Logger:      logger,
	})

	t := &Tab{
		ID:          id,
		storage:     opts.Storage,
		broadcaster: broadcaster,
		logger:      logger,
		done:        make(chan error, 1),
	}

	var recorder board.ActivityRecorder
	if opts.Activity != nil {
		t.Activity = activity.NewService(opts.Activity, id, logger)
		recorder = t.Activity
	}

	t.Board = board.NewService(opts.Projects, bidstore.New(opts.Storage, logger), broadcaster, recorder, logger).
		WithClock(opts.Clock)

	// Listen before reading storage so no write between the two is missed.
	// Events for bids already hydrated are deduplicated.
	broadcaster.Start(context.WithoutCancel(ctx))
	t.Board.Hydrate(ctx)

	go func() {
		t.done <- t.Board.Run(context.Background(), broadcaster.Events())
	}()

	logger.Info("tab opened", "projects", len(opts.Projects), "channel", broadcaster.ChannelActive())
	return t, nil
}

// ChannelActive reports whether this tab joined the broadcast channel.
func (t *Tab) ChannelActive() bool {
	return t.broadcaster.ChannelActive()
}

// Close stops the inbound loop and releases the storage handle when it is
// closable.
func (t *Tab) Close() error {
	if err := t.broadcaster.Close(); err != nil {
		return err
	}
	err := <-t.done
	t.done <- err

	if closer, ok := t.storage.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil {
			return cerr
		}
	}
	t.logger.Info("tab closed")
	return err
}
