package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/rpggio/bidsync/internal/broadcast"
	"github.com/rpggio/bidsync/internal/config"
	"github.com/rpggio/bidsync/internal/domain/activity"
	"github.com/rpggio/bidsync/internal/domain/project"
	"github.com/rpggio/bidsync/internal/memstore"
	"github.com/rpggio/bidsync/internal/repository"
	"github.com/rpggio/bidsync/internal/source"
	"github.com/rpggio/bidsync/internal/sqlite"
	"github.com/rpggio/bidsync/internal/tab"
	"github.com/rpggio/bidsync/internal/tabsync"
)

// App holds the origin resources every tab of this process shares: the
// storage origin, the broadcast hub and the project list.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	db         *sqlite.DB
	origin     *memstore.Origin
	hub        *broadcast.Hub
	activities activity.Repository
	projects   []project.Project

	mu   sync.Mutex
	tabs []*tab.Tab
}

// newApp opens the storage origin and loads the projects once.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger, hub: broadcast.NewHub()}

	dbPath := cfg.DB.Path
	if strings.EqualFold(cfg.Storage.Backend, "memory") {
		a.origin = memstore.New(cfg.Storage.MaxValueBytes)
		dbPath = ":memory:"
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	a.db = db
	a.activities = sqlite.NewActivityRepository(db)

	a.projects = source.NewLoader(source.Options{
		URL:     cfg.Source.URL,
		Timeout: cfg.Source.Timeout,
		Logger:  logger,
	}).Load(ctx)

	logger.Info("origin ready", "backend", cfg.Storage.Backend, "db", dbPath, "projects", len(a.projects))
	return a, nil
}

func (a *App) storage() repository.KeyValueStore {
	if a.origin != nil {
		return a.origin.Open()
	}
	return sqlite.NewKVStore(a.db, sqlite.KVOptions{
		MaxValueBytes: a.cfg.Storage.MaxValueBytes,
		PollInterval:  a.cfg.Storage.PollInterval,
		Logger:        a.logger,
	})
}

func (a *App) openChannel(name string) (tabsync.Channel, error) {
	c, err := a.hub.Open(name)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// OpenTab starts a new tab on the shared origin. The app closes it on Close.
func (a *App) OpenTab(ctx context.Context) (*tab.Tab, error) {
	t, err := tab.Open(ctx, tab.Options{
		Projects:    a.projects,
		Storage:     a.storage(),
		Open:        a.openChannel,
		ChannelName: a.cfg.Broadcast.Channel,
		Activity:    a.activities,
		Logger:      a.logger,
	})
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.tabs = append(a.tabs, t)
	a.mu.Unlock()
	return t, nil
}

// CloseTab closes one tab opened by OpenTab. Tabs already closed are ignored.
func (a *App) CloseTab(t *tab.Tab) error {
	a.mu.Lock()
	found := false
	for i, open := range a.tabs {
		if open == t {
			a.tabs = append(a.tabs[:i], a.tabs[i+1:]...)
			found = true
			break
		}
	}
	a.mu.Unlock()

	if !found {
		return nil
	}
	return t.Close()
}

// tabCloser returns a hook closing t once its client session has ended.
func (a *App) tabCloser(t *tab.Tab) func() {
	return func() {
		if err := a.CloseTab(t); err != nil {
			a.logger.Warn("closing tab after session end failed", "tab_id", t.ID, "error", err)
			return
		}
		a.logger.Info("session ended, tab closed", "tab_id", t.ID)
	}
}

// openTabs reports how many tabs are still running.
func (a *App) openTabs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tabs)
}

// Close closes every tab, then the shared resources.
func (a *App) Close() error {
	a.mu.Lock()
	tabs := a.tabs
	a.tabs = nil
	a.mu.Unlock()

	var errs []error
	for _, t := range tabs {
		if err := t.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close tab %s: %w", t.ID, err))
		}
	}
	a.hub.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
