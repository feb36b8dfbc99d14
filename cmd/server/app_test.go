package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/bidsync/internal/config"
	"github.com/stretchr/testify/require"
)

func memoryApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Backend = "memory"
	cfg.Source.URL = ""

	app, err := newApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestApp_CloseTab(t *testing.T) {
	ctx := context.Background()
	app := memoryApp(t)

	first, err := app.OpenTab(ctx)
	require.NoError(t, err)
	second, err := app.OpenTab(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, app.openTabs())

	require.NoError(t, app.CloseTab(first))
	require.Equal(t, 1, app.openTabs())
	require.NoError(t, app.CloseTab(first))
	require.Equal(t, 1, app.openTabs())

	_, err = second.Board.PlaceBid(ctx, "p1", "Alice", 150)
	require.NoError(t, err)
}

func TestApp_SessionEndClosesTab(t *testing.T) {
	ctx := context.Background()
	app := memoryApp(t)

	tb, err := app.OpenTab(ctx)
	require.NoError(t, err)
	server := newMCPServer(tb, app.logger, app.tabCloser(tb))

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	require.Equal(t, 1, app.openTabs())

	require.NoError(t, session.Close())
	require.Eventually(t, func() bool { return app.openTabs() == 0 }, 3*time.Second, 10*time.Millisecond)
}
