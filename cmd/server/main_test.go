package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/bidsync/internal/domain/bid"
	"github.com/rpggio/bidsync/internal/domain/project"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func useFileDB(t *testing.T) {
	t.Helper()
	t.Setenv("BIDSYNC_CONFIG_PATH", "")
	t.Setenv("BIDSYNC_STORAGE_BACKEND", "sqlite")
	t.Setenv("BIDSYNC_DB_PATH", filepath.Join(t.TempDir(), "data", "bidsync.db"))
	t.Setenv("BIDSYNC_SOURCE_URL", "")
	t.Setenv("BIDSYNC_LOG_LEVEL", "error")
}

func TestCLI_BidPersistsAcrossInvocations(t *testing.T) {
	useFileDB(t)

	out, err := run(t, "bid", "p1", "Alice", "150")
	require.NoError(t, err)
	require.Contains(t, out, "Alice bid 150.00 on p1")

	_, err = run(t, "bid", "p1", "Bob", "120")
	require.ErrorContains(t, err, "bid rejected")

	out, err = run(t, "projects", "--json")
	require.NoError(t, err)
	var views []project.View
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.NotEmpty(t, views)
	require.Equal(t, "p1", views[0].ID)
	require.NotNil(t, views[0].HighestBid)
	require.Equal(t, "Alice", views[0].HighestBid.Bidder)
}

func TestCLI_BidErrors(t *testing.T) {
	useFileDB(t)

	_, err := run(t, "bid", "p1", "Alice", "lots")
	require.ErrorContains(t, err, "invalid amount")

	_, err = run(t, "bid", "nope", "Alice", "10")
	require.ErrorContains(t, err, "project not found")

	_, err = run(t, "bid", "p1")
	require.Error(t, err)
}

func TestCLI_InvalidConfig(t *testing.T) {
	useFileDB(t)
	t.Setenv("BIDSYNC_STORAGE_BACKEND", "floppy")

	_, err := run(t, "projects")
	require.ErrorContains(t, err, "config error")
}

func TestWriteViews(t *testing.T) {
	closeAt := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	now := closeAt.Add(-time.Hour)
	views := []project.View{
		project.NewView(project.Project{ID: "p1", Title: "Landing", BidClose: closeAt},
			[]bid.Bid{{Bidder: "Bob", Amount: 200, Timestamp: now}}, now),
		project.NewView(project.Project{ID: "p2", Title: "Export", BidClose: closeAt}, nil, now),
	}

	var buf bytes.Buffer
	require.NoError(t, writeViews(&buf, views))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[1], "200.00 (Bob)")
	require.Contains(t, lines[1], "open")
	require.Contains(t, lines[2], "-")
}

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, "DEBUG", parseLogLevel("debug").String())
	require.Equal(t, "WARN", parseLogLevel("WARN").String())
	require.Equal(t, "INFO", parseLogLevel("verbose").String())
}
