// Package source fetches the project list a tab starts with. The fetch is
// fail-soft: any problem yields the built-in fallback projects.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	fastshot "github.com/opus-domini/fast-shot"
	"github.com/rpggio/bidsync/internal/domain/project"
)

const (
	DefaultTimeout = 10 * time.Second
	maxAttempts    = 3
	retryInterval  = 200 * time.Millisecond
)

var (
	// ErrEmptyList indicates the source answered with no projects.
	ErrEmptyList = errors.New("project source returned no projects")
	// ErrBadResponse indicates a non-success status or undecodable body.
	ErrBadResponse = errors.New("project source bad response")
)

// Options configures a Loader. An empty URL always yields the fallback.
type Options struct {
	URL     string
	Timeout time.Duration
	Clock   func() time.Time
	Logger  *slog.Logger
}

// Loader reads projects from an HTTP endpoint returning a JSON array.
type Loader struct {
	opts   Options
	logger *slog.Logger
}

// NewLoader creates a loader.
func NewLoader(opts Options) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{opts: opts, logger: logger}
}

// Load returns the fetched projects, or project.Fallback when the fetch
// fails, the body is malformed, any entry is invalid, or the list is empty.
func (l *Loader) Load(ctx context.Context) []project.Project {
	if strings.TrimSpace(l.opts.URL) == "" {
		l.logger.Info("no project source configured, using fallback projects")
		return project.Fallback(l.opts.Clock())
	}

	projects, err := l.Fetch(ctx)
	if err != nil {
		l.logger.Warn("loading projects failed, using fallback projects", "url", l.opts.URL, "error", err)
		return project.Fallback(l.opts.Clock())
	}
	l.logger.Info("loaded projects", "url", l.opts.URL, "count", len(projects))
	return projects
}

// Fetch performs the request and returns its errors instead of falling back.
func (l *Loader) Fetch(ctx context.Context) ([]project.Project, error) {
	base, path, err := splitURL(l.opts.URL)
	if err != nil {
		return nil, err
	}

	client := fastshot.NewClient(base).
		Config().SetTimeout(l.opts.Timeout).
		Config().SetFollowRedirects(true).
		Build()

	resp, err := client.GET(path).
		Context().Set(ctx).
		Header().Add("Accept", "application/json").
		Retry().SetExponentialBackoff(retryInterval, maxAttempts, 2.0).
		Send()
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body().Close()

	if resp.Status().IsError() {
		msg, _ := resp.Body().AsString()
		return nil, fmt.Errorf("%w: %s", ErrBadResponse, strings.TrimSpace(msg))
	}

	var records []record
	if err := resp.Body().AsJSON(&records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	return decodeProjects(records)
}

func splitURL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid project source url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("invalid project source url %q", raw)
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return u.Scheme + "://" + u.Host, path, nil
}
