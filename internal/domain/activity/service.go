package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service records and lists one tab's activity.
type Service struct {
	repo   Repository
	tabID  string
	logger *slog.Logger
}

// NewService creates a new activity service scoped to a tab.
func NewService(repo Repository, tabID string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tabID: tabID, logger: logger}
}

// Record logs an entry with the tab ID and current timestamp if missing.
// Failures are logged and swallowed; the activity log never blocks bidding.
func (s *Service) Record(ctx context.Context, entry Entry) {
	if err := s.LogActivity(ctx, &entry); err != nil {
		s.logger.Warn("activity not recorded", "project_id", entry.ProjectID, "type", entry.Type, "error", err)
	}
}

// LogActivity logs an entry, returning persistence errors to the caller.
func (s *Service) LogActivity(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.ProjectID == "" || entry.Type == "" {
		return ErrInvalidInput
	}
	if entry.TabID == "" {
		entry.TabID = s.tabID
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// GetRecentActivity lists activity entries with filtering.
func (s *Service) GetRecentActivity(ctx context.Context, opts ListOptions) ([]Entry, error) {
	return s.repo.List(ctx, opts)
}
