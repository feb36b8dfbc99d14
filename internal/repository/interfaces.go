package repository

import (
	"context"

	"github.com/rpggio/bidsync/internal/domain/activity"
)

// KeyValueStore is one execution context's handle on a storage origin shared
// by every tab of the application.
type KeyValueStore interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes value atomically. Other handles on the same origin observe the
	// write through Watch; the writing handle does not.
	Set(ctx context.Context, key, value string) error
	// Watch streams changes made by other handles until ctx is done.
	Watch(ctx context.Context) (<-chan Change, error)
}

// Change describes a write observed from another handle.
type Change struct {
	Key      string
	OldValue string
	NewValue string
}

// ActivityRepository manages activity log persistence
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.Entry) error
	List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}
