package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/bidsync/internal/repository"
)

// DefaultPollInterval is how often a watcher looks for writes from other handles.
const DefaultPollInterval = 250 * time.Millisecond

// KVOptions tunes a KVStore handle.
type KVOptions struct {
	// MaxValueBytes rejects larger values with repository.ErrQuotaExceeded.
	// Zero means unlimited.
	MaxValueBytes int
	PollInterval  time.Duration
	Logger        *slog.Logger
}

// KVStore implements repository.KeyValueStore on the kv_entries table. Each
// KVStore is one handle; handles in other processes opening the same file
// see each other's writes through Watch.
type KVStore struct {
	db     *DB
	id     string
	opts   KVOptions
	logger *slog.Logger
}

// NewKVStore creates a handle with a fresh writer identity.
func NewKVStore(db *DB, opts KVOptions) *KVStore {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &KVStore{db: db, id: uuid.NewString(), opts: opts, logger: logger}
}

// ID returns the writer identity recorded with this handle's writes.
func (s *KVStore) ID() string {
	return s.id
}

// Get returns the value stored under key
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts value under key and bumps the store-wide version.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return repository.ErrInvalidInput
	}
	if s.opts.MaxValueBytes > 0 && len(value) > s.opts.MaxValueBytes {
		return repository.ErrQuotaExceeded
	}

	query := `
		INSERT INTO kv_entries (key, value, writer, version, updated_at)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(version), 0) + 1 FROM kv_entries), ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			writer = excluded.writer,
			version = excluded.version,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, s.id, time.Now()); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, mapWriteError(err))
	}
	return nil
}

type kvRow struct {
	key     string
	value   string
	writer  string
	version int64
}

func (s *KVStore) rowsSince(ctx context.Context, version int64) ([]kvRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, writer, version FROM kv_entries WHERE version > ? ORDER BY version`, version)
	if err != nil {
		return nil, fmt.Errorf("failed to poll kv entries: %w", err)
	}
	defer rows.Close()

	var out []kvRow
	for rows.Next() {
		var r kvRow
		if err := rows.Scan(&r.key, &r.value, &r.writer, &r.version); err != nil {
			return nil, fmt.Errorf("failed to scan kv entry: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating kv rows: %w", err)
	}
	return out, nil
}

// Watch polls for writes made by other handles. Several writes to one key
// between polls collapse into a single change carrying the latest value.
func (s *KVStore) Watch(ctx context.Context) (<-chan repository.Change, error) {
	baseline, err := s.rowsSince(ctx, 0)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]string, len(baseline))
	var version int64
	for _, r := range baseline {
		seen[r.key] = r.value
		version = r.version
	}

	out := make(chan repository.Change)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.opts.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			rows, err := s.rowsSince(ctx, version)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("storage watch poll failed", "error", err)
				continue
			}
			for _, r := range rows {
				version = r.version
				old := seen[r.key]
				seen[r.key] = r.value
				if r.writer == s.id {
					continue
				}
				select {
				case out <- repository.Change{Key: r.key, OldValue: old, NewValue: r.value}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
