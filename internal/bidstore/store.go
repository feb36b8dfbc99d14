// Package bidstore persists every project's bid history under one namespaced
// key of the shared storage origin.
package bidstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/bidsync/internal/domain/bid"
	"github.com/rpggio/bidsync/internal/repository"
)

// StorageKey is shared by all tabs of the application.
const StorageKey = "bidsync:v1:bids"

var (
	// ErrStorageUnavailable wraps read and write failures of the origin.
	ErrStorageUnavailable = errors.New("bid storage unavailable")
	// ErrMalformedHistories indicates the stored value could not be decoded.
	ErrMalformedHistories = errors.New("malformed bid histories")
)

// Store is the fail-soft persistence layer. No method returns an error: the
// in-memory state of the calling tab stays authoritative when storage fails.
type Store struct {
	kv     repository.KeyValueStore
	logger *slog.Logger
}

// New creates a store over a key-value handle.
func New(kv repository.KeyValueStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger}
}

// Load returns the stored histories, or an empty mapping when the value is
// absent, unreadable, or corrupt.
func (s *Store) Load(ctx context.Context) bid.Histories {
	histories, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("loading bids failed, starting empty", "key", StorageKey, "error", err)
		return bid.Histories{}
	}
	return histories
}

func (s *Store) read(ctx context.Context) (bid.Histories, error) {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if !ok {
		return bid.Histories{}, nil
	}
	return Decode(raw)
}

// Save writes histories merged with whatever another tab stored since this
// tab last read, and returns the merged histories so the caller can adopt
// bids it had not seen yet. Stored order wins and bids only this tab knows
// are appended, which narrows the last-write-wins window to the gap between
// the read and the write. A failed write is logged and not retried.
func (s *Store) Save(ctx context.Context, histories bid.Histories) bid.Histories {
	stored, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("re-reading bids before save failed, writing local view only", "key", StorageKey, "error", err)
		stored = bid.Histories{}
	}

	merged := bid.MergeHistories(stored, histories)
	raw, err := Encode(merged)
	if err != nil {
		s.logger.Error("encoding bids failed", "error", err)
		return merged
	}

	if err := s.kv.Set(ctx, StorageKey, raw); err != nil {
		s.logger.Warn("saving bids failed", "key", StorageKey, "bytes", len(raw),
			"error", fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
	}
	return merged
}

// Encode renders histories as the stored JSON object.
func Encode(histories bid.Histories) (string, error) {
	if histories == nil {
		histories = bid.Histories{}
	}
	data, err := json.Marshal(histories)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a stored value. Every bid must carry a bidder, a positive
// amount and a timestamp; one bad bid rejects the whole value.
func Decode(raw string) (bid.Histories, error) {
	if strings.TrimSpace(raw) == "" {
		return bid.Histories{}, nil
	}

	var histories bid.Histories
	if err := json.Unmarshal([]byte(raw), &histories); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedHistories, err)
	}
	if histories == nil {
		return bid.Histories{}, nil
	}
	for projectID, bids := range histories {
		for i, b := range bids {
			if err := checkBid(b); err != nil {
				return nil, fmt.Errorf("%w: project %s bid %d: %w", ErrMalformedHistories, projectID, i, err)
			}
		}
	}
	return histories, nil
}

func checkBid(b bid.Bid) error {
	switch {
	case strings.TrimSpace(b.Bidder) == "":
		return errors.New("missing bidder")
	case !(b.Amount > 0):
		return errors.New("non-positive amount")
	case b.Timestamp.IsZero():
		return errors.New("missing timestamp")
	}
	return nil
}
