package mocks

import (
	"context"

	"github.com/rpggio/bidsync/internal/domain/activity"
	"github.com/rpggio/bidsync/internal/domain/bid"
	"github.com/rpggio/bidsync/internal/repository"
	"github.com/stretchr/testify/mock"
)

// KeyValueStore is a mock for repository.KeyValueStore.
type KeyValueStore struct {
	mock.Mock
}

func (m *KeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *KeyValueStore) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *KeyValueStore) Watch(ctx context.Context) (<-chan repository.Change, error) {
	args := m.Called(ctx)
	if ch, ok := args.Get(0).(<-chan repository.Change); ok {
		return ch, args.Error(1)
	}
	if ch, ok := args.Get(0).(chan repository.Change); ok {
		return ch, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// BidStore is a mock for board.BidStore.
type BidStore struct {
	mock.Mock
}

func (m *BidStore) Load(ctx context.Context) bid.Histories {
	args := m.Called(ctx)
	if h, ok := args.Get(0).(bid.Histories); ok {
		return h
	}
	return bid.Histories{}
}

// Save returns the configured histories, or its input when none is set.
func (m *BidStore) Save(ctx context.Context, histories bid.Histories) bid.Histories {
	args := m.Called(ctx, histories)
	if len(args) > 0 {
		if h, ok := args.Get(0).(bid.Histories); ok {
			return h
		}
	}
	return histories
}

// Publisher is a mock for board.Publisher.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ctx context.Context, projectID string, b bid.Bid) {
	m.Called(ctx, projectID, b)
}
