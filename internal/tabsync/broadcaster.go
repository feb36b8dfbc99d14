// Package tabsync carries bid events between tabs. Three transports run in
// parallel: the broadcast channel, storage change notifications and a local
// signal for the originating tab. Each adapts its payload into bid.Event
// and feeds the same inbound queue.
package tabsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rpggio/bidsync/internal/domain/bid"
	"github.com/rpggio/bidsync/internal/repository"
)

const (
	// DefaultChannelName is the broadcast channel every tab joins.
	DefaultChannelName = "bidsync"

	defaultQueueSize = 256
	localQueueSize   = 64
)

// Channel is a joined broadcast channel.
type Channel interface {
	Post(ctx context.Context, msg []byte) error
	Messages() <-chan []byte
	Close() error
}

// OpenFunc joins a named broadcast channel.
type OpenFunc func(name string) (Channel, error)

// Watcher streams storage writes made by other tabs.
type Watcher interface {
	Watch(ctx context.Context) (<-chan repository.Change, error)
}

// Options configures a Broadcaster. Open and Storage may be nil; the missing
// transport is simply not used.
type Options struct {
	ChannelName string
	Open        OpenFunc
	Storage     Watcher
	QueueSize   int
	Logger      *slog.Logger
}

// Broadcaster publishes this tab's bids and collects everyone else's.
type Broadcaster struct {
	opts   Options
	logger *slog.Logger

	events chan bid.Event
	local  chan bid.Event

	mu      sync.Mutex
	channel Channel
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	closed  bool
}

// New creates a broadcaster. Call Start before reading Events.
func New(opts Options) *Broadcaster {
	if opts.ChannelName == "" {
		opts.ChannelName = DefaultChannelName
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		opts:   opts,
		logger: logger,
		events: make(chan bid.Event, opts.QueueSize),
		local:  make(chan bid.Event, localQueueSize),
	}
}

// Events is the single inbound queue. It is closed by Close.
func (b *Broadcaster) Events() <-chan bid.Event {
	return b.events
}

// ChannelActive reports whether the broadcast channel joined successfully.
func (b *Broadcaster) ChannelActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.channel != nil
}

// Start joins the transports. Transport failures are logged and the
// broadcaster continues with whatever remains.
func (b *Broadcaster) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started || b.closed {
		return
	}
	b.started = true

	ctx, b.cancel = context.WithCancel(ctx)

	if b.opts.Open != nil {
		channel, err := b.opts.Open(b.opts.ChannelName)
		if err != nil {
			b.logger.Warn("broadcast channel unavailable, using storage sync only",
				"channel", b.opts.ChannelName, "error", fmt.Errorf("%w: %w", ErrChannelUnavailable, err))
		} else {
			b.channel = channel
			b.wg.Add(1)
			go b.forwardChannel(ctx, channel.Messages())
		}
	}

	if b.opts.Storage != nil {
		changes, err := b.opts.Storage.Watch(ctx)
		if err != nil {
			b.logger.Warn("storage notifications unavailable", "error", err)
		} else {
			b.wg.Add(1)
			go b.forwardStorage(ctx, changes)
		}
	}

	b.wg.Add(1)
	go b.forwardLocal(ctx)
}

// Publish announces a bid this tab placed. It never blocks on other tabs and
// never fails: channel errors are logged, and the local signal is dropped if
// its queue is full because the caller already applied the bid.
func (b *Broadcaster) Publish(ctx context.Context, projectID string, placed bid.Bid) {
	b.mu.Lock()
	channel := b.channel
	closed := b.closed
	b.mu.Unlock()

	if channel != nil {
		msg, err := EncodeEnvelope(projectID, placed)
		if err != nil {
			b.logger.Error("encoding bid envelope failed", "project_id", projectID, "error", err)
		} else if err := channel.Post(ctx, msg); err != nil {
			b.logger.Warn("posting bid failed", "project_id", projectID,
				"error", fmt.Errorf("%w: %w", ErrChannelUnavailable, err))
		}
	}

	if closed {
		return
	}
	select {
	case b.local <- bid.Delta(bid.SourceLocal, projectID, placed):
	default:
		b.logger.Debug("local signal queue full, dropping", "project_id", projectID)
	}
}

// Close stops every transport and closes Events.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	cancel := b.cancel
	channel := b.channel
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if channel != nil {
		if err := channel.Close(); err != nil {
			b.logger.Warn("closing broadcast channel failed", "error", err)
		}
	}
	b.wg.Wait()
	close(b.events)
	return nil
}

func (b *Broadcaster) emit(ctx context.Context, ev bid.Event) bool {
	select {
	case b.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (b *Broadcaster) forwardChannel(ctx context.Context, messages <-chan []byte) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			ev, err := DecodeEnvelope(msg)
			if err != nil {
				b.logger.Warn("dropping broadcast message", "error", err)
				continue
			}
			if !b.emit(ctx, ev) {
				return
			}
		}
	}
}

func (b *Broadcaster) forwardStorage(ctx context.Context, changes <-chan repository.Change) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			events, err := DecodeStorageChange(change)
			if err != nil {
				b.logger.Warn("dropping storage notification", "key", change.Key, "error", err)
				continue
			}
			for _, ev := range events {
				if !b.emit(ctx, ev) {
					return
				}
			}
		}
	}
}

func (b *Broadcaster) forwardLocal(ctx context.Context) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.local:
			if !b.emit(ctx, ev) {
				return
			}
		}
	}
}
