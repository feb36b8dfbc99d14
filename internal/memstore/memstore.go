// Package memstore is an in-process storage origin: one Origin holds the
// shared key space and every tab opens its own Handle on it. A write through
// one handle is announced to every other open handle, never to the writer.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rpggio/bidsync/internal/repository"
)

const watchBuffer = 64

// Origin is the shared key space.
type Origin struct {
	mu       sync.Mutex
	data     map[string]string
	quota    int
	watchers map[string][]chan repository.Change
}

// New creates an origin. quota caps the total bytes of keys and values;
// zero means unlimited.
func New(quota int) *Origin {
	return &Origin{
		data:     map[string]string{},
		quota:    quota,
		watchers: map[string][]chan repository.Change{},
	}
}

// Open returns a new handle bound to this origin.
func (o *Origin) Open() *Handle {
	return &Handle{id: uuid.NewString(), origin: o}
}

func (o *Origin) size(key, value string) int {
	total := 0
	for k, v := range o.data {
		if k == key {
			continue
		}
		total += len(k) + len(v)
	}
	return total + len(key) + len(value)
}

// Handle is one tab's view of the origin. It implements
// repository.KeyValueStore.
type Handle struct {
	id     string
	origin *Origin

	mu     sync.Mutex
	closed bool
}

// ID identifies the handle.
func (h *Handle) ID() string {
	return h.id
}

func (h *Handle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Get returns the stored value for key.
func (h *Handle) Get(_ context.Context, key string) (string, bool, error) {
	if h.isClosed() {
		return "", false, repository.ErrClosed
	}
	h.origin.mu.Lock()
	defer h.origin.mu.Unlock()
	value, ok := h.origin.data[key]
	return value, ok, nil
}

// Set stores value and notifies the other handles' watchers.
func (h *Handle) Set(_ context.Context, key, value string) error {
	if h.isClosed() {
		return repository.ErrClosed
	}
	if key == "" {
		return repository.ErrInvalidInput
	}

	o := h.origin
	o.mu.Lock()
	if o.quota > 0 && o.size(key, value) > o.quota {
		o.mu.Unlock()
		return repository.ErrQuotaExceeded
	}
	old := o.data[key]
	o.data[key] = value

	change := repository.Change{Key: key, OldValue: old, NewValue: value}
	var targets []chan repository.Change
	for id, chans := range o.watchers {
		if id == h.id {
			continue
		}
		targets = append(targets, chans...)
	}
	// Sends happen under the origin lock so every watcher sees writes in
	// commit order. A watcher that stopped draining loses changes rather than
	// stalling writers.
	for _, ch := range targets {
		select {
		case ch <- change:
		default:
		}
	}
	o.mu.Unlock()
	return nil
}

// Watch streams writes made through other handles until ctx is done or the
// handle is closed.
func (h *Handle) Watch(ctx context.Context) (<-chan repository.Change, error) {
	if h.isClosed() {
		return nil, repository.ErrClosed
	}

	ch := make(chan repository.Change, watchBuffer)
	o := h.origin
	o.mu.Lock()
	o.watchers[h.id] = append(o.watchers[h.id], ch)
	o.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.removeWatcher(ch)
	}()
	return ch, nil
}

func (h *Handle) removeWatcher(ch chan repository.Change) {
	o := h.origin
	o.mu.Lock()
	defer o.mu.Unlock()
	chans := o.watchers[h.id]
	for i, c := range chans {
		if c == ch {
			o.watchers[h.id] = append(chans[:i], chans[i+1:]...)
			close(ch)
			break
		}
	}
	if len(o.watchers[h.id]) == 0 {
		delete(o.watchers, h.id)
	}
}

// Close detaches the handle and ends its watches.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	o := h.origin
	o.mu.Lock()
	for _, ch := range o.watchers[h.id] {
		close(ch)
	}
	delete(o.watchers, h.id)
	o.mu.Unlock()
	return nil
}
