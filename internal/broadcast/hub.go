// Package broadcast is a named pub/sub hub for execution contexts in one
// process. A message posted on a channel reaches every other channel opened
// under the same name; the poster never receives its own message.
package broadcast

import (
	"errors"
	"sync"
)

var (
	// ErrHubClosed is returned when opening or posting after the hub closed.
	ErrHubClosed = errors.New("broadcast hub closed")
	// ErrChannelClosed is returned when posting on a closed channel.
	ErrChannelClosed = errors.New("broadcast channel closed")
	// ErrInvalidName is returned for an empty channel name.
	ErrInvalidName = errors.New("broadcast channel name required")
)

// Hub routes messages between channels that share a name.
type Hub struct {
	mu       sync.Mutex
	closed   bool
	channels map[string]map[string]*Channel
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{channels: map[string]map[string]*Channel{}}
}

// Open joins the named channel.
func (h *Hub) Open(name string) (*Channel, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}

	c := newChannel(h, name)
	if h.channels[name] == nil {
		h.channels[name] = map[string]*Channel{}
	}
	h.channels[name][c.id] = c
	return c, nil
}

// Close shuts every channel down.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	var all []*Channel
	for _, members := range h.channels {
		for _, c := range members {
			all = append(all, c)
		}
	}
	h.channels = map[string]map[string]*Channel{}
	h.mu.Unlock()

	for _, c := range all {
		c.shutdown()
	}
}

func (h *Hub) post(from *Channel, msg []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	for id, c := range h.channels[from.name] {
		if id == from.id {
			continue
		}
		c.enqueue(msg)
	}
	return nil
}

func (h *Hub) leave(c *Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.channels[c.name]
	delete(members, c.id)
	if len(members) == 0 {
		delete(h.channels, c.name)
	}
}
