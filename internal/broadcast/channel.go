package broadcast

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Channel is one subscriber's membership in a named channel. Inbound
// messages are queued without bound and delivered in post order.
type Channel struct {
	id   string
	name string
	hub  *Hub

	mu     sync.Mutex
	queue  [][]byte
	closed bool
	wake   chan struct{}
	out    chan []byte
	done   chan struct{}
}

func newChannel(hub *Hub, name string) *Channel {
	c := &Channel{
		id:   uuid.NewString(),
		name: name,
		hub:  hub,
		wake: make(chan struct{}, 1),
		out:  make(chan []byte),
		done: make(chan struct{}),
	}
	go c.pump()
	return c
}

// ID identifies this membership.
func (c *Channel) ID() string {
	return c.id
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return c.name
}

// Messages delivers messages posted by other members. It is closed when the
// channel or hub closes.
func (c *Channel) Messages() <-chan []byte {
	return c.out
}

// Post sends msg to every other member. Delivery is asynchronous.
func (c *Channel) Post(_ context.Context, msg []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrChannelClosed
	}
	return c.hub.post(c, append([]byte(nil), msg...))
}

// Close leaves the channel.
func (c *Channel) Close() error {
	c.hub.leave(c)
	c.shutdown()
	return nil
}

func (c *Channel) enqueue(msg []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, msg)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Channel) shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	close(c.done)
}

func (c *Channel) pump() {
	defer close(c.out)
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.mu.Unlock()
			select {
			case <-c.wake:
				continue
			case <-c.done:
				return
			}
		}
		msg := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		select {
		case c.out <- msg:
		case <-c.done:
			return
		}
	}
}
