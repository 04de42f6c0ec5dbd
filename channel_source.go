package wattz

import (
	"context"
	"fmt"
	"sync"
)

// ChannelSource adapts an existing Status channel into a Source.
// Useful for testing and custom feeds that already produce Status values.
//
// A closed channel is treated as a liveness loss: the subscribed Listener
// receives ConnectionLost and later Open calls fail, so the supervisor's
// bounded retry runs its course.
type ChannelSource struct {
	initial Status
	ch      <-chan Status

	mu   sync.Mutex
	dead bool
}

// NewChannelSource creates a ChannelSource seeded with an initial status.
// Values sent on ch are delivered to the subscribed Listener in order.
func NewChannelSource(initial Status, ch <-chan Status) *ChannelSource {
	return &ChannelSource{initial: initial, ch: ch}
}

// Open implements Source.
func (s *ChannelSource) Open(_ context.Context) (Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead {
		return nil, fmt.Errorf("channel source exhausted")
	}
	return &channelConn{
		source: s,
		last:   s.initial,
		quit:   make(chan struct{}),
	}, nil
}

func (s *ChannelSource) markDead() {
	s.mu.Lock()
	s.dead = true
	s.mu.Unlock()
}

// channelConn is a live binding over the source channel.
type channelConn struct {
	source *ChannelSource

	mu       sync.Mutex
	last     Status
	listener Listener
	closed   bool
	quit     chan struct{}
}

// Status implements Conn, returning the most recently pumped value.
func (c *channelConn) Status(_ context.Context) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, nil
}

// Subscribe implements Conn. The pump goroutine forwards channel values to
// the Listener until the channel closes or the conn is closed.
func (c *channelConn) Subscribe(l Listener) error {
	c.mu.Lock()
	if c.listener != nil {
		c.mu.Unlock()
		return fmt.Errorf("already subscribed")
	}
	c.listener = l
	c.mu.Unlock()

	go c.pump()
	return nil
}

func (c *channelConn) pump() {
	for {
		select {
		case <-c.quit:
			return
		case st, ok := <-c.source.ch:
			if !ok {
				c.source.markDead()
				if l := c.active(); l != nil {
					l.ConnectionLost(c)
				}
				return
			}
			c.mu.Lock()
			c.last = st
			c.mu.Unlock()
			if l := c.active(); l != nil {
				l.StatusChanged(st)
			}
		}
	}
}

// active returns the listener, or nil after Unsubscribe or Close.
func (c *channelConn) active() Listener {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.listener
}

// Unsubscribe implements Conn.
func (c *channelConn) Unsubscribe() error {
	c.mu.Lock()
	c.listener = nil
	c.mu.Unlock()
	return nil
}

// Close implements Conn. Close does not notify the Listener.
func (c *channelConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	close(c.quit)
	return nil
}
