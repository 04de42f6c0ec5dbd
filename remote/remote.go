// Package remote provides a wattz.Source for power daemons that push
// charging status over a WebSocket.
//
// The daemon is expected to send a JSON frame carrying the current status
// immediately after the connection is established and again on every
// change. A read error or connection close is treated as a liveness loss.
package remote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zoobzio/wattz"
)

// DefaultHandshakeTimeout bounds the dial plus the initial status frame.
const DefaultHandshakeTimeout = 5 * time.Second

// Frame is the wire format pushed by the daemon.
type Frame struct {
	// Status is a provider status string, parsed with wattz.ParseStatus.
	Status string `json:"status"`
}

// Source dials a power daemon WebSocket endpoint.
type Source struct {
	url       string
	dialer    *websocket.Dialer
	handshake time.Duration
}

// Option configures a Source.
type Option func(*Source)

// WithDialer overrides the WebSocket dialer, e.g. to set TLS or proxy
// settings.
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Source) {
		s.dialer = d
	}
}

// WithHandshakeTimeout bounds the dial and the initial status frame.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(s *Source) {
		s.handshake = d
	}
}

// New creates a Source for the given ws:// or wss:// URL.
func New(url string, opts ...Option) *Source {
	s := &Source{
		url:       url,
		dialer:    websocket.DefaultDialer,
		handshake: DefaultHandshakeTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open implements wattz.Source. It dials the daemon and reads the initial
// status frame so the connection is known-good before the supervisor
// subscribes.
func (s *Source) Open(ctx context.Context) (wattz.Conn, error) {
	ws, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.url, err)
	}

	if err := ws.SetReadDeadline(time.Now().Add(s.handshake)); err != nil {
		ws.Close()
		return nil, fmt.Errorf("set deadline: %w", err)
	}
	var f Frame
	if err := ws.ReadJSON(&f); err != nil {
		ws.Close()
		return nil, fmt.Errorf("read initial status: %w", err)
	}
	if err := ws.SetReadDeadline(time.Time{}); err != nil {
		ws.Close()
		return nil, fmt.Errorf("clear deadline: %w", err)
	}

	return &conn{
		ws:   ws,
		last: wattz.ParseStatus(f.Status),
	}, nil
}

// conn is a live binding to the daemon.
type conn struct {
	ws *websocket.Conn

	mu       sync.Mutex
	last     wattz.Status
	listener wattz.Listener
	closed   bool
}

// Status implements wattz.Conn, returning the status from the most recent
// frame.
func (c *conn) Status(_ context.Context) (wattz.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, nil
}

// Subscribe implements wattz.Conn, starting the read loop.
func (c *conn) Subscribe(l wattz.Listener) error {
	c.mu.Lock()
	if c.listener != nil {
		c.mu.Unlock()
		return fmt.Errorf("already subscribed")
	}
	c.listener = l
	c.mu.Unlock()

	go c.read()
	return nil
}

// read forwards status frames to the listener until the connection fails.
// A failure on a conn the caller has not closed is a liveness loss.
func (c *conn) read() {
	for {
		var f Frame
		if err := c.ws.ReadJSON(&f); err != nil {
			if l := c.active(); l != nil {
				l.ConnectionLost(c)
			}
			return
		}
		status := wattz.ParseStatus(f.Status)
		c.mu.Lock()
		c.last = status
		c.mu.Unlock()
		if l := c.active(); l != nil {
			l.StatusChanged(status)
		}
	}
}

func (c *conn) active() wattz.Listener {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.listener
}

// Unsubscribe implements wattz.Conn.
func (c *conn) Unsubscribe() error {
	c.mu.Lock()
	c.listener = nil
	c.mu.Unlock()
	return nil
}

// Close implements wattz.Conn. Closing unblocks the read loop; because the
// listener is cleared first, the resulting read error is not reported as a
// liveness loss.
func (c *conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.ws.Close()
}
