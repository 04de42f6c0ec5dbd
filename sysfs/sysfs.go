// Package sysfs provides a wattz.Source backed by the Linux power_supply
// class under /sys.
//
// The kernel exposes each supply as a directory containing a status file
// with one of "Charging", "Discharging", "Not charging", "Full" or
// "Unknown". sysfs does not reliably generate inotify events for attribute
// writes, so the watcher combines an fsnotify watch on the supply directory
// with a periodic poll of the status file. Removal of the supply directory
// is treated as a liveness loss.
package sysfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zoobzio/clockz"

	"github.com/zoobzio/wattz"
)

// DefaultRoot is the power_supply class directory.
const DefaultRoot = "/sys/class/power_supply"

// DefaultPollInterval is the default status file poll interval.
const DefaultPollInterval = 2 * time.Second

// Source reads charging status for one power supply.
type Source struct {
	root   string
	supply string
	poll   time.Duration
	clock  clockz.Clock
}

// Option configures a Source.
type Option func(*Source)

// WithRoot overrides the power_supply class directory. Useful for tests.
func WithRoot(root string) Option {
	return func(s *Source) {
		s.root = root
	}
}

// WithPollInterval sets the status file poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Source) {
		s.poll = d
	}
}

// WithClock sets a custom clock for the poll timer.
func WithClock(clock clockz.Clock) Option {
	return func(s *Source) {
		s.clock = clock
	}
}

// New creates a Source for the named supply, e.g. "BAT0" or "AC".
func New(supply string, opts ...Option) *Source {
	s := &Source{
		root:   DefaultRoot,
		supply: supply,
		poll:   DefaultPollInterval,
		clock:  clockz.RealClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open implements wattz.Source. It fails if the supply's status file cannot
// be read, which is how an absent or not-yet-enumerated supply manifests.
func (s *Source) Open(_ context.Context) (wattz.Conn, error) {
	path := filepath.Join(s.root, s.supply, "status")
	status, err := readStatus(path)
	if err != nil {
		return nil, fmt.Errorf("open supply %s: %w", s.supply, err)
	}
	return &conn{
		path:  path,
		poll:  s.poll,
		clock: s.clock,
		last:  status,
		quit:  make(chan struct{}),
	}, nil
}

func readStatus(path string) (wattz.Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return wattz.StatusUnknown, err
	}
	return wattz.ParseStatus(string(data)), nil
}

// conn is a live binding to one supply's status file.
type conn struct {
	path  string
	poll  time.Duration
	clock clockz.Clock

	mu       sync.Mutex
	last     wattz.Status
	listener wattz.Listener
	closed   bool
	quit     chan struct{}
}

// Status implements wattz.Conn, reading the status file directly.
func (c *conn) Status(_ context.Context) (wattz.Status, error) {
	status, err := readStatus(c.path)
	if err != nil {
		return wattz.StatusUnknown, fmt.Errorf("read %s: %w", c.path, err)
	}
	c.mu.Lock()
	c.last = status
	c.mu.Unlock()
	return status, nil
}

// Subscribe implements wattz.Conn, starting the watch goroutine.
func (c *conn) Subscribe(l wattz.Listener) error {
	c.mu.Lock()
	if c.listener != nil {
		c.mu.Unlock()
		return fmt.Errorf("already subscribed")
	}
	c.listener = l
	c.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(c.path), err)
	}

	go c.watch(watcher)
	return nil
}

// watch drives notifications from fsnotify events and the poll timer until
// the conn is closed or the supply disappears.
func (c *conn) watch(watcher *fsnotify.Watcher) {
	defer watcher.Close()

	timer := c.clock.NewTimer(c.poll)
	defer timer.Stop()

	for {
		select {
		case <-c.quit:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				c.lost()
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if !c.refresh() {
					return
				}
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
			// Keep watching; the poll path still covers us.

		case <-timer.C():
			if !c.refresh() {
				return
			}
			timer.Reset(c.poll)
		}
	}
}

// refresh re-reads the status file and notifies the listener on change.
// It reports false when the supply is gone and the watch should end.
func (c *conn) refresh() bool {
	status, err := readStatus(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			c.lost()
			return false
		}
		return true
	}

	c.mu.Lock()
	changed := status != c.last
	c.last = status
	l := c.listener
	closed := c.closed
	c.mu.Unlock()

	if changed && !closed && l != nil {
		l.StatusChanged(status)
	}
	return true
}

// lost delivers a liveness-loss notification once.
func (c *conn) lost() {
	c.mu.Lock()
	l := c.listener
	closed := c.closed
	c.mu.Unlock()
	if !closed && l != nil {
		l.ConnectionLost(c)
	}
}

// Unsubscribe implements wattz.Conn.
func (c *conn) Unsubscribe() error {
	c.mu.Lock()
	c.listener = nil
	c.mu.Unlock()
	return nil
}

// Close implements wattz.Conn, stopping the watch goroutine.
func (c *conn) Close() error {
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
