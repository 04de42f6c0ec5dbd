package wattz

import (
	"time"

	"github.com/zoobzio/clockz"
)

// config holds configuration for a Monitor.
type config struct {
	debounce     time.Duration
	retries      int
	retryDelay   time.Duration
	clock        clockz.Clock
	metrics      MetricsProvider
	errorHistory int
}

func defaultConfig() config {
	return config{
		debounce:     DefaultDebounce,
		retries:      DefaultRetries,
		retryDelay:   DefaultRetryDelay,
		clock:        clockz.RealClock,
		metrics:      NoOpMetricsProvider{},
		errorHistory: DefaultErrorHistory,
	}
}

// Option configures a Monitor.
type Option func(*config)

// WithDebounce sets the hold window for transient not-charging readings.
// A reading superseded within the window is never emitted. Zero disables
// debouncing entirely.
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		c.debounce = d
	}
}

// WithRetries sets the number of provider open attempts before the
// supervisor gives up and settles in StateFailed.
func WithRetries(n int) Option {
	return func(c *config) {
		c.retries = n
	}
}

// WithRetryDelay sets the fixed delay between provider open attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *config) {
		c.retryDelay = d
	}
}

// WithClock sets a custom clock for time operations.
// Use this with clockz.FakeClock for deterministic debounce and retry
// testing.
func WithClock(clock clockz.Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithMetrics registers a MetricsProvider for monitor events.
func WithMetrics(p MetricsProvider) Option {
	return func(c *config) {
		if p != nil {
			c.metrics = p
		}
	}
}

// WithErrorHistory sets how many recent connection errors are retained for
// Monitor.Errors. Zero disables history.
func WithErrorHistory(n int) Option {
	return func(c *config) {
		c.errorHistory = n
	}
}
