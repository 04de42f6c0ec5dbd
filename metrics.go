package wattz

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key monitor events.
type MetricsProvider interface {
	// OnStateChange is called when the supervisor transitions between states.
	OnStateChange(from, to State)

	// OnStatusReceived is called for every raw status update accepted by
	// the engine (unchanged values are filtered out before this point).
	OnStatusReceived(s Status)

	// OnSignalEmitted is called when a stable charging transition is
	// delivered to the subscriber callback.
	OnSignalEmitted(charging bool)

	// OnDebounce is called when a transient not-charging reading is
	// superseded within the debounce window and suppressed.
	OnDebounce()

	// OnConnectFailure is called for each failed provider open attempt.
	// Attempt is 1-based.
	OnConnectFailure(attempt int)

	// OnReconnect is called when a lost provider connection has been
	// replaced and the engine restarted.
	OnReconnect()

	// OnStaleNotification is called when a liveness-lost notification for
	// a superseded connection is ignored.
	OnStaleNotification()
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStateChange(_, _ State)  {}
func (NoOpMetricsProvider) OnStatusReceived(_ Status) {}
func (NoOpMetricsProvider) OnSignalEmitted(_ bool)    {}
func (NoOpMetricsProvider) OnDebounce()               {}
func (NoOpMetricsProvider) OnConnectFailure(_ int)    {}
func (NoOpMetricsProvider) OnReconnect()              {}
func (NoOpMetricsProvider) OnStaleNotification()      {}
