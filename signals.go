package wattz

import "github.com/zoobzio/capitan"

// Monitor lifecycle signals.
var (
	// MonitorStarted is emitted when a Monitor begins supervising.
	MonitorStarted = capitan.NewSignal(
		"wattz.monitor.started",
		"Monitor supervision started",
	)

	// MonitorStopped is emitted when a Monitor is torn down.
	MonitorStopped = capitan.NewSignal(
		"wattz.monitor.stopped",
		"Monitor supervision stopped",
	)

	// SupervisorStateChanged is emitted when the supervisor transitions
	// between connection states.
	SupervisorStateChanged = capitan.NewSignal(
		"wattz.supervisor.state.changed",
		"Supervisor state transition",
	)
)

// Connection signals.
var (
	// ConnectAttemptFailed is emitted when a single Open attempt fails.
	ConnectAttemptFailed = capitan.NewSignal(
		"wattz.connect.attempt.failed",
		"Provider open attempt failed",
	)

	// Connected is emitted when a provider connection is established.
	Connected = capitan.NewSignal(
		"wattz.connect.succeeded",
		"Provider connection established",
	)

	// ConnectExhausted is emitted when all open attempts are used up.
	ConnectExhausted = capitan.NewSignal(
		"wattz.connect.exhausted",
		"Provider unreachable within retry bound",
	)

	// StatusFetchFailed is emitted when the initial status read fails.
	// The status is treated as unknown rather than fatal.
	StatusFetchFailed = capitan.NewSignal(
		"wattz.status.fetch.failed",
		"Initial status fetch failed",
	)

	// SubscribeFailed is emitted when registering for provider
	// notifications fails at the transport level.
	SubscribeFailed = capitan.NewSignal(
		"wattz.subscribe.failed",
		"Provider subscription failed",
	)

	// UnsubscribeFailed is emitted when tearing down the provider
	// subscription or connection fails at the transport level.
	UnsubscribeFailed = capitan.NewSignal(
		"wattz.unsubscribe.failed",
		"Provider teardown failed",
	)

	// ConnectionLostSignal is emitted when the active provider connection
	// terminates and reconnection begins.
	ConnectionLostSignal = capitan.NewSignal(
		"wattz.connection.lost",
		"Active provider connection lost",
	)

	// StaleNotificationIgnored is emitted when a liveness-lost notification
	// references a connection that is not the active one.
	StaleNotificationIgnored = capitan.NewSignal(
		"wattz.connection.stale",
		"Liveness loss for superseded connection ignored",
	)
)

// Engine signals.
var (
	// StatusReceived is emitted when a raw status update reaches the engine.
	StatusReceived = capitan.NewSignal(
		"wattz.status.received",
		"Raw status update received",
	)

	// StatusDebounced is emitted when a transient not-charging reading is
	// superseded within the debounce window and suppressed.
	StatusDebounced = capitan.NewSignal(
		"wattz.status.debounced",
		"Transient status suppressed by debounce window",
	)

	// SignalEmitted is emitted when a stable charging transition is
	// delivered to the subscriber callback.
	SignalEmitted = capitan.NewSignal(
		"wattz.signal.emitted",
		"Stable charging signal delivered",
	)
)
