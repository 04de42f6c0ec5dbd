package wattz

import "context"

// Source is a factory for connections to an external power status provider.
// Open may fail if the provider is not yet available; the supervisor retries
// with a bounded delay before giving up.
type Source interface {
	// Open establishes a connection to the provider. The returned Conn is a
	// live binding: it serves on-demand status reads and delivers
	// asynchronous notifications to a subscribed Listener.
	Open(ctx context.Context) (Conn, error)
}

// Conn is a live, revocable binding to a power status provider. A Conn is
// never reused after the provider reports it lost; the supervisor opens a
// fresh one on each reconnect.
type Conn interface {
	// Status fetches the provider's current charging status.
	Status(ctx context.Context) (Status, error)

	// Subscribe registers a Listener for status-changed and liveness-lost
	// notifications. Implementations may invoke the Listener from arbitrary
	// goroutines. At most one Listener is registered per Conn.
	Subscribe(l Listener) error

	// Unsubscribe deregisters the Listener. No notifications are delivered
	// after Unsubscribe returns.
	Unsubscribe() error

	// Close releases the connection. Close does not trigger a
	// ConnectionLost notification.
	Close() error
}

// Listener receives asynchronous notifications from a Conn. Implementations
// must tolerate calls from arbitrary goroutines, including concurrent ones.
type Listener interface {
	// StatusChanged delivers a new raw status. Implementations must not
	// block; delivery happens on the provider's notification goroutine.
	StatusChanged(s Status)

	// ConnectionLost signals that the provider connection behind c has
	// terminated. The Conn argument identifies which binding died so a
	// notification about a superseded connection can be recognized as stale.
	ConnectionLost(c Conn)
}
