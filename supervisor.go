package wattz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Connect retry defaults, matching the observed startup characteristics of
// platform power services.
const (
	// DefaultRetries is the default number of provider open attempts.
	DefaultRetries = 5

	// DefaultRetryDelay is the default delay between open attempts.
	DefaultRetryDelay = 500 * time.Millisecond
)

// ErrProviderUnavailable is returned when the provider cannot be reached
// within the configured retry bound.
var ErrProviderUnavailable = errors.New("provider unavailable")

// supervisor establishes and maintains the provider binding. It implements
// Listener: status updates are forwarded to the active engine, and a genuine
// liveness loss tears the engine down and rebuilds the binding with the same
// subscriber callback.
type supervisor struct {
	source  Source
	cb      func(bool)
	clock   clockz.Clock
	window  time.Duration
	retries int
	delay   time.Duration
	metrics MetricsProvider
	errs    *errorLog

	// ctx is the supervision context captured at start. Listener
	// notifications arrive on provider goroutines that carry no context of
	// their own.
	ctx context.Context

	mu     sync.Mutex
	state  State
	conn   Conn
	engine *engine
	last   Status
}

// transition moves the supervisor to a new state, emitting the change.
func (s *supervisor) transition(ctx context.Context, to State) {
	s.mu.Lock()
	from := s.state
	if from == to {
		s.mu.Unlock()
		return
	}
	s.state = to
	s.mu.Unlock()

	capitan.Emit(ctx, SupervisorStateChanged,
		KeyOldState.Field(from.String()),
		KeyNewState.Field(to.String()),
	)
	s.metrics.OnStateChange(from, to)
}

// connect attempts to reach the provider, retrying up to the configured
// bound with a fixed inter-attempt delay. On success it fetches the initial
// status (a fetch failure degrades to StatusUnknown rather than failing the
// connect), subscribes for notifications, and starts a fresh engine.
//
// The caller is responsible for moving the state to StateConnecting or
// StateReconnecting beforehand; connect only settles it to StateActive or
// StateFailed.
func (s *supervisor) connect(ctx context.Context) error {
	var conn Conn
	var lastErr error

	for attempt := 1; attempt <= s.retries; attempt++ {
		c, err := s.source.Open(ctx)
		if err == nil {
			conn = c
			break
		}
		lastErr = err
		s.errs.push(err)
		capitan.Emit(ctx, ConnectAttemptFailed,
			KeyAttempt.Field(attempt),
			KeyAttempts.Field(s.retries),
			KeyError.Field(err.Error()),
		)
		s.metrics.OnConnectFailure(attempt)

		if attempt == s.retries {
			break
		}
		if err := s.sleep(ctx, s.delay); err != nil {
			lastErr = err
			break
		}
	}

	if conn == nil {
		if ctx.Err() != nil {
			// Torn down mid-connect; disconnect settles the state.
			return ctx.Err()
		}
		s.transition(ctx, StateFailed)
		capitan.Emit(ctx, ConnectExhausted,
			KeyAttempts.Field(s.retries),
		)
		if lastErr != nil {
			return fmt.Errorf("%w: %d attempts, last error: %v", ErrProviderUnavailable, s.retries, lastErr)
		}
		return ErrProviderUnavailable
	}

	status, err := conn.Status(ctx)
	if err != nil {
		capitan.Emit(ctx, StatusFetchFailed,
			KeyError.Field(err.Error()),
		)
		s.errs.push(err)
		status = StatusUnknown
	}

	eng := newEngine(status, s.window, s.clock, s.metrics)

	s.mu.Lock()
	if s.state == StateStopped {
		// Torn down while connecting; discard the fresh binding.
		s.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	s.conn = conn
	s.engine = eng
	s.last = status
	s.mu.Unlock()

	if err := conn.Subscribe(s); err != nil {
		// Logged, not retried inline: a broken link eventually surfaces as
		// a liveness loss and recovery happens on that path.
		capitan.Emit(ctx, SubscribeFailed,
			KeyError.Field(err.Error()),
		)
		s.errs.push(err)
	}

	if err := eng.start(ctx, s.cb); err != nil {
		return err
	}

	// Settle to active under the lock so a concurrent teardown cannot be
	// overwritten; a teardown that won the race already owns the binding.
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		eng.stop()
		_ = conn.Close()
		return nil
	}
	from := s.state
	s.state = StateActive
	s.mu.Unlock()

	capitan.Emit(ctx, SupervisorStateChanged,
		KeyOldState.Field(from.String()),
		KeyNewState.Field(StateActive.String()),
	)
	s.metrics.OnStateChange(from, StateActive)
	capitan.Emit(ctx, Connected,
		KeyStatus.Field(status.String()),
	)
	return nil
}

// sleep waits for d on the supervisor clock, or until ctx is canceled.
func (s *supervisor) sleep(ctx context.Context, d time.Duration) error {
	t := s.clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}

// StatusChanged implements Listener, forwarding raw updates to the active
// engine. Updates arriving with no engine (mid-reconnect) are dropped; the
// fresh connection re-fetches the status it missed.
func (s *supervisor) StatusChanged(st Status) {
	s.mu.Lock()
	eng := s.engine
	s.mu.Unlock()
	if eng == nil {
		return
	}
	eng.setStatus(s.ctx, st)
}

// ConnectionLost implements Listener. A notification referencing anything
// but the currently active connection is stale: logged and otherwise inert.
// A genuine loss stops and joins the engine, invalidates the connection, and
// re-runs connect with the same callback.
func (s *supervisor) ConnectionLost(c Conn) {
	s.mu.Lock()
	if s.conn == nil || s.conn != c {
		s.mu.Unlock()
		capitan.Emit(s.ctx, StaleNotificationIgnored)
		s.metrics.OnStaleNotification()
		return
	}
	dead := s.conn
	s.conn = nil
	eng := s.engine
	s.engine = nil
	s.mu.Unlock()

	capitan.Emit(s.ctx, ConnectionLostSignal)

	if eng != nil {
		eng.stop()
		s.mu.Lock()
		s.last = eng.current()
		s.mu.Unlock()
	}
	_ = dead.Close()

	s.transition(s.ctx, StateReconnecting)
	if err := s.connect(s.ctx); err == nil {
		s.metrics.OnReconnect()
	}
}

// disconnect tears down the subscription, connection, and engine. Both
// teardown calls are guarded: either may be absent if the connection was
// already invalidated. Idempotent.
func (s *supervisor) disconnect(ctx context.Context) {
	// Claim the stopped state in the same critical section as the binding so
	// an in-flight connect observes it before settling to active.
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	eng := s.engine
	s.engine = nil
	from := s.state
	s.state = StateStopped
	s.mu.Unlock()

	if conn != nil {
		if err := conn.Unsubscribe(); err != nil {
			capitan.Emit(ctx, UnsubscribeFailed,
				KeyError.Field(err.Error()),
			)
			s.errs.push(err)
		}
		if err := conn.Close(); err != nil {
			capitan.Emit(ctx, UnsubscribeFailed,
				KeyError.Field(err.Error()),
			)
			s.errs.push(err)
		}
	}
	if eng != nil {
		eng.stop()
		s.mu.Lock()
		s.last = eng.current()
		s.mu.Unlock()
	}

	if from != StateStopped {
		capitan.Emit(ctx, SupervisorStateChanged,
			KeyOldState.Field(from.String()),
			KeyNewState.Field(StateStopped.String()),
		)
		s.metrics.OnStateChange(from, StateStopped)
	}
}

// chargingNow returns the derived signal for the latest known status. While
// an engine is live it owns the value; across reconnects the supervisor
// keeps the last observed status so the answer never regresses to a zero
// value.
func (s *supervisor) chargingNow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine != nil {
		return s.engine.charging()
	}
	return s.last.Charging()
}

// stateNow returns the current supervisor state.
func (s *supervisor) stateNow() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
