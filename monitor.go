package wattz

import (
	"context"
	"fmt"
	"sync"

	"github.com/zoobzio/capitan"
)

// Monitor tracks whether a device is currently charging. It subscribes to a
// Source for raw status notifications, debounces transient readings, and
// delivers stable boolean transitions to a single registered callback. When
// the provider connection dies, the Monitor reconnects automatically with
// bounded retry.
type Monitor struct {
	sup *supervisor

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
}

// New creates a Monitor over the given Source. The callback is invoked on
// every stable charging transition, and once eagerly at startup when the
// provider reports an already-charging state. State does not persist across
// restarts of the hosting process.
//
// Example:
//
//	monitor := wattz.New(
//	    upower.New(),
//	    func(charging bool) { gps.SetPowerProfile(charging) },
//	    wattz.WithDebounce(3*time.Second),
//	)
//	if err := monitor.Start(ctx); err != nil {
//	    return err
//	}
//	defer monitor.Stop()
func New(source Source, callback func(bool), opts ...Option) *Monitor {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Monitor{
		sup: &supervisor{
			source:  source,
			cb:      callback,
			clock:   cfg.clock,
			window:  cfg.debounce,
			retries: cfg.retries,
			delay:   cfg.retryDelay,
			metrics: cfg.metrics,
			errs:    newErrorLog(cfg.errorHistory),
			state:   StateUninitialized,
		},
	}
}

// Start begins supervision asynchronously and returns immediately: the
// connection handshake, initial status fetch, and eager callback all happen
// on a background goroutine. Calling Start on a running Monitor is a no-op.
//
// Connection failures do not surface here; they are visible through State
// and Errors, and as the absence of further callbacks.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sup.source == nil {
		return fmt.Errorf("monitor requires a source")
	}
	if m.sup.cb == nil {
		return fmt.Errorf("monitor requires a callback")
	}
	if m.started {
		return nil
	}
	m.started = true

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.sup.ctx = ctx

	capitan.Emit(ctx, MonitorStarted,
		KeyDebounce.Field(m.sup.window),
		KeyAttempts.Field(m.sup.retries),
		KeyRetryDelay.Field(m.sup.delay),
	)

	m.sup.transition(ctx, StateConnecting)
	go func() {
		_ = m.sup.connect(ctx) //nolint:errcheck // Reflected in State and Errors
	}()

	return nil
}

// Stop tears down supervision: the supervision context is canceled, the
// provider connection released, and the engine worker joined before Stop
// returns. Idempotent. A stopped Monitor may be started again.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	ctx := context.Background()
	m.sup.disconnect(ctx)
	capitan.Emit(ctx, MonitorStopped)
}

// Charging reports the latest stable charging signal. It never blocks on
// I/O and is safe to call at any time; across reconnects it returns the
// last known value.
func (m *Monitor) Charging() bool {
	return m.sup.chargingNow()
}

// State returns the supervisor's connection state.
func (m *Monitor) State() State {
	return m.sup.stateNow()
}

// Errors returns the recent connection and transport errors, oldest first.
func (m *Monitor) Errors() []error {
	return m.sup.errs.all()
}
