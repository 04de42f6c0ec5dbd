package wattz

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// DefaultDebounce is the default hold window for transient not-charging
// readings. Providers typically report StatusNotCharging for about a second
// after a charger is plugged in before settling into StatusCharging;
// emitting that reading would flap the subscriber off and straight back on.
const DefaultDebounce = 3 * time.Second

// engine converts a possibly-noisy stream of raw status updates into a
// sparse stream of stable charging transitions, delivered synchronously to a
// single callback. A transient StatusNotCharging reading is held for the
// debounce window and suppressed if superseded in time.
type engine struct {
	clock   clockz.Clock
	window  time.Duration
	metrics MetricsProvider

	mu     sync.Mutex
	status Status
	done   bool
	cb     func(bool)

	wake chan struct{}
	quit chan struct{}
	wg   sync.WaitGroup

	started bool
}

func newEngine(initial Status, window time.Duration, clock clockz.Clock, metrics MetricsProvider) *engine {
	return &engine{
		clock:   clock,
		window:  window,
		metrics: metrics,
		status:  initial,
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
	}
}

// setStatus stores a new raw status and wakes the worker. Unchanged values
// are a no-op, as are updates after stop. Never blocks and never invokes the
// callback from the caller's goroutine.
func (e *engine) setStatus(ctx context.Context, s Status) {
	e.mu.Lock()
	if e.done || s == e.status {
		e.mu.Unlock()
		return
	}
	e.status = s
	e.mu.Unlock()

	capitan.Emit(ctx, StatusReceived,
		KeyStatus.Field(s.String()),
	)
	e.metrics.OnStatusReceived(s)

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// current returns the latest stored status, which survives stop.
func (e *engine) current() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// charging returns the derived signal for the latest stored status.
func (e *engine) charging() bool {
	return e.current().Charging()
}

// start begins the worker loop. Exactly one worker runs per engine. If the
// stored status already counts as charging, the callback is invoked once
// with true before start returns, so a consumer starting mid-charge observes
// the state without waiting for a transition.
func (e *engine) start(ctx context.Context, cb func(bool)) error {
	e.mu.Lock()
	if e.started || e.done {
		e.mu.Unlock()
		return fmt.Errorf("engine already started")
	}
	e.started = true
	e.cb = cb
	last := e.status
	e.mu.Unlock()

	if last.Charging() {
		e.emit(ctx, true)
	}

	e.wg.Add(1)
	go e.run(ctx, last)
	return nil
}

// stop marks the engine done and joins the worker before returning. done is
// terminal: the engine never emits again, and later setStatus calls are
// ignored. Safe to call more than once.
func (e *engine) stop() {
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		e.wg.Wait()
		return
	}
	e.done = true
	e.mu.Unlock()

	close(e.quit)
	e.wg.Wait()
}

func (e *engine) snapshot() (Status, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status, e.done
}

// run is the worker loop. It always re-derives from the latest stored value;
// intermediate values superseded before it wakes are never examined.
func (e *engine) run(ctx context.Context, last Status) {
	defer e.wg.Done()

	for {
		cur, done := e.snapshot()
		if done {
			return
		}
		if cur == last {
			select {
			case <-e.wake:
			case <-e.quit:
				return
			}
			continue
		}
		last = cur

		if cur == StatusNotCharging && e.window > 0 {
			if e.superseded(cur) {
				capitan.Emit(ctx, StatusDebounced,
					KeyStatus.Field(cur.String()),
					KeyDebounce.Field(e.window),
				)
				e.metrics.OnDebounce()
				continue
			}
			// Window elapsed with no further change: the reading is
			// confirmed and emitted like any other state.
			if _, done := e.snapshot(); done {
				return
			}
		}

		e.emit(ctx, last.Charging())
	}
}

// superseded waits up to the debounce window for the stored status to move
// off observed. It reports whether it did, in which case the transient
// reading must not be emitted and the loop re-evaluates the newest value.
func (e *engine) superseded(observed Status) bool {
	timer := e.clock.NewTimer(e.window)
	defer timer.Stop()

	for {
		select {
		case <-e.quit:
			return false
		case <-e.wake:
			if cur, _ := e.snapshot(); cur != observed {
				return true
			}
			// Status changed and changed back before we woke; only the
			// latest value matters, so keep waiting out the window.
		case <-timer.C():
			cur, _ := e.snapshot()
			return cur != observed
		}
	}
}

// emit delivers a stable transition. The engine lock is never held here;
// the callback may re-enter the engine's own API.
func (e *engine) emit(ctx context.Context, charging bool) {
	capitan.Emit(ctx, SignalEmitted,
		KeyCharging.Field(strconv.FormatBool(charging)),
	)
	e.metrics.OnSignalEmitted(charging)
	e.cb(charging)
}
