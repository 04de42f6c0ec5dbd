package wattz

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

// recorder captures emitted charging signals.
type recorder struct {
	mu        sync.Mutex
	emissions []bool
}

func (r *recorder) record(b bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emissions = append(r.emissions, b)
}

func (r *recorder) all() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bool, len(r.emissions))
	copy(out, r.emissions)
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.emissions)
}

// eventually polls cond until it holds or the timeout elapses.
func eventually(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestEngine_EagerEmitWhenCharging(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}

	e := newEngine(StatusCharging, DefaultDebounce, clockz.RealClock, NoOpMetricsProvider{})
	if err := e.start(ctx, rec.record); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer e.stop()

	// The callback fires before start returns when already charging.
	got := rec.all()
	if len(got) != 1 || !got[0] {
		t.Errorf("expected eager [true] emission, got %v", got)
	}
}

func TestEngine_NoEagerEmitWhenNotCharging(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}

	e := newEngine(StatusDischarging, DefaultDebounce, clockz.RealClock, NoOpMetricsProvider{})
	if err := e.start(ctx, rec.record); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer e.stop()

	time.Sleep(20 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("expected no emission, got %v", rec.all())
	}
}

func TestEngine_EmitsOnChange(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}

	e := newEngine(StatusDischarging, DefaultDebounce, clockz.RealClock, NoOpMetricsProvider{})
	if err := e.start(ctx, rec.record); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer e.stop()

	e.setStatus(ctx, StatusCharging)
	if !eventually(t, time.Second, func() bool { return rec.count() == 1 }) {
		t.Fatalf("timeout waiting for emission, got %v", rec.all())
	}
	if got := rec.all(); !got[0] {
		t.Errorf("expected true emission, got %v", got)
	}

	e.setStatus(ctx, StatusDischarging)
	if !eventually(t, time.Second, func() bool { return rec.count() == 2 }) {
		t.Fatalf("timeout waiting for second emission, got %v", rec.all())
	}
	if got := rec.all(); got[1] {
		t.Errorf("expected false emission, got %v", got)
	}
}

func TestEngine_UnchangedStatusIsNoOp(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}

	e := newEngine(StatusDischarging, DefaultDebounce, clockz.RealClock, NoOpMetricsProvider{})
	if err := e.start(ctx, rec.record); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer e.stop()

	e.setStatus(ctx, StatusDischarging)
	e.setStatus(ctx, StatusDischarging)

	time.Sleep(20 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("expected no emission for unchanged status, got %v", rec.all())
	}
}

func TestEngine_FinalStateWins(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}

	e := newEngine(StatusDischarging, DefaultDebounce, clockz.RealClock, NoOpMetricsProvider{})
	if err := e.start(ctx, rec.record); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer e.stop()

	e.setStatus(ctx, StatusCharging)
	e.setStatus(ctx, StatusFull)
	e.setStatus(ctx, StatusDischarging)

	if !eventually(t, time.Second, func() bool {
		got := rec.all()
		return len(got) > 0 && !got[len(got)-1]
	}) {
		t.Fatalf("expected final emission to be false, got %v", rec.all())
	}
	if e.charging() {
		t.Error("expected charging() false after settling on discharging")
	}
}

func TestEngine_DebounceSuppressesTransient(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()
	rec := &recorder{}

	e := newEngine(StatusCharging, 3*time.Second, clock, NoOpMetricsProvider{})
	if err := e.start(ctx, rec.record); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer e.stop()

	// Eager true from the initial charging state.
	if n := rec.count(); n != 1 {
		t.Fatalf("expected eager emission, got %v", rec.all())
	}

	// Transient dip: the charger settles back within the window.
	e.setStatus(ctx, StatusNotCharging)
	time.Sleep(20 * time.Millisecond)
	e.setStatus(ctx, StatusCharging)
	time.Sleep(20 * time.Millisecond)

	clock.Advance(3 * time.Second)
	clock.BlockUntilReady()
	time.Sleep(20 * time.Millisecond)

	for i, b := range rec.all() {
		if !b {
			t.Errorf("emission %d was false; the transient dip leaked through: %v", i, rec.all())
		}
	}
	if !e.charging() {
		t.Error("expected charging() true after dip settled")
	}
}

func TestEngine_ConfirmedNotChargingEmitsDelayed(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()
	rec := &recorder{}

	e := newEngine(StatusCharging, 3*time.Second, clock, NoOpMetricsProvider{})
	if err := e.start(ctx, rec.record); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer e.stop()

	e.setStatus(ctx, StatusNotCharging)
	time.Sleep(50 * time.Millisecond)

	// Still inside the window: nothing beyond the eager emission.
	if n := rec.count(); n != 1 {
		t.Fatalf("expected emission held during window, got %v", rec.all())
	}

	if !eventually(t, 2*time.Second, func() bool {
		clock.Advance(3 * time.Second)
		clock.BlockUntilReady()
		return rec.count() == 2
	}) {
		t.Fatalf("timeout waiting for confirmed emission, got %v", rec.all())
	}

	got := rec.all()
	if got[1] {
		t.Errorf("expected false emission after window, got %v", got)
	}
	if e.charging() {
		t.Error("expected charging() false after confirmed not-charging")
	}
}

func TestEngine_ZeroWindowEmitsImmediately(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}

	e := newEngine(StatusCharging, 0, clockz.RealClock, NoOpMetricsProvider{})
	if err := e.start(ctx, rec.record); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer e.stop()

	e.setStatus(ctx, StatusNotCharging)
	if !eventually(t, time.Second, func() bool { return rec.count() == 2 }) {
		t.Fatalf("timeout waiting for emission, got %v", rec.all())
	}
	if got := rec.all(); got[1] {
		t.Errorf("expected false emission, got %v", got)
	}
}

func TestEngine_StopJoinsWorker(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}

	e := newEngine(StatusDischarging, DefaultDebounce, clockz.RealClock, NoOpMetricsProvider{})
	if err := e.start(ctx, rec.record); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		e.stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not return")
	}

	// Updates after stop have no observable effect.
	e.setStatus(ctx, StatusCharging)
	time.Sleep(20 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("expected no emission after stop, got %v", rec.all())
	}
	if got := e.current(); got != StatusDischarging {
		t.Errorf("expected stored status unchanged after stop, got %s", got)
	}
}

func TestEngine_StopDuringWindow(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()
	rec := &recorder{}

	e := newEngine(StatusCharging, 3*time.Second, clock, NoOpMetricsProvider{})
	if err := e.start(ctx, rec.record); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	e.setStatus(ctx, StatusNotCharging)
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		e.stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not return while worker was in the debounce window")
	}

	// The held reading is never emitted after stop.
	if n := rec.count(); n != 1 {
		t.Errorf("expected only the eager emission, got %v", rec.all())
	}
}

func TestEngine_DoubleStartFails(t *testing.T) {
	ctx := context.Background()

	e := newEngine(StatusDischarging, DefaultDebounce, clockz.RealClock, NoOpMetricsProvider{})
	if err := e.start(ctx, func(bool) {}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer e.stop()

	if err := e.start(ctx, func(bool) {}); err == nil {
		t.Error("expected second start to fail")
	}
}

func TestEngine_StopIdempotent(t *testing.T) {
	ctx := context.Background()

	e := newEngine(StatusDischarging, DefaultDebounce, clockz.RealClock, NoOpMetricsProvider{})
	if err := e.start(ctx, func(bool) {}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	e.stop()
	e.stop()
}

func TestEngine_CallbackMayReenter(t *testing.T) {
	ctx := context.Background()

	var e *engine
	reentered := make(chan bool, 1)
	e = newEngine(StatusDischarging, DefaultDebounce, clockz.RealClock, NoOpMetricsProvider{})

	err := e.start(ctx, func(charging bool) {
		// Re-entering the engine's API from the callback must not deadlock.
		reentered <- e.charging()
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer e.stop()

	e.setStatus(ctx, StatusCharging)
	select {
	case charging := <-reentered:
		if !charging {
			t.Error("expected charging() true from inside callback")
		}
	case <-time.After(time.Second):
		t.Fatal("callback re-entry deadlocked")
	}
}
