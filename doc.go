/*
Package wattz tracks whether a device is currently charging. It subscribes
to a power status provider and delivers a stable boolean signal to a single
registered callback, debouncing transient readings. It also supervises
the provider connection, reconnecting with bounded retry when the provider's
underlying service terminates.

wattz is designed to be embedded within services that need to adapt their
behavior to charging state (throttling background work, adjusting duty
cycles), not run as a standalone service.

# Basic Usage

Create a Monitor over a Source and register a callback:

	monitor := wattz.New(
	    upower.New(),
	    func(charging bool) {
	        scheduler.SetAggressive(charging)
	    },
	)

	if err := monitor.Start(ctx); err != nil {
	    return err
	}
	defer monitor.Stop()

Start returns immediately; the connection handshake runs in the background.
If the device is already charging when the Monitor starts, the callback is
invoked once with true so consumers never wait for a future transition.

Query the current signal at any time:

	if monitor.Charging() {
	    // plugged in
	}

# Debouncing

Providers commonly report a short-lived "connected but not yet charging"
state right after a charger is plugged in, before settling into an active
charging state. Emitting that reading would flap subscribers off and
straight back on. The Monitor holds a not-charging reading for a debounce
window (3 seconds by default) and suppresses it entirely when a further
change arrives in time:

	monitor := wattz.New(source, callback,
	    wattz.WithDebounce(3*time.Second),
	)

# Reconnection

When the provider reports its connection lost, the Monitor stops the
debounce worker, discards the dead binding, and reopens the Source, making
up to 5 attempts spaced 500 ms apart by default:

	monitor := wattz.New(source, callback,
	    wattz.WithRetries(5),
	    wattz.WithRetryDelay(500*time.Millisecond),
	)

If every attempt fails the Monitor settles in StateFailed; Charging keeps
returning the last known value, and a later Start may resume supervision.

# Sources

Any implementation of the Source interface can feed a Monitor. The
subpackages provide ready integrations:

  - upower: the UPower system service over D-Bus
  - sysfs: the Linux power_supply class under /sys
  - remote: a power daemon pushing status over WebSocket

ChannelSource adapts an in-process Status channel for custom feeds and
deterministic tests.

# Testing

Deterministic timing tests inject a fake clock:

	clock := clockz.NewFakeClock()
	monitor := wattz.New(source, callback, wattz.WithClock(clock))
	// ...
	clock.Advance(3 * time.Second)
*/
package wattz
