package wattz

import "github.com/zoobzio/capitan"

// Field keys for monitor events.
var (
	// KeyStatus is the raw provider status.
	KeyStatus = capitan.NewStringKey("status")

	// KeyCharging is the derived charging signal ("true" or "false").
	KeyCharging = capitan.NewStringKey("charging")

	// KeyOldState is the supervisor state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the supervisor state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyAttempt is the 1-based connect attempt number.
	KeyAttempt = capitan.NewIntKey("attempt")

	// KeyAttempts is the configured connect attempt bound.
	KeyAttempts = capitan.NewIntKey("attempts")

	// KeyDebounce is the configured debounce window.
	KeyDebounce = capitan.NewDurationKey("debounce")

	// KeyRetryDelay is the configured delay between connect attempts.
	KeyRetryDelay = capitan.NewDurationKey("retry_delay")
)
