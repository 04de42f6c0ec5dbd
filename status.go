package wattz

import "strings"

// Status is the raw charging state reported by a power provider.
type Status int

const (
	// StatusUnknown indicates the provider could not determine the state.
	StatusUnknown Status = iota

	// StatusCharging indicates the battery is actively charging.
	StatusCharging

	// StatusDischarging indicates the battery is draining.
	StatusDischarging

	// StatusNotCharging indicates a charger is connected but the battery is
	// not charging. Providers commonly report this for a short moment right
	// after a charger is plugged in, before settling into StatusCharging.
	StatusNotCharging

	// StatusFull indicates the battery is fully charged.
	StatusFull
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusCharging:
		return "charging"
	case StatusDischarging:
		return "discharging"
	case StatusNotCharging:
		return "not-charging"
	case StatusFull:
		return "full"
	default:
		return "invalid"
	}
}

// Charging reports whether the status counts as charging for subscribers.
// Only StatusCharging and StatusFull do; everything else, including
// StatusUnknown, does not.
func (s Status) Charging() bool {
	return s == StatusCharging || s == StatusFull
}

// ParseStatus maps a provider status string to a Status. It accepts the
// kernel power_supply spellings ("Charging", "Discharging", "Not charging",
// "Full", "Unknown") case-insensitively, along with this package's own
// String() forms. Unrecognized input maps to StatusUnknown.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "charging":
		return StatusCharging
	case "discharging":
		return StatusDischarging
	case "not charging", "not-charging":
		return StatusNotCharging
	case "full":
		return StatusFull
	default:
		return StatusUnknown
	}
}
