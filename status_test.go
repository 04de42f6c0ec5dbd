package wattz

import "testing"

func TestStatus_Charging(t *testing.T) {
	cases := []struct {
		status Status
		want   bool
	}{
		{StatusUnknown, false},
		{StatusCharging, true},
		{StatusDischarging, false},
		{StatusNotCharging, false},
		{StatusFull, true},
	}
	for _, c := range cases {
		if got := c.status.Charging(); got != c.want {
			t.Errorf("%s.Charging() = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestStatus_String(t *testing.T) {
	cases := []struct {
		status Status
		want   string
	}{
		{StatusUnknown, "unknown"},
		{StatusCharging, "charging"},
		{StatusDischarging, "discharging"},
		{StatusNotCharging, "not-charging"},
		{StatusFull, "full"},
		{Status(99), "invalid"},
	}
	for _, c := range cases {
		if got := c.status.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestParseStatus_KernelSpellings(t *testing.T) {
	cases := []struct {
		in   string
		want Status
	}{
		{"Charging", StatusCharging},
		{"Discharging", StatusDischarging},
		{"Not charging", StatusNotCharging},
		{"Full", StatusFull},
		{"Unknown", StatusUnknown},
	}
	for _, c := range cases {
		if got := ParseStatus(c.in); got != c.want {
			t.Errorf("ParseStatus(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestParseStatus_NormalizesInput(t *testing.T) {
	if got := ParseStatus("  charging\n"); got != StatusCharging {
		t.Errorf("expected charging, got %s", got)
	}
	if got := ParseStatus("NOT-CHARGING"); got != StatusNotCharging {
		t.Errorf("expected not-charging, got %s", got)
	}
}

func TestParseStatus_UnrecognizedIsUnknown(t *testing.T) {
	if got := ParseStatus("plasma"); got != StatusUnknown {
		t.Errorf("expected unknown, got %s", got)
	}
	if got := ParseStatus(""); got != StatusUnknown {
		t.Errorf("expected unknown, got %s", got)
	}
}
