package wattz

import "testing"

func TestState_String(t *testing.T) {
	cases := []struct {
		state State
		want  string
	}{
		{StateUninitialized, "uninitialized"},
		{StateConnecting, "connecting"},
		{StateActive, "active"},
		{StateReconnecting, "reconnecting"},
		{StateFailed, "failed"},
		{StateStopped, "stopped"},
		{State(999), "unknown"},
	}
	for _, c := range cases {
		if got := c.state.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestState_Values(t *testing.T) {
	// Verify iota ordering
	if StateUninitialized != 0 {
		t.Errorf("expected StateUninitialized=0, got %d", StateUninitialized)
	}
	if StateConnecting != 1 {
		t.Errorf("expected StateConnecting=1, got %d", StateConnecting)
	}
	if StateActive != 2 {
		t.Errorf("expected StateActive=2, got %d", StateActive)
	}
	if StateReconnecting != 3 {
		t.Errorf("expected StateReconnecting=3, got %d", StateReconnecting)
	}
	if StateFailed != 4 {
		t.Errorf("expected StateFailed=4, got %d", StateFailed)
	}
	if StateStopped != 5 {
		t.Errorf("expected StateStopped=5, got %d", StateStopped)
	}
}
