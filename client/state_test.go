package client

import "testing"

func TestStateConnecting(t *testing.T) {
	cases := []struct {
		s    State
		want bool
	}{
		{StateInit1Step0, true},
		{StateInit1Step4, true},
		{StateInit1Step8, true},
		{StateConnected, false},
		{StateDisconnecting, false},
		{StateDisconnected, false},
	}
	for _, c := range cases {
		if got := c.s.Connecting(); got != c.want {
			t.Errorf("%s.Connecting() = %v, want %v", c.s, got, c.want)
		}
	}
}

func TestStateStringUnknown(t *testing.T) {
	if got := State(99).String(); got != "State(99)" {
		t.Errorf("State(99).String() = %q, want %q", got, "State(99)")
	}
}
