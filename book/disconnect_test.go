package book

import "testing"

func TestDisconnectReasonFromID(t *testing.T) {
	cases := []struct {
		id   int64
		want DisconnectReason
	}{
		{0, ReasonDisconnect},
		{6, ReasonKick},
		{9, ReasonBan},
		{5, ReasonTimeout},
		{999, ReasonUnknown},
	}
	for _, c := range cases {
		if got := DisconnectReasonFromID(c.id); got != c.want {
			t.Errorf("DisconnectReasonFromID(%d) = %v, want %v", c.id, got, c.want)
		}
	}
}

func TestDisconnectReasonString(t *testing.T) {
	if ReasonBan.String() != "Ban" {
		t.Errorf("String() = %q, want Ban", ReasonBan.String())
	}
	if DisconnectReason(99).String() != "Unknown" {
		t.Errorf("String() for unrecognized value = %q, want Unknown", DisconnectReason(99).String())
	}
}
