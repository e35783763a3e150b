package client

import (
	"testing"
	"time"

	"github.com/imxeno/tsclientlib/internal/command"
	"github.com/imxeno/tsclientlib/internal/message"
	"github.com/imxeno/tsclientlib/internal/packet"
)

// TestDisconnectWireText is S6 from spec.md §8: a caller-initiated
// disconnect must put exactly "clientdisconnect reasonid=8 reasonmsg=Bye"
// on the wire, not an empty reasonmsg.
func TestDisconnectWireText(t *testing.T) {
	cmd, err := message.Marshal("clientdisconnect", []message.ClientDisconnect{{ReasonID: disconnectReasonIDLeave, ReasonMsg: disconnectMsgBye}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	const want = "clientdisconnect reasonid=8 reasonmsg=Bye"
	if got := command.Serialize(cmd); got != want {
		t.Fatalf("serialized clientdisconnect = %q, want %q", got, want)
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	prev := time.Duration(0)
	for n := 0; n < 10; n++ {
		d := backoff(n)
		if d < retransmitBaseDelay {
			t.Fatalf("backoff(%d) = %s, below base delay", n, d)
		}
		if d > retransmitMaxDelay+retransmitMaxDelay/5 {
			t.Fatalf("backoff(%d) = %s, exceeds max delay plus jitter", n, d)
		}
		// Jitter means it won't be strictly increasing every step once
		// capped, but the pre-cap region should trend upward.
		if n > 0 && n < 4 && d < prev {
			t.Fatalf("backoff(%d) = %s, expected to grow past backoff(%d) = %s", n, d, n-1, prev)
		}
		prev = d
	}
}

func TestPidFromWireMatchesEncodedHeader(t *testing.T) {
	codec := packet.NewCodec(packet.ClientToServer, packet.Keys{}, packet.Keys{})
	wire, err := codec.Encode(packet.EncodeArgs{Type: packet.TypeCommand, Flags: packet.FlagUnencrypted}, []byte("hello"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	h, _, err := packet.DecodeHeader(wire, packet.ClientToServer)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if got := pidFromWire(wire); got != h.PID {
		t.Fatalf("pidFromWire = %d, want %d", got, h.PID)
	}
}

func TestPidFromWireMalformed(t *testing.T) {
	if got := pidFromWire([]byte{1, 2}); got != 0 {
		t.Fatalf("pidFromWire on malformed input = %d, want 0", got)
	}
}

func TestParseUint32(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
	}{
		{"0", 0},
		{"42", 42},
		{"", 0},
		{"3x", 3},
	}
	for _, c := range cases {
		if got := parseUint32(c.in); got != c.want {
			t.Errorf("parseUint32(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
