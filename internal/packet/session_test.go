package packet

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func randKeys() Keys {
	var k Keys
	rand.Read(k.Key[:])
	rand.Read(k.BaseNonce[:])
	return k
}

// TestCodecRoundtrip exercises a client encoding a COMMAND packet and a
// server-side codec with mirrored keys decoding it.
func TestCodecRoundtrip(t *testing.T) {
	c2sKeys := randKeys()
	s2cKeys := randKeys()

	client := NewCodec(ClientToServer, c2sKeys, s2cKeys)
	server := NewCodec(ServerToClient, s2cKeys, c2sKeys)

	payload := []byte("clientinit nickname=foo")
	wire, err := client.Encode(EncodeArgs{Type: TypeCommand, CID: 3}, payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	h, got, err := server.Decode(wire)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload = %q, want %q", got, payload)
	}
	if h.CID != 3 || h.Type != TypeCommand {
		t.Fatalf("unexpected header %+v", h)
	}
}

// TestCodecRejectsDuplicate is property 4 from spec.md §8: a PID already
// delivered is rejected the second time it arrives.
func TestCodecRejectsDuplicate(t *testing.T) {
	c2sKeys := randKeys()
	s2cKeys := randKeys()
	client := NewCodec(ClientToServer, c2sKeys, s2cKeys)
	server := NewCodec(ServerToClient, s2cKeys, c2sKeys)

	wire, err := client.Encode(EncodeArgs{Type: TypeCommand}, []byte("a"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, _, err := server.Decode(wire); err != nil {
		t.Fatalf("first Decode: %v", err)
	}
	if _, _, err := server.Decode(wire); err == nil {
		t.Fatalf("expected duplicate pid to be rejected")
	}
}

func TestCodecAcceptsNextPidOnce(t *testing.T) {
	c2sKeys := randKeys()
	s2cKeys := randKeys()
	client := NewCodec(ClientToServer, c2sKeys, s2cKeys)
	server := NewCodec(ServerToClient, s2cKeys, c2sKeys)

	for i := 0; i < 5; i++ {
		wire, err := client.Encode(EncodeArgs{Type: TypeCommand}, []byte{byte(i)})
		if err != nil {
			t.Fatalf("Encode %d: %v", i, err)
		}
		if _, _, err := server.Decode(wire); err != nil {
			t.Fatalf("Decode %d: %v", i, err)
		}
	}
}

func TestUnencryptedPacketUsesSentinelMAC(t *testing.T) {
	keys := randKeys()
	client := NewCodec(ClientToServer, keys, keys)
	wire, err := client.Encode(EncodeArgs{Type: TypeInit1, Flags: FlagUnencrypted}, []byte("init data"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(wire[0:MacLen], sentinelMAC[:]) {
		t.Fatalf("expected sentinel MAC, got %x", wire[0:MacLen])
	}
	if !bytes.Contains(wire, []byte("init data")) {
		t.Fatalf("unencrypted payload should be verbatim on the wire")
	}
}
