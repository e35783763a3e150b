package packet

import "testing"

func TestHeaderRoundtripC2S(t *testing.T) {
	h := Header{PID: 1234, CID: 7, Type: TypeCommand, Flags: FlagNewProtocol}
	buf := EncodeHeader(h, ClientToServer)
	got, n, err := DecodeHeader(buf, ClientToServer)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d, want %d", n, len(buf))
	}
	got.MAC = h.MAC
	if got != h {
		t.Fatalf("got %+v, want %+v", got, h)
	}
}

func TestHeaderRoundtripS2CHasNoCID(t *testing.T) {
	h := Header{PID: 9, Type: TypePing}
	buf := EncodeHeader(h, ServerToClient)
	if len(buf) != wireLen(ServerToClient) {
		t.Fatalf("unexpected header length %d", len(buf))
	}
	got, _, err := DecodeHeader(buf, ServerToClient)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if got.CID != 0 {
		t.Fatalf("expected zero CID for s2c, got %d", got.CID)
	}
}

func TestDecodeHeaderShortBuffer(t *testing.T) {
	if _, _, err := DecodeHeader([]byte{1, 2, 3}, ClientToServer); err == nil {
		t.Fatalf("expected error on short buffer")
	}
}
