package packet

import (
	"bytes"
	"testing"
	"time"
)

func TestReassemblerPassthroughSinglePacket(t *testing.T) {
	r := NewReassembler()
	h := Header{Type: TypeCommand, PID: 1}
	got, done, err := r.Feed(h, []byte("hello"), time.Now())
	if err != nil || !done || string(got) != "hello" {
		t.Fatalf("got %q, %v, %v", got, done, err)
	}
}

func TestReassemblerJoinsFragments(t *testing.T) {
	r := NewReassembler()
	now := time.Now()

	h0 := Header{Type: TypeCommand, PID: 10, Flags: FlagFragmented}
	if _, done, err := r.Feed(h0, []byte("ab"), now); err != nil || done {
		t.Fatalf("start fragment: done=%v err=%v", done, err)
	}

	h1 := Header{Type: TypeCommand, PID: 11}
	if _, done, err := r.Feed(h1, []byte("cd"), now); err != nil || done {
		t.Fatalf("middle fragment: done=%v err=%v", done, err)
	}

	h2 := Header{Type: TypeCommand, PID: 12, Flags: FlagFragmented}
	got, done, err := r.Feed(h2, []byte("ef"), now)
	if err != nil {
		t.Fatalf("end fragment: %v", err)
	}
	if !done {
		t.Fatalf("expected completion on terminating fragment")
	}
	if !bytes.Equal(got, []byte("abcdef")) {
		t.Fatalf("joined = %q, want %q", got, "abcdef")
	}
}

func TestReassemblerExpiresStale(t *testing.T) {
	r := NewReassembler()
	now := time.Now()
	h0 := Header{Type: TypeCommandLow, PID: 1, Flags: FlagFragmented}
	if _, _, err := r.Feed(h0, []byte("x"), now); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	expired := r.ExpireStale(now.Add(FragmentTimeout + time.Second))
	if len(expired) != 1 || expired[0] != TypeCommandLow {
		t.Fatalf("expired = %+v", expired)
	}
	if _, ok := r.openKeyFor[TypeCommandLow]; ok {
		t.Fatalf("expected buffer dropped after expiry")
	}
}

func TestReassemblerOversizeFails(t *testing.T) {
	r := NewReassembler()
	now := time.Now()
	h0 := Header{Type: TypeCommand, PID: 0, Flags: FlagFragmented}
	if _, _, err := r.Feed(h0, []byte{0}, now); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	big := make([]byte, MaxFragmentedMessageBytes+1)
	h1 := Header{Type: TypeCommand, PID: 1}
	if _, _, err := r.Feed(h1, big, now); err == nil {
		t.Fatalf("expected oversize reassembly to fail")
	}
}

func TestSplitSetsFragmentedOnEndsOnly(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), MaxPayloadBytes*2+10)
	frags := Split(payload)
	if len(frags) < 3 {
		t.Fatalf("expected at least 3 fragments, got %d", len(frags))
	}
	if !frags[0].Fragmented || !frags[len(frags)-1].Fragmented {
		t.Fatalf("expected first and last fragment to carry FRAGMENTED")
	}
	for _, f := range frags[1 : len(frags)-1] {
		if f.Fragmented {
			t.Fatalf("expected middle fragments to not carry FRAGMENTED")
		}
	}
	var rejoined []byte
	for _, f := range frags {
		rejoined = append(rejoined, f.Data...)
	}
	if !bytes.Equal(rejoined, payload) {
		t.Fatalf("rejoined payload mismatch")
	}
}

func TestSplitSmallPayloadIsSingleUnfragmented(t *testing.T) {
	frags := Split([]byte("short"))
	if len(frags) != 1 || frags[0].Fragmented {
		t.Fatalf("unexpected split of small payload: %+v", frags)
	}
}
