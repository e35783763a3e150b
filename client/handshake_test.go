package client

import (
	"math/big"
	"testing"

	"github.com/imxeno/tsclientlib/internal/crypto"
	"github.com/imxeno/tsclientlib/internal/versions"
)

func testVersionRow(t *testing.T) versions.Row {
	t.Helper()
	row, ok := versions.ByVersion("3.5.6", "Linux")
	if !ok {
		t.Fatalf("no built-in version row for 3.5.6/Linux")
	}
	return row
}

func TestInitPayloadRoundtrip(t *testing.T) {
	in := initPayload{step: 4, data: []byte{1, 2, 3, 4}}
	out, err := decodeInitPayload(encodeInitPayload(in))
	if err != nil {
		t.Fatalf("decodeInitPayload: %v", err)
	}
	if out.step != in.step {
		t.Errorf("step = %d, want %d", out.step, in.step)
	}
	if string(out.data) != string(in.data) {
		t.Errorf("data = %v, want %v", out.data, in.data)
	}
}

func TestDecodeInitPayloadEmpty(t *testing.T) {
	if _, err := decodeInitPayload(nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

// TestDHPuzzleSolve checks the repeated-squaring solver against a modulus
// that fits the uint256 fast path and one that forces the big.Int
// fallback, both verified against math/big.Exp directly.
func TestDHPuzzleSolve(t *testing.T) {
	n256, _ := new(big.Int).SetString("fffffffffffffffffffffffffffffffffffffffffffffffffffffeffffffff", 16)
	cases := []struct {
		name string
		x, n *big.Int
	}{
		{"fits-uint256", big.NewInt(7), n256},
		{"wide-modulus", big.NewInt(11), new(big.Int).Lsh(big.NewInt(1), 300)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := dhPuzzle{x: c.x, n: c.n, level: 10}
			got := p.solve()

			exp := new(big.Int).Lsh(big.NewInt(1), 10)
			want := new(big.Int).Exp(c.x, exp, c.n)
			if got.Cmp(want) != 0 {
				t.Fatalf("solve() = %s, want %s", got, want)
			}
		})
	}
}

func TestDecodeDHPuzzleTruncated(t *testing.T) {
	if _, err := decodeDHPuzzle([]byte{0, 0, 0, 1}); err == nil {
		t.Fatalf("expected error for short puzzle")
	}
}

func TestDeriveSessionKeysDistinctDirections(t *testing.T) {
	a, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	b, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	sharedAB, err := a.ECDH(b.Public())
	if err != nil {
		t.Fatalf("ECDH: %v", err)
	}
	sharedBA, err := b.ECDH(a.Public())
	if err != nil {
		t.Fatalf("ECDH: %v", err)
	}
	if string(sharedAB) != string(sharedBA) {
		t.Fatalf("ECDH shared secrets differ between parties")
	}

	c2sA, s2cA := deriveSessionKeys(sharedAB, a.Public(), b.Public())
	if c2sA.Key == s2cA.Key {
		t.Fatalf("c2s and s2c keys must differ")
	}

	// The peer derives the same two directions from its own view of the
	// handshake; what the client calls sendKeys, the server must derive
	// as its recvKeys, and vice versa.
	c2sB, s2cB := deriveSessionKeys(sharedBA, a.Public(), b.Public())
	if c2sA.Key != c2sB.Key || c2sA.BaseNonce != c2sB.BaseNonce {
		t.Fatalf("c2s keys diverged between parties")
	}
	if s2cA.Key != s2cB.Key || s2cA.BaseNonce != s2cB.BaseNonce {
		t.Fatalf("s2c keys diverged between parties")
	}
}

func TestHandshakerStartTransitionsState(t *testing.T) {
	identity := &Identity{}
	var err error
	identity.Key, err = crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}

	h := NewHandshaker(identity, Options{}.WithDefaults(), testVersionRow(t))
	if h.State() != StateInit1Step0 {
		t.Fatalf("initial state = %s, want Init1Step0", h.State())
	}
	payload, err := h.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(payload) == 0 {
		t.Fatalf("Start returned empty payload")
	}
	if h.State() != StateInit1Step2 {
		t.Fatalf("state after Start = %s, want Init1Step2", h.State())
	}

	if _, err := h.Start(); err == nil {
		t.Fatalf("expected error calling Start twice")
	}
}
