package crypto

import (
	"bytes"
	"testing"
)

const testPrivKeyTS = "MG0DAgeAAgEgAiAIXJBlj1hQbaH0Eq0DuLlCmH8bl+veTAO2+k9EQjEYSgIgNnImcmKo7ls5mExb6skfK2Tw+u54aeDr0OP1ITsC/50CIA8M5nmDBnmDM/gZ//4AAAAAAAAAAAAAAAAAAAAZRzOI"

// TestIdentityUID is S3 from spec.md §8.
func TestIdentityUID(t *testing.T) {
	key, err := PrivateKeyFromTS(testPrivKeyTS)
	if err != nil {
		t.Fatalf("PrivateKeyFromTS: %v", err)
	}
	uid := key.Public().UID()
	const want = "lks7QL5OVMKo4pZ79cEOI5r5oEA="
	if uid != want {
		t.Fatalf("UID = %q, want %q", uid, want)
	}
}

func TestPrivateKeyShortRoundtrip(t *testing.T) {
	key, err := PrivateKeyFromTS(testPrivKeyTS)
	if err != nil {
		t.Fatalf("PrivateKeyFromTS: %v", err)
	}
	short := key.ToShort()
	key2, err := PrivateKeyFromShort(short)
	if err != nil {
		t.Fatalf("PrivateKeyFromShort: %v", err)
	}
	if !bytes.Equal(key2.ToShort(), short) {
		t.Fatalf("short roundtrip mismatch")
	}
}

func TestPrivateKeyTomcryptRoundtrip(t *testing.T) {
	key, err := PrivateKeyFromTS(testPrivKeyTS)
	if err != nil {
		t.Fatalf("PrivateKeyFromTS: %v", err)
	}
	key2, err := PrivateKeyFromTomcrypt(key.ToTomcrypt())
	if err != nil {
		t.Fatalf("PrivateKeyFromTomcrypt: %v", err)
	}
	if !bytes.Equal(key.ToShort(), key2.ToShort()) {
		t.Fatalf("tomcrypt roundtrip mismatch")
	}
}

func TestPrivateKeyObfuscatedRoundtrip(t *testing.T) {
	key, err := PrivateKeyFromTS(testPrivKeyTS)
	if err != nil {
		t.Fatalf("PrivateKeyFromTS: %v", err)
	}
	obf := key.ToTSObfuscated()
	key2, err := PrivateKeyFromTSObfuscated(obf)
	if err != nil {
		t.Fatalf("PrivateKeyFromTSObfuscated: %v", err)
	}
	if !bytes.Equal(key.ToShort(), key2.ToShort()) {
		t.Fatalf("obfuscated roundtrip mismatch: got %x want %x", key2.ToShort(), key.ToShort())
	}
}

func TestPublicKeyTomcryptRoundtrip(t *testing.T) {
	key, err := PrivateKeyFromTS(testPrivKeyTS)
	if err != nil {
		t.Fatalf("PrivateKeyFromTS: %v", err)
	}
	pub := key.Public()
	pub2, err := PublicKeyFromTomcrypt(pub.ToTomcrypt())
	if err != nil {
		t.Fatalf("PublicKeyFromTomcrypt: %v", err)
	}
	if pub.X.Cmp(pub2.X) != 0 || pub.Y.Cmp(pub2.Y) != 0 {
		t.Fatalf("public key roundtrip mismatch")
	}
}

func TestECDHAgreement(t *testing.T) {
	a, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	b, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	s1, err := a.ECDH(b.Public())
	if err != nil {
		t.Fatalf("a.ECDH: %v", err)
	}
	s2, err := b.ECDH(a.Public())
	if err != nil {
		t.Fatalf("b.ECDH: %v", err)
	}
	if !bytes.Equal(s1, s2) {
		t.Fatalf("ECDH secrets differ: %x vs %x", s1, s2)
	}
}

func TestECDSASignVerify(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	msg := []byte("clientinit nickname=test")
	sig, err := key.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := key.Public().Verify(msg, sig); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := key.Public().Verify([]byte("tampered"), sig); err == nil {
		t.Fatalf("Verify unexpectedly succeeded on tampered message")
	}
}
