package crypto

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/imxeno/tsclientlib/internal/tserr"
)

// Ed25519PublicKey wraps the 32-byte public key used in the license chain
// (§4.1, "Ed25519 public key"); this module never holds an Ed25519 private
// key, only verifies signatures made by server/license keys.
type Ed25519PublicKey struct {
	raw ed25519.PublicKey
}

// Ed25519PublicKeyFromBase64 decodes a base64-encoded Ed25519 public key.
func Ed25519PublicKeyFromBase64(s string) (*Ed25519PublicKey, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, tserr.Wrap(tserr.KindCrypto, err, "ed25519: invalid base64")
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, tserr.New(tserr.KindCrypto, "ed25519: expected %d bytes, got %d", ed25519.PublicKeySize, len(b))
	}
	return &Ed25519PublicKey{raw: ed25519.PublicKey(b)}, nil
}

// ToBase64 encodes the key back to base64.
func (k *Ed25519PublicKey) ToBase64() string { return base64.StdEncoding.EncodeToString(k.raw) }

// Verify checks an Ed25519 signature.
func (k *Ed25519PublicKey) Verify(message, signature []byte) error {
	if !ed25519.Verify(k.raw, message, signature) {
		return &tserr.Error{Kind: tserr.KindWrongSignature}
	}
	return nil
}

// Bytes returns the raw 32-byte public key.
func (k *Ed25519PublicKey) Bytes() []byte { return append([]byte(nil), k.raw...) }
