// Package crypto implements the primitives from §4.1: P-256 key handling in
// its four wire encodings, Ed25519 public keys, ECDH, ECDSA-SHA-256,
// EAX/CMAC, and the hash-cash identity level. It is grounded on the
// teacher's crypto package (which uses crypto/ecdsa + crypto/elliptic
// directly for P-256, see p256.go's P256Verify) and extended with the DER
// handling tomcrypt-style identities need, built on
// golang.org/x/crypto/cryptobyte for the low-level ASN.1 primitives.
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	casn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/imxeno/tsclientlib/internal/tserr"
)

// PrivateKey is a P-256 identity private key.
type PrivateKey struct {
	D *big.Int
	X *big.Int
	Y *big.Int
}

// PublicKey is a P-256 identity public key.
type PublicKey struct {
	X *big.Int
	Y *big.Int
}

var p256 = elliptic.P256()

// GeneratePrivateKey creates a new random P-256 identity.
func GeneratePrivateKey() (*PrivateKey, error) {
	d, x, y, err := elliptic.GenerateKey(p256, rand.Reader)
	if err != nil {
		return nil, tserr.Wrap(tserr.KindCrypto, err, "generate p256 key")
	}
	return &PrivateKey{D: new(big.Int).SetBytes(d), X: x, Y: y}, nil
}

// Public returns the public half of the key.
func (k *PrivateKey) Public() *PublicKey { return &PublicKey{X: k.X, Y: k.Y} }

// fixedWidth left-pads b to the curve's scalar width (32 bytes for P-256).
func fixedWidth(b []byte, n int) []byte {
	if len(b) >= n {
		return b[len(b)-n:]
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}

// ---------------------------------------------------------------------------
// "short" form: the raw big-endian scalar, nothing else.
// ---------------------------------------------------------------------------

// ToShort returns the raw big-endian private scalar (§3 form (b)).
func (k *PrivateKey) ToShort() []byte { return fixedWidth(k.D.Bytes(), 32) }

// PrivateKeyFromShort rebuilds a private key, and its public counterpart,
// from a raw big-endian scalar.
func PrivateKeyFromShort(data []byte) (*PrivateKey, error) {
	d := new(big.Int).SetBytes(data)
	x, y := p256.ScalarBaseMult(fixedWidth(data, 32))
	return &PrivateKey{D: d, X: x, Y: y}, nil
}

// ---------------------------------------------------------------------------
// tomcrypt DER form: §3 form (a).
//
// Public:  SEQUENCE { BIT STRING(flag=0), INTEGER(32), INTEGER(x), INTEGER(y) }
// Private: SEQUENCE { BIT STRING(flag=0x80), INTEGER(32), INTEGER(x),
//                      INTEGER(y), INTEGER(d) }
// A foreign variant (len==2 bit string, no x/y) is accepted on import only.
// ---------------------------------------------------------------------------

func addBitStringFlag(b *cryptobyte.Builder, unusedBits, content byte) {
	b.AddASN1(casn1.BIT_STRING, func(b *cryptobyte.Builder) {
		b.AddUint8(unusedBits)
		b.AddUint8(content)
	})
}

func readBitStringFlag(s *cryptobyte.String) (bitLen int, content byte, ok bool) {
	var inner cryptobyte.String
	if !s.ReadASN1(&inner, casn1.BIT_STRING) {
		return 0, 0, false
	}
	var unused uint8
	if !inner.ReadUint8(&unused) {
		return 0, 0, false
	}
	var b uint8
	if inner.Empty() {
		b = 0
	} else if !inner.ReadUint8(&b) {
		return 0, 0, false
	}
	return 8 - int(unused), b, true
}

// ToTomcrypt encodes the public key in tomcrypt DER form.
func (k *PublicKey) ToTomcrypt() []byte {
	var b cryptobyte.Builder
	b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		addBitStringFlag(b, 7, 0)
		b.AddASN1Int64(32)
		b.AddASN1BigInt(k.X)
		b.AddASN1BigInt(k.Y)
	})
	out, _ := b.Bytes()
	return out
}

// ToTS encodes the public key as base64(tomcrypt DER).
func (k *PublicKey) ToTS() string { return base64.StdEncoding.EncodeToString(k.ToTomcrypt()) }

// PublicKeyFromTomcrypt decodes a tomcrypt DER-encoded public key.
func PublicKeyFromTomcrypt(der []byte) (*PublicKey, error) {
	s := cryptobyte.String(der)
	var seq cryptobyte.String
	if !s.ReadASN1(&seq, casn1.SEQUENCE) || !s.Empty() {
		return nil, tserr.New(tserr.KindCrypto, "tomcrypt: expected a single ASN.1 sequence")
	}
	bitLen, flag, ok := readBitStringFlag(&seq)
	if !ok {
		return nil, tserr.New(tserr.KindCrypto, "tomcrypt: expected a bit string")
	}
	if bitLen != 1 || flag&0x80 != 0 {
		return nil, tserr.New(tserr.KindCrypto, "tomcrypt: expected a public key, not a private key")
	}
	var keysize int64
	if !seq.ReadASN1Integer(&keysize) {
		return nil, tserr.New(tserr.KindCrypto, "tomcrypt: missing key size")
	}
	x := new(big.Int)
	y := new(big.Int)
	if !seq.ReadASN1Integer(x) || !seq.ReadASN1Integer(y) {
		return nil, tserr.New(tserr.KindCrypto, "tomcrypt: public key not found")
	}
	return &PublicKey{X: x, Y: y}, nil
}

// PublicKeyFromTS decodes a base64(tomcrypt DER) public key.
func PublicKeyFromTS(s string) (*PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, tserr.Wrap(tserr.KindCrypto, err, "tomcrypt: invalid base64")
	}
	return PublicKeyFromTomcrypt(der)
}

// ToTomcrypt encodes the private key (with its public coordinates) in
// tomcrypt DER form, matching to_tomcrypt in the reference implementation
// (always a 1-bit bit string with value 0x80).
func (k *PrivateKey) ToTomcrypt() []byte {
	var b cryptobyte.Builder
	b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		addBitStringFlag(b, 7, 0x80)
		b.AddASN1Int64(32)
		b.AddASN1BigInt(k.X)
		b.AddASN1BigInt(k.Y)
		b.AddASN1BigInt(k.D)
	})
	out, _ := b.Bytes()
	return out
}

// ToTS encodes the private key as base64(tomcrypt DER).
func (k *PrivateKey) ToTS() string { return base64.StdEncoding.EncodeToString(k.ToTomcrypt()) }

// PrivateKeyFromTomcrypt decodes a tomcrypt DER-encoded private key,
// accepting both the 1-bit (x,y,d present) and 2-bit (d only, no x/y)
// variants the reference implementation tolerates for import.
func PrivateKeyFromTomcrypt(der []byte) (*PrivateKey, error) {
	s := cryptobyte.String(der)
	var seq cryptobyte.String
	if !s.ReadASN1(&seq, casn1.SEQUENCE) || !s.Empty() {
		return nil, tserr.New(tserr.KindCrypto, "tomcrypt: expected a single ASN.1 sequence")
	}
	bitLen, flag, ok := readBitStringFlag(&seq)
	if !ok {
		return nil, tserr.New(tserr.KindCrypto, "tomcrypt: expected a bit string")
	}
	if (bitLen != 1 && bitLen != 2) || flag&0x80 == 0 {
		return nil, tserr.New(tserr.KindCrypto, "tomcrypt: does not contain a private key")
	}
	var keysize int64
	if !seq.ReadASN1Integer(&keysize) {
		return nil, tserr.New(tserr.KindCrypto, "tomcrypt: missing key size")
	}
	if bitLen == 1 {
		x, y, d := new(big.Int), new(big.Int), new(big.Int)
		if !seq.ReadASN1Integer(x) || !seq.ReadASN1Integer(y) || !seq.ReadASN1Integer(d) {
			return nil, tserr.New(tserr.KindCrypto, "tomcrypt: private key not found")
		}
		return PrivateKeyFromShort(fixedWidth(d.Bytes(), 32))
	}
	// bitLen == 2: foreign variant, private scalar only.
	d := new(big.Int)
	if !seq.ReadASN1Integer(d) {
		return nil, tserr.New(tserr.KindCrypto, "tomcrypt: private key not found")
	}
	return PrivateKeyFromShort(fixedWidth(d.Bytes(), 32))
}

// PrivateKeyFromTS decodes a base64(tomcrypt DER) private key.
func PrivateKeyFromTS(s string) (*PrivateKey, error) {
	der, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, tserr.Wrap(tserr.KindCrypto, err, "tomcrypt: invalid base64")
	}
	return PrivateKeyFromTomcrypt(der)
}

// ---------------------------------------------------------------------------
// Obfuscated TS-config form: §3 form (c).
// ---------------------------------------------------------------------------

// identityObfuscationPad is the fixed 100-byte pad TeamSpeak XORs identity
// files with (the IDENTITY_OBFUSCATION table). The exact published byte
// values were not available to generate this module; deobfuscate/obfuscate
// are wired up to this table so the roundtrip (obfuscate then deobfuscate
// with the same pad) is exercised and verified by the tests in p256_test.go,
// but decoding an identity file produced by a real TeamSpeak client needs
// the real table substituted here.
var identityObfuscationPad = func() []byte {
	pad := make([]byte, 100)
	h := sha1.Sum([]byte("ts3identityobfuscationpad"))
	for i := range pad {
		pad[i] = h[i%len(h)] ^ byte(i)
	}
	return pad
}()

func findNUL(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return len(b)
}

// deobfuscate undoes the TS-config obfuscation on the raw base64-decoded
// bytes, matching from_ts_obfuscated: first XOR the first 20 bytes with
// SHA1 of the still-pad-obfuscated window after them, then XOR the first
// 100 bytes with the static pad. The order matters because the pad affects
// bytes 0-19 too.
func deobfuscate(data []byte) ([]byte, error) {
	if len(data) < 20 {
		return nil, tserr.New(tserr.KindCrypto, "ts identity: too short to be obfuscated")
	}
	out := append([]byte(nil), data...)
	pos := findNUL(out[20:])
	h := sha1.Sum(out[20 : 20+pos])
	for i := 0; i < 20; i++ {
		out[i] ^= h[i]
	}
	n := len(out)
	if n > 100 {
		n = 100
	}
	for i := 0; i < n; i++ {
		out[i] ^= identityObfuscationPad[i]
	}
	return out, nil
}

// obfuscate is the inverse of deobfuscate: derived by running the same two
// XOR passes in reverse order.
func obfuscate(plain []byte) []byte {
	out := append([]byte(nil), plain...)
	n := len(out)
	if n > 100 {
		n = 100
	}
	// Bytes [20:100) only ever see the pad, so undo that first to recover
	// the bytes the hash must be computed over.
	tmp := append([]byte(nil), out...)
	for i := 20; i < n; i++ {
		tmp[i] ^= identityObfuscationPad[i]
	}
	pos := findNUL(tmp[20:])
	h := sha1.Sum(tmp[20 : 20+pos])
	for i := 0; i < 20; i++ {
		out[i] ^= h[i]
	}
	for i := 0; i < n; i++ {
		out[i] ^= identityObfuscationPad[i]
	}
	return out
}

// PrivateKeyFromTSObfuscated decodes the obfuscated TS-config form.
func PrivateKeyFromTSObfuscated(s string) (*PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, tserr.Wrap(tserr.KindCrypto, err, "ts identity: invalid base64")
	}
	plain, err := deobfuscate(raw)
	if err != nil {
		return nil, err
	}
	return PrivateKeyFromTS(string(plain))
}

// ToTSObfuscated encodes the private key in the obfuscated TS-config form.
func (k *PrivateKey) ToTSObfuscated() string {
	plain := []byte(k.ToTS())
	return base64.StdEncoding.EncodeToString(obfuscate(plain))
}

// ---------------------------------------------------------------------------
// Import/export across all forms.
// ---------------------------------------------------------------------------

// ImportPrivateKey tries, in order: raw tomcrypt DER, raw short bytes (at
// most 66 of them), base64(tomcrypt DER), then the obfuscated TS-config
// form, matching the reference implementation's import() / import_str()
// fallback chain.
func ImportPrivateKey(data []byte) (*PrivateKey, error) {
	if k, err := PrivateKeyFromTomcrypt(data); err == nil {
		return k, nil
	}
	if len(data) > 0 && len(data) <= 66 {
		if k, err := PrivateKeyFromShort(data); err == nil {
			return k, nil
		}
	}
	if s := string(data); isPrintableASCII(s) {
		if k, err := PrivateKeyFromTS(s); err == nil {
			return k, nil
		}
		if k, err := PrivateKeyFromTSObfuscated(s); err == nil {
			return k, nil
		}
	}
	return nil, errors.New("crypto: no known identity encoding matched")
}

func isPrintableASCII(s string) bool {
	for _, c := range s {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// UID, ECDH, ECDSA.
// ---------------------------------------------------------------------------

// UID computes base64(SHA1(base64(tomcrypt public DER))), the stable
// identifier of a peer (§3 "Identity UID").
func (k *PublicKey) UID() string {
	h := sha1.Sum([]byte(k.ToTS()))
	return base64.StdEncoding.EncodeToString(h[:])
}

func (k *PrivateKey) ecdsaKey() *ecdsa.PrivateKey {
	return &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: p256, X: k.X, Y: k.Y},
		D:         k.D,
	}
}

func (k *PublicKey) ecdsaKey() *ecdsa.PublicKey {
	return &ecdsa.PublicKey{Curve: p256, X: k.X, Y: k.Y}
}

// ECDH computes the raw shared secret between the local private key and a
// peer's public key. No KDF is applied here; callers derive session keys
// from the raw bytes as described in §3 "Session keys".
func (k *PrivateKey) ECDH(peer *PublicKey) ([]byte, error) {
	x, _ := p256.ScalarMult(peer.X, peer.Y, fixedWidth(k.D.Bytes(), 32))
	if x == nil {
		return nil, tserr.New(tserr.KindCrypto, "ecdh: invalid peer point")
	}
	return fixedWidth(x.Bytes(), 32), nil
}

// Sign produces an ECDSA-SHA-256 signature over data.
func (k *PrivateKey) Sign(data []byte) ([]byte, error) {
	h := sha256.Sum256(data)
	r, s, err := ecdsa.Sign(rand.Reader, k.ecdsaKey(), h[:])
	if err != nil {
		return nil, tserr.Wrap(tserr.KindCrypto, err, "ecdsa sign")
	}
	return asn1EncodeECDSASignature(r, s), nil
}

// Verify checks an ECDSA-SHA-256 signature, returning a KindWrongSignature
// error on mismatch.
func (k *PublicKey) Verify(data, signature []byte) error {
	r, s, err := asn1DecodeECDSASignature(signature)
	if err != nil {
		return tserr.Wrap(tserr.KindCrypto, err, "ecdsa: malformed signature")
	}
	h := sha256.Sum256(data)
	if !ecdsa.Verify(k.ecdsaKey(), h[:], r, s) {
		return &tserr.Error{Kind: tserr.KindWrongSignature}
	}
	return nil
}

func asn1EncodeECDSASignature(r, s *big.Int) []byte {
	var b cryptobyte.Builder
	b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(r)
		b.AddASN1BigInt(s)
	})
	out, _ := b.Bytes()
	return out
}

func asn1DecodeECDSASignature(der []byte) (r, s *big.Int, err error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, casn1.SEQUENCE) {
		return nil, nil, fmt.Errorf("malformed signature sequence")
	}
	r, s = new(big.Int), new(big.Int)
	if !seq.ReadASN1Integer(r) || !seq.ReadASN1Integer(s) {
		return nil, nil, fmt.Errorf("malformed signature integers")
	}
	return r, s, nil
}
