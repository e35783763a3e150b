package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"

	"github.com/imxeno/tsclientlib/internal/tserr"
)

// EaxEncrypt implements the EAX-mode authenticated encryption from §4.1:
// AES-128-CTR for the cipher stream, AES-128 CMAC for N/H/C, and
// tag = N xor H xor C. It returns (tag, ciphertext); tag is truncated to
// macLen bytes as the packet header's MAC field requires.
func EaxEncrypt(key, nonce, header, plaintext []byte, macLen int) (tag, ciphertext []byte, err error) {
	n, err := cmacWithIV(key, 0, nonce)
	if err != nil {
		return nil, nil, tserr.Wrap(tserr.KindCrypto, err, "eax: cmac(nonce)")
	}
	h, err := cmacWithIV(key, 1, header)
	if err != nil {
		return nil, nil, tserr.Wrap(tserr.KindCrypto, err, "eax: cmac(header)")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, tserr.Wrap(tserr.KindCrypto, err, "eax: new cipher")
	}
	stream := cipher.NewCTR(block, n)
	ciphertext = make([]byte, len(plaintext))
	stream.XORKeyStream(ciphertext, plaintext)

	c, err := cmacWithIV(key, 2, ciphertext)
	if err != nil {
		return nil, nil, tserr.Wrap(tserr.KindCrypto, err, "eax: cmac(ciphertext)")
	}

	full := make([]byte, 16)
	for i := range full {
		full[i] = n[i] ^ h[i] ^ c[i]
	}
	if macLen > 16 {
		macLen = 16
	}
	return full[:macLen], ciphertext, nil
}

// EaxDecrypt verifies and decrypts an EAX-protected packet. It returns
// tserr.ErrWrongMac (via a *tserr.Error of KindWrongMac) on tag mismatch,
// and never touches the ciphertext buffer before the tag has been checked.
func EaxDecrypt(key, nonce, header, ciphertext, tag []byte) ([]byte, error) {
	n, err := cmacWithIV(key, 0, nonce)
	if err != nil {
		return nil, tserr.Wrap(tserr.KindCrypto, err, "eax: cmac(nonce)")
	}
	h, err := cmacWithIV(key, 1, header)
	if err != nil {
		return nil, tserr.Wrap(tserr.KindCrypto, err, "eax: cmac(header)")
	}
	c, err := cmacWithIV(key, 2, ciphertext)
	if err != nil {
		return nil, tserr.Wrap(tserr.KindCrypto, err, "eax: cmac(ciphertext)")
	}

	full := make([]byte, 16)
	for i := range full {
		full[i] = n[i] ^ h[i] ^ c[i]
	}
	if subtle.ConstantTimeCompare(full[:len(tag)], tag) != 1 {
		return nil, &tserr.Error{Kind: tserr.KindWrongMac}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, tserr.Wrap(tserr.KindCrypto, err, "eax: new cipher")
	}
	stream := cipher.NewCTR(block, n)
	plaintext := make([]byte, len(ciphertext))
	stream.XORKeyStream(plaintext, ciphertext)
	return plaintext, nil
}
