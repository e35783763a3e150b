package crypto

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/imxeno/tsclientlib/internal/tserr"
)

// TestEaxRoundtrip is property 2 from spec.md §8.
func TestEaxRoundtrip(t *testing.T) {
	key := make([]byte, 16)
	nonce := make([]byte, 16)
	header := []byte{0xde, 0xad, 0xbe, 0xef, 1, 2, 3, 4}
	payload := []byte("clientinit nickname=foo version=1.2.3")
	rand.Read(key)
	rand.Read(nonce)

	tag, cipher, err := EaxEncrypt(key, nonce, header, payload, 8)
	if err != nil {
		t.Fatalf("EaxEncrypt: %v", err)
	}
	plain, err := EaxDecrypt(key, nonce, header, cipher, tag)
	if err != nil {
		t.Fatalf("EaxDecrypt: %v", err)
	}
	if !bytes.Equal(plain, payload) {
		t.Fatalf("roundtrip mismatch: got %q want %q", plain, payload)
	}
}

func TestEaxDetectsTampering(t *testing.T) {
	key := make([]byte, 16)
	nonce := make([]byte, 16)
	header := []byte("hdr")
	payload := []byte("payload bytes here")
	rand.Read(key)
	rand.Read(nonce)

	tag, cipher, err := EaxEncrypt(key, nonce, header, payload, 8)
	if err != nil {
		t.Fatalf("EaxEncrypt: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(tag, cipher, nonce, header []byte) ([]byte, []byte, []byte, []byte)
	}{
		{"flip cipher bit", func(tag, c, n, h []byte) ([]byte, []byte, []byte, []byte) {
			c2 := append([]byte(nil), c...)
			c2[0] ^= 1
			return tag, c2, n, h
		}},
		{"flip tag bit", func(tag, c, n, h []byte) ([]byte, []byte, []byte, []byte) {
			t2 := append([]byte(nil), tag...)
			t2[0] ^= 1
			return t2, c, n, h
		}},
		{"flip nonce bit", func(tag, c, n, h []byte) ([]byte, []byte, []byte, []byte) {
			n2 := append([]byte(nil), n...)
			n2[0] ^= 1
			return tag, c, n2, h
		}},
		{"flip header bit", func(tag, c, n, h []byte) ([]byte, []byte, []byte, []byte) {
			h2 := append([]byte(nil), h...)
			h2[0] ^= 1
			return tag, c, n, h2
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tt, cc, nn, hh := c.mutate(tag, cipher, nonce, header)
			_, err := EaxDecrypt(key, nn, hh, cc, tt)
			if err == nil {
				t.Fatalf("expected WrongMac error")
			}
			var tsErr *tserr.Error
			if !errors.As(err, &tsErr) || tsErr.Kind != tserr.KindWrongMac {
				t.Fatalf("expected KindWrongMac, got %v", err)
			}
		})
	}
}
