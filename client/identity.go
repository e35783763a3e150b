package client

import (
	"strconv"
	"strings"

	"github.com/imxeno/tsclientlib/internal/crypto"
	"github.com/imxeno/tsclientlib/internal/tserr"
)

// Identity is a private key plus the hash-cash offset already found for
// it, the pair an identity file actually persists (§6 "Identity file
// format").
type Identity struct {
	Key    *crypto.PrivateKey
	Offset uint64
}

// Level returns the identity's current proof-of-work level.
func (id *Identity) Level() int {
	return crypto.HashCashLevel(id.Key.Public(), id.Offset)
}

// ParseIdentity decodes the on-disk identity file format: a decimal
// offset, an ASCII 'V', then the TS-obfuscated base64 private key blob
// (§6, §3 "Identity key (private)").
func ParseIdentity(s string) (*Identity, error) {
	i := strings.IndexByte(s, 'V')
	if i < 0 {
		return nil, tserr.New(tserr.KindParseCommand, "identity: missing 'V' separator")
	}
	offset, err := strconv.ParseUint(s[:i], 10, 64)
	if err != nil {
		return nil, tserr.Wrap(tserr.KindParseCommand, err, "identity: invalid offset %q", s[:i])
	}
	key, err := crypto.ImportPrivateKey([]byte(s[i+1:]))
	if err != nil {
		return nil, err
	}
	return &Identity{Key: key, Offset: offset}, nil
}

// String encodes the identity back to the on-disk format.
func (id *Identity) String() string {
	return strconv.FormatUint(id.Offset, 10) + "V" + id.Key.ToTSObfuscated()
}
