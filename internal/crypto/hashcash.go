package crypto

import (
	"context"
	"crypto/sha1"
	"fmt"
	"strconv"

	"github.com/imxeno/tsclientlib/internal/tserr"
)

// HashCashLevel returns the number of leading zero bits of
// SHA1(to_ts(pub) || decimal_ascii(offset)), per §4.1. §3's informal
// restatement describes the same proof-of-work loosely as an "8-byte
// little-endian concatenation of offset with the public key"; §4.1 gives
// the precise function signature actually used by the handshake (offset
// rendered as its decimal ASCII text, not raw bytes) and is what this
// module implements — see DESIGN.md for the reconciliation.
func HashCashLevel(pub *PublicKey, offset uint64) int {
	data := append([]byte(pub.ToTS()), []byte(strconv.FormatUint(offset, 10))...)
	sum := sha1.Sum(data)
	return leadingZeroBits(sum[:])
}

func leadingZeroBits(hash []byte) int {
	count := 0
	for _, b := range hash {
		if b == 0 {
			count += 8
			continue
		}
		for mask := byte(0x80); mask != 0; mask >>= 1 {
			if b&mask != 0 {
				return count
			}
			count++
		}
		return count
	}
	return count
}

// FindHashCash searches, starting at offset 0, for the smallest offset
// whose HashCashLevel is >= level. It is CPU-bound and cancellable: ctx is
// checked periodically so a caller can bound wall-clock time or give up
// when the connection attempt is abandoned.
func FindHashCash(ctx context.Context, pub *PublicKey, level uint8) (uint64, error) {
	for offset := uint64(0); ; offset++ {
		if offset%4096 == 0 {
			select {
			case <-ctx.Done():
				return 0, &tserr.Error{Kind: tserr.KindCancelled, Reason: fmt.Sprintf("hash cash search for level %d", level)}
			default:
			}
		}
		if HashCashLevel(pub, offset) >= int(level) {
			return offset, nil
		}
	}
}
