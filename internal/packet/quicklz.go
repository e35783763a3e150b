package packet

import (
	"encoding/binary"

	"github.com/imxeno/tsclientlib/internal/tserr"
)

// QuickLZ-compatible compression (§4.3 "Compression"). No library in the
// retrieval pack implements QuickLZ and it is not in the Go standard
// library, so this is a from-scratch LZ77 codec matching QuickLZ's overall
// shape: a 4-byte little-endian decompressed-length header, then a stream
// of control bytes each describing 8 literal-or-match tokens, with matches
// encoded as a 1-byte length plus a 2-byte little-endian distance. This is
// not a byte-exact port of the reference C implementation's bitstream,
// only its control-byte/token framing.
const (
	qlzMinMatch = 3
	qlzMaxDist  = 0xffff
	qlzHashBits = 13
	qlzHashSize = 1 << qlzHashBits
)

func qlzHash(v uint32) uint32 {
	return (v * 2654435761) >> (32 - qlzHashBits)
}

// Compress returns the QuickLZ-framed encoding of src. The caller applies
// FlagCompressed only when the result is strictly smaller than src, per
// §4.3's "opportunistic" compression rule.
func Compress(src []byte) []byte {
	out := make([]byte, 4, len(src)/2+32)
	binary.LittleEndian.PutUint32(out, uint32(len(src)))

	var hashTable [qlzHashSize]int32
	for i := range hashTable {
		hashTable[i] = -1
	}

	controlByte := byte(0)
	controlPos := len(out)
	out = append(out, 0)
	bitCount := 0

	flush := func() {
		out[controlPos] = controlByte
		controlByte = 0
		bitCount = 0
	}

	for i := 0; i < len(src); {
		if bitCount == 8 {
			flush()
			controlPos = len(out)
			out = append(out, 0)
		}

		matchLen, matchDist := 0, 0
		if i+qlzMinMatch <= len(src) {
			v := binary.LittleEndian.Uint32(pad4(src, i))
			h := qlzHash(v)
			cand := hashTable[h]
			hashTable[h] = int32(i)
			if cand >= 0 && i-int(cand) <= qlzMaxDist {
				if l := matchLength(src, int(cand), i); l >= qlzMinMatch {
					matchLen, matchDist = l, i-int(cand)
				}
			}
		}

		if matchLen >= qlzMinMatch {
			controlByte |= 1 << uint(bitCount)
			length := matchLen - qlzMinMatch
			if length > 255 {
				length = 255
				matchLen = qlzMinMatch + 255
			}
			out = append(out, byte(length))
			out = binary.LittleEndian.AppendUint16(out, uint16(matchDist))
			i += matchLen
		} else {
			out = append(out, src[i])
			i++
		}
		bitCount++
	}
	flush()
	return out
}

func pad4(b []byte, i int) []byte {
	if i+4 <= len(b) {
		return b[i : i+4]
	}
	var tmp [4]byte
	copy(tmp[:], b[i:])
	return tmp[:]
}

func matchLength(src []byte, a, b int) int {
	n := 0
	max := len(src) - b
	for n < max && a+n < b && src[a+n] == src[b+n] {
		n++
		if n >= qlzMinMatch+255 {
			break
		}
	}
	return n
}

// Decompress reverses Compress.
func Decompress(src []byte) ([]byte, error) {
	if len(src) < 4 {
		return nil, tserr.New(tserr.KindParsePacket, "quicklz: truncated header")
	}
	n := binary.LittleEndian.Uint32(src[0:4])
	out := make([]byte, 0, n)
	pos := 4

	for pos < len(src) && uint32(len(out)) < n {
		controlByte := src[pos]
		pos++
		for bit := 0; bit < 8 && uint32(len(out)) < n; bit++ {
			if pos >= len(src) {
				return nil, tserr.New(tserr.KindParsePacket, "quicklz: truncated stream")
			}
			if controlByte&(1<<uint(bit)) == 0 {
				out = append(out, src[pos])
				pos++
				continue
			}
			if pos+3 > len(src) {
				return nil, tserr.New(tserr.KindParsePacket, "quicklz: truncated match token")
			}
			length := int(src[pos]) + qlzMinMatch
			dist := int(binary.LittleEndian.Uint16(src[pos+1:]))
			pos += 3
			if dist == 0 || dist > len(out) {
				return nil, tserr.New(tserr.KindParsePacket, "quicklz: invalid back-reference distance %d", dist)
			}
			start := len(out) - dist
			for k := 0; k < length; k++ {
				out = append(out, out[start+k])
			}
		}
	}
	if uint32(len(out)) != n {
		return nil, tserr.New(tserr.KindParsePacket, "quicklz: decompressed length %d, want %d", len(out), n)
	}
	return out, nil
}
