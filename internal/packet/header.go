package packet

import (
	"encoding/binary"

	"github.com/imxeno/tsclientlib/internal/tserr"
)

// MacLen is the EAX tag width carried in every header (§4.3).
const MacLen = 8

// sentinelMAC is used verbatim in the MAC field of an UNENCRYPTED packet
// (handshake INIT1 packets), since there is no session key yet to derive a
// real tag from.
var sentinelMAC = [MacLen]byte{'T', 'S', '3', 'I', 'N', 'I', 'T', '1'}

// Header is the decoded form of the fixed per-packet prefix. CID is only
// meaningful (and only present on the wire) for client->server packets.
type Header struct {
	MAC   [MacLen]byte
	PID   uint16
	CID   uint16 // client->server only
	Type  Type
	Flags Flags
}

// wireLen returns the header's on-wire size for the given direction.
func wireLen(dir Direction) int {
	if dir == ClientToServer {
		return MacLen + 2 + 2 + 1
	}
	return MacLen + 2 + 1
}

// typeFlagsByte packs type (low nibble) and flags (high nibble), matching
// the layout used by the reference client: the low 4 bits select one of
// the nine packet types, the high 4 bits are the flag bits.
func typeFlagsByte(t Type, f Flags) byte {
	return byte(t)&0x0f | byte(f)<<4
}

func splitTypeFlags(b byte) (Type, Flags) {
	return Type(b & 0x0f), Flags(b >> 4)
}

// EncodeHeader serializes h for direction dir into a freshly allocated
// buffer sized exactly to the header.
func EncodeHeader(h Header, dir Direction) []byte {
	buf := make([]byte, wireLen(dir))
	copy(buf[0:MacLen], h.MAC[:])
	binary.BigEndian.PutUint16(buf[MacLen:MacLen+2], h.PID)
	off := MacLen + 2
	if dir == ClientToServer {
		binary.BigEndian.PutUint16(buf[off:off+2], h.CID)
		off += 2
	}
	buf[off] = typeFlagsByte(h.Type, h.Flags)
	return buf
}

// DecodeHeader parses the fixed prefix of buf for direction dir, returning
// the header and the number of bytes it consumed.
func DecodeHeader(buf []byte, dir Direction) (Header, int, error) {
	n := wireLen(dir)
	if len(buf) < n {
		return Header{}, 0, tserr.New(tserr.KindParsePacket, "short header: got %d bytes, want %d", len(buf), n)
	}
	var h Header
	copy(h.MAC[:], buf[0:MacLen])
	h.PID = binary.BigEndian.Uint16(buf[MacLen : MacLen+2])
	off := MacLen + 2
	if dir == ClientToServer {
		h.CID = binary.BigEndian.Uint16(buf[off : off+2])
		off += 2
	}
	h.Type, h.Flags = splitTypeFlags(buf[off])
	off++
	return h, off, nil
}
