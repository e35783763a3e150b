// Package packet implements §4.3: header framing, per-type packet ID
// counters, EAX encryption with per-direction session keys, and
// fragmentation/reassembly of COMMAND/COMMAND_LOW messages. Grounded on the
// teacher's p2p/rlpx.go frame codec (header/MAC/stream-cipher layout) and
// rlp's encode/decode style (small, explicit binary.BigEndian helpers
// rather than a reflection-based framework, since packet headers are fixed
// shape).
package packet

import "fmt"

// Type is one of the nine packet types named in §3.
type Type uint8

const (
	TypeVoice Type = iota
	TypeVoiceWhisper
	TypeCommand
	TypeCommandLow
	TypePing
	TypePong
	TypeAck
	TypeAckLow
	TypeInit1
)

func (t Type) String() string {
	switch t {
	case TypeVoice:
		return "VOICE"
	case TypeVoiceWhisper:
		return "VOICE_WHISPER"
	case TypeCommand:
		return "COMMAND"
	case TypeCommandLow:
		return "COMMAND_LOW"
	case TypePing:
		return "PING"
	case TypePong:
		return "PONG"
	case TypeAck:
		return "ACK"
	case TypeAckLow:
		return "ACK_LOW"
	case TypeInit1:
		return "INIT1"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// NumTypes is the number of packet types, used to size per-type tables.
const NumTypes = int(TypeInit1) + 1

// Flags are the four per-packet bit flags packed alongside the type.
type Flags uint8

const (
	FlagUnencrypted Flags = 1 << iota
	FlagCompressed
	FlagNewProtocol
	FlagFragmented
)

// Direction distinguishes client->server from server->client, since the
// header layout and nonce derivation differ per direction (§4.3, §3
// "Session keys").
type Direction uint8

const (
	ClientToServer Direction = iota
	ServerToClient
)

// CanFragment reports whether a type may carry the FRAGMENTED flag (only
// COMMAND and COMMAND_LOW, §4.3).
func (t Type) CanFragment() bool {
	return t == TypeCommand || t == TypeCommandLow
}

// IsReliable reports whether a type requires ACK/ACK_LOW tracking (§4.4).
func (t Type) IsReliable() bool {
	return t == TypeCommand || t == TypeCommandLow
}

// AckTypeFor returns the ACK type that acknowledges packets of t.
func AckTypeFor(t Type) (Type, bool) {
	switch t {
	case TypeCommand:
		return TypeAck, true
	case TypeCommandLow:
		return TypeAckLow, true
	default:
		return 0, false
	}
}
