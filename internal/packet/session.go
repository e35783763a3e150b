package packet

import (
	"encoding/binary"

	"github.com/imxeno/tsclientlib/internal/crypto"
	"github.com/imxeno/tsclientlib/internal/tserr"
)

// Keys is the per-direction session key material derived at the end of the
// handshake (§3 "Session keys"): a 16-byte AES key and a 16-byte base
// nonce, both rotated by the generation counter of the type stream they
// are used with.
type Keys struct {
	Key       [16]byte
	BaseNonce [16]byte
}

// Codec applies EAX encryption/decryption and packet-ID bookkeeping for one
// connection. It holds independent counters per (direction, type) so that
// COMMAND and COMMAND_LOW, say, advance on unrelated PID streams, matching
// the "independent streams" rule in §4.3.
type Codec struct {
	dir      Direction
	sendKeys Keys
	recvKeys Keys
	sendCtr  [NumTypes]counter
	recvCtr  [NumTypes]counter
}

// NewCodec builds a Codec for the given direction with the supplied
// per-direction session keys.
func NewCodec(dir Direction, sendKeys, recvKeys Keys) *Codec {
	return &Codec{dir: dir, sendKeys: sendKeys, recvKeys: recvKeys}
}

// SetKeys installs the session keys derived at the end of the handshake.
// Counters are left untouched: the INIT1 exchange that precedes this call
// runs entirely unencrypted on its own type, so no COMMAND/COMMAND_LOW PID
// has been issued yet.
func (c *Codec) SetKeys(sendKeys, recvKeys Keys) {
	c.sendKeys = sendKeys
	c.recvKeys = recvKeys
}

// nonceFor derives the per-packet nonce: the direction's base nonce XORed
// with a 16-byte buffer packing generation (4 bytes BE), pid (2 bytes BE)
// and type (1 byte) left-aligned, per §4.3's "base nonce XORed with
// (generation || pid || type)".
func nonceFor(base [16]byte, generation uint32, pid uint16, t Type) [16]byte {
	var mix [16]byte
	binary.BigEndian.PutUint32(mix[0:4], generation)
	binary.BigEndian.PutUint16(mix[4:6], pid)
	mix[6] = byte(t)
	var out [16]byte
	for i := range out {
		out[i] = base[i] ^ mix[i]
	}
	return out
}

// EncodeArgs bundles the fields Encode needs beyond the payload.
type EncodeArgs struct {
	Type  Type
	Flags Flags
	CID   uint16 // only meaningful when dir == ClientToServer
}

// Encode assigns the next PID for args.Type, encrypts payload (unless
// FlagUnencrypted is set) and returns the full wire packet.
func (c *Codec) Encode(args EncodeArgs, payload []byte) ([]byte, error) {
	pid, generation := c.sendCtr[args.Type].next()
	h := Header{PID: pid, Type: args.Type, Flags: args.Flags}
	if c.dir == ClientToServer {
		h.CID = args.CID
	}

	header := EncodeHeader(h, c.dir)
	if args.Flags&FlagUnencrypted != 0 {
		h.MAC = sentinelMAC
		copy(header[0:MacLen], h.MAC[:])
		return append(header, payload...), nil
	}

	nonce := nonceFor(c.sendKeys.BaseNonce, generation, pid, args.Type)
	tag, cipher, err := crypto.EaxEncrypt(c.sendKeys.Key[:], nonce[:], header[MacLen:], payload, MacLen)
	if err != nil {
		return nil, err
	}
	copy(header[0:MacLen], tag)
	return append(header, cipher...), nil
}

// Decode parses and, unless FlagUnencrypted is set, decrypts an inbound
// wire packet, enforcing the per-type sliding window. A duplicate or
// out-of-window PID is reported via tserr.KindProtocolViolation rather
// than treated as corruption.
func (c *Codec) Decode(buf []byte) (Header, []byte, error) {
	h, off, err := DecodeHeader(buf, oppositeFor(c.dir))
	if err != nil {
		return Header{}, nil, err
	}
	rest := buf[off:]

	ctr := &c.recvCtr[h.Type]
	generation := ctr.generationFor(h.PID)

	if h.Flags&FlagUnencrypted == 0 {
		nonce := nonceFor(c.recvKeys.BaseNonce, generation, h.PID, h.Type)
		plain, err := crypto.EaxDecrypt(c.recvKeys.Key[:], nonce[:], buf[0:off][MacLen:], rest, h.MAC[:])
		if err != nil {
			return Header{}, nil, err
		}
		rest = plain
	}

	if !ctr.accept(h.PID, generation) {
		// The header is still valid here: a duplicate or stale PID must be
		// ACKed again (§4.4 "dropped silently but still ACKed"), so the
		// caller needs h even though the payload is discarded.
		return h, nil, tserr.New(tserr.KindProtocolViolation, "duplicate or out-of-window pid %d for %s", h.PID, h.Type)
	}
	return h, rest, nil
}

// generationFor guesses the generation a freshly-seen PID belongs to,
// handling wraparound: if the stream's current pid is above 0xf000 and pid
// is below 0x1000, pid is assumed to belong to the next generation.
func (c *counter) generationFor(pid uint16) uint32 {
	if !c.have {
		return 0
	}
	if c.pid > 0xf000 && pid < 0x1000 {
		return c.generation + 1
	}
	return c.generation
}

func oppositeFor(dir Direction) Direction {
	if dir == ClientToServer {
		return ServerToClient
	}
	return ClientToServer
}
