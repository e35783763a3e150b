package packet

import (
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/imxeno/tsclientlib/internal/tserr"
)

// MaxFragmentedMessageBytes bounds a reassembly buffer's total size; a
// fragmented message that would exceed it is dropped rather than let a
// misbehaving peer exhaust memory (§4.3).
const MaxFragmentedMessageBytes = 8 << 20

// FragmentTimeout is how long a reassembly buffer may sit with a missing
// middle fragment before it is dropped (§4.3).
const FragmentTimeout = 10 * time.Second

// fragmentKey hashes (type, first PID) down to a single map key, per
// §4.3's "buffer fragments keyed by (type, first PID)".
func fragmentKey(t Type, firstPID uint16) uint64 {
	var buf [3]byte
	buf[0] = byte(t)
	binary.BigEndian.PutUint16(buf[1:], firstPID)
	return xxhash.Sum64(buf[:])
}

type fragmentBuf struct {
	typ      Type
	order    []uint16
	parts    map[uint16][]byte
	started  time.Time
	totalLen int
}

// Reassembler buffers and reconstructs fragmented COMMAND/COMMAND_LOW
// messages. A fragmented message's first and last packet both carry
// FRAGMENTED; packets strictly between them do not (§4.3). Not safe for
// concurrent use; the connection's receive loop serializes calls per
// direction.
type Reassembler struct {
	bufs       map[uint64]*fragmentBuf
	openKeyFor map[Type]uint64
}

// NewReassembler returns an empty Reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{
		bufs:       make(map[uint64]*fragmentBuf),
		openKeyFor: make(map[Type]uint64),
	}
}

// Feed adds one received packet's payload to reassembly and reports
// whether it completed a message. A non-fragmented packet with no buffer
// in progress for its type passes through untouched.
func (r *Reassembler) Feed(h Header, payload []byte, now time.Time) ([]byte, bool, error) {
	key, inProgress := r.openKeyFor[h.Type]

	switch {
	case !inProgress && h.Flags&FlagFragmented == 0:
		return payload, true, nil

	case !inProgress && h.Flags&FlagFragmented != 0:
		key = fragmentKey(h.Type, h.PID)
		buf := &fragmentBuf{typ: h.Type, parts: make(map[uint16][]byte), started: now}
		r.bufs[key] = buf
		r.openKeyFor[h.Type] = key
		if err := r.record(buf, h.PID, payload); err != nil {
			r.drop(h.Type, key)
			return nil, false, err
		}
		return nil, false, nil

	case inProgress && h.Flags&FlagFragmented == 0:
		buf := r.bufs[key]
		if err := r.record(buf, h.PID, payload); err != nil {
			r.drop(h.Type, key)
			return nil, false, err
		}
		return nil, false, nil

	default: // inProgress && FRAGMENTED set: terminating fragment
		buf := r.bufs[key]
		if err := r.record(buf, h.PID, payload); err != nil {
			r.drop(h.Type, key)
			return nil, false, err
		}
		joined := buf.join()
		r.drop(h.Type, key)
		return joined, true, nil
	}
}

func (r *Reassembler) record(buf *fragmentBuf, pid uint16, payload []byte) error {
	buf.order = append(buf.order, pid)
	buf.parts[pid] = payload
	buf.totalLen += len(payload)
	if buf.totalLen > MaxFragmentedMessageBytes {
		return tserr.New(tserr.KindFragmentReassemblyFailed, "buffer for %s exceeded %d bytes", buf.typ, MaxFragmentedMessageBytes)
	}
	return nil
}

func (r *Reassembler) drop(t Type, key uint64) {
	delete(r.bufs, key)
	delete(r.openKeyFor, t)
}

func (b *fragmentBuf) join() []byte {
	out := make([]byte, 0, b.totalLen)
	for _, pid := range b.order {
		out = append(out, b.parts[pid]...)
	}
	return out
}

// ExpireStale drops any reassembly buffer idle past FragmentTimeout,
// returning the types affected so the caller can surface
// FragmentReassemblyFailed to the message layer.
func (r *Reassembler) ExpireStale(now time.Time) []Type {
	var expired []Type
	for key, b := range r.bufs {
		if now.Sub(b.started) > FragmentTimeout {
			expired = append(expired, b.typ)
			delete(r.bufs, key)
			delete(r.openKeyFor, b.typ)
		}
	}
	return expired
}
