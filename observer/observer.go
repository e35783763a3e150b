// Package observer implements the hookable tap surface from §6: a small
// set of named taps a caller can register to see traffic and parsed
// commands flow through a connection, without the connection itself
// growing per-feature plumbing. Grounded on the teacher's p2p peer event
// subscription pattern (ordered, keyed handler registration with
// idempotent replace) rather than a generic pub/sub bus, since the set of
// tap points is closed and small.
package observer

import (
	"sync"

	"github.com/imxeno/tsclientlib/internal/command"
)

// InUdpPacket and OutUdpPacket see the raw wire bytes before/after
// encryption. InPacket and OutPacket see the packet type, flags and
// plaintext payload. InCommand sees a successfully parsed command.
type (
	InUdpPacketFunc  func(raw []byte)
	OutUdpPacketFunc func(raw []byte)
	InPacketFunc     func(typ uint8, flags uint8, payload []byte)
	OutPacketFunc    func(typ uint8, flags uint8, payload []byte)
	InCommandFunc    func(cmd *command.Command)
)

type entry[F any] struct {
	key string
	fn  F
}

// Registry holds ordered, keyed handler lists for each tap. Registering
// under a key already present replaces that handler in place rather than
// appending a duplicate (§6 "idempotent replace on duplicate key").
type Registry struct {
	mu sync.RWMutex

	inUdp   []entry[InUdpPacketFunc]
	outUdp  []entry[OutUdpPacketFunc]
	inPkt   []entry[InPacketFunc]
	outPkt  []entry[OutPacketFunc]
	inCmd   []entry[InCommandFunc]
}

// New returns an empty Registry.
func New() *Registry { return &Registry{} }

func upsert[F any](list []entry[F], key string, fn F) []entry[F] {
	for i := range list {
		if list[i].key == key {
			list[i].fn = fn
			return list
		}
	}
	return append(list, entry[F]{key: key, fn: fn})
}

func remove[F any](list []entry[F], key string) []entry[F] {
	for i := range list {
		if list[i].key == key {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func (r *Registry) OnInUdpPacket(key string, fn InUdpPacketFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inUdp = upsert(r.inUdp, key, fn)
}

func (r *Registry) OnOutUdpPacket(key string, fn OutUdpPacketFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outUdp = upsert(r.outUdp, key, fn)
}

func (r *Registry) OnInPacket(key string, fn InPacketFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inPkt = upsert(r.inPkt, key, fn)
}

func (r *Registry) OnOutPacket(key string, fn OutPacketFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outPkt = upsert(r.outPkt, key, fn)
}

func (r *Registry) OnInCommand(key string, fn InCommandFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inCmd = upsert(r.inCmd, key, fn)
}

// Remove unregisters the handler under key from every tap it may be
// registered under.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inUdp = remove(r.inUdp, key)
	r.outUdp = remove(r.outUdp, key)
	r.inPkt = remove(r.inPkt, key)
	r.outPkt = remove(r.outPkt, key)
	r.inCmd = remove(r.inCmd, key)
}

func (r *Registry) FireInUdpPacket(raw []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.inUdp {
		e.fn(raw)
	}
}

func (r *Registry) FireOutUdpPacket(raw []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.outUdp {
		e.fn(raw)
	}
}

func (r *Registry) FireInPacket(typ, flags uint8, payload []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.inPkt {
		e.fn(typ, flags, payload)
	}
}

func (r *Registry) FireOutPacket(typ, flags uint8, payload []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.outPkt {
		e.fn(typ, flags, payload)
	}
}

func (r *Registry) FireInCommand(cmd *command.Command) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.inCmd {
		e.fn(cmd)
	}
}
