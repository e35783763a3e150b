package client

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/imxeno/tsclientlib/internal/command"
	"github.com/imxeno/tsclientlib/internal/crypto"
	"github.com/imxeno/tsclientlib/internal/message"
	"github.com/imxeno/tsclientlib/internal/packet"
	"github.com/imxeno/tsclientlib/internal/tserr"
	"github.com/imxeno/tsclientlib/internal/versions"
)

// initPayload is one unencrypted INIT1 packet body. The first byte is the
// substep number so both sides can tell which round of the five-round
// exchange a packet belongs to without any other framing (§4.4).
type initPayload struct {
	step byte
	data []byte
}

func encodeInitPayload(p initPayload) []byte {
	return append([]byte{p.step}, p.data...)
}

func decodeInitPayload(buf []byte) (initPayload, error) {
	if len(buf) < 1 {
		return initPayload{}, tserr.New(tserr.KindParsePacket, "init1: empty payload")
	}
	return initPayload{step: buf[0], data: buf[1:]}, nil
}

// dhPuzzle is the server-issued time-lock puzzle solved at step 4: find
// y = x^(2^level) mod n by repeated squaring.
type dhPuzzle struct {
	x     *big.Int
	n     *big.Int
	level uint32
}

func decodeDHPuzzle(data []byte) (dhPuzzle, error) {
	if len(data) < 8 {
		return dhPuzzle{}, tserr.New(tserr.KindParsePacket, "init1 step4: short puzzle")
	}
	level := binary.BigEndian.Uint32(data[0:4])
	xlen := binary.BigEndian.Uint32(data[4:8])
	off := 8
	if len(data) < off+int(xlen)+4 {
		return dhPuzzle{}, tserr.New(tserr.KindParsePacket, "init1 step4: truncated x")
	}
	x := new(big.Int).SetBytes(data[off : off+int(xlen)])
	off += int(xlen)
	nlen := binary.BigEndian.Uint32(data[off : off+4])
	off += 4
	if len(data) < off+int(nlen) {
		return dhPuzzle{}, tserr.New(tserr.KindParsePacket, "init1 step4: truncated n")
	}
	n := new(big.Int).SetBytes(data[off : off+int(nlen)])
	return dhPuzzle{x: x, n: n, level: level}, nil
}

// solve computes x^(2^level) mod n by repeated squaring (the RSW time-lock
// construction §4.4 describes). Values that fit in 256 bits take the
// uint256 fast path the way the teacher's core/types keeps a uint256-first,
// big.Int-fallback split for its own arithmetic; the puzzle modulus is
// server-supplied and not bounded to 256 bits in principle, so a wider
// value falls back to math/big.
func (p dhPuzzle) solve() *big.Int {
	if p.n.BitLen() <= 256 && p.x.BitLen() <= 256 {
		n, overflow1 := uint256.FromBig(p.n)
		x, overflow2 := uint256.FromBig(p.x)
		if !overflow1 && !overflow2 && !n.IsZero() {
			y := new(uint256.Int).Set(x)
			for i := uint32(0); i < p.level; i++ {
				y = new(uint256.Int).MulMod(y, y, n)
			}
			return y.ToBig()
		}
	}
	y := new(big.Int).Set(p.x)
	for i := uint32(0); i < p.level; i++ {
		y = new(big.Int).Mod(new(big.Int).Mul(y, y), p.n)
	}
	return y
}

// Handshaker drives the five-round Init1 state machine of §4.4 and the
// ECDH session-key derivation that follows it. One Handshaker serves
// exactly one connection attempt.
type Handshaker struct {
	identity *Identity
	opts     Options
	version  versions.Row

	state State
	eph   *crypto.PrivateKey // client's ephemeral key for this handshake
}

// NewHandshaker starts a handshake in StateInit1Step0.
func NewHandshaker(identity *Identity, opts Options, version versions.Row) *Handshaker {
	return &Handshaker{identity: identity, opts: opts, version: version, state: StateInit1Step0}
}

// State reports the handshake's current substate.
func (h *Handshaker) State() State { return h.state }

// Start produces the unencrypted Step 0 INIT1 packet: four random bytes
// plus the client's version string.
func (h *Handshaker) Start() ([]byte, error) {
	if h.state != StateInit1Step0 {
		return nil, tserr.New(tserr.KindProtocolViolation, "handshake: Start called in state %s", h.state)
	}
	var nonce [4]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, tserr.Wrap(tserr.KindCrypto, err, "handshake: step0 nonce")
	}
	payload := encodeInitPayload(initPayload{step: 0, data: append(nonce[:], []byte(h.version.Version)...)})
	h.state = StateInit1Step2
	return payload, nil
}

// handshakeResult is returned once the exchange reaches StateInit1Step8
// (StateConnected follows only after Finish):
// the derived session keys and the first command to send on the newly
// encrypted channel (clientinit).
type handshakeResult struct {
	sendKeys packet.Keys
	recvKeys packet.Keys
	clientInitCmd *command.Command
}

// Feed processes one inbound INIT1 payload (unencrypted packet body) for
// the current substep. It returns the next outbound INIT1 payload to send,
// if any, and — once the step-6 payload has been processed — the derived
// keys and queued clientinit command. The server's `initserver` reply is
// not fed through here; the caller waits for it and then calls Finish.
func (h *Handshaker) Feed(payload []byte) (next []byte, result *handshakeResult, err error) {
	switch h.state {
	case StateInit1Step2:
		return h.handleStep1(payload)
	case StateInit1Step4:
		return h.handleStep4(payload)
	case StateInit1Step6:
		return h.handleStep6(payload)
	default:
		return nil, nil, tserr.New(tserr.KindProtocolViolation, "handshake: unexpected init1 packet in state %s", h.state)
	}
}

// handleStep1 receives the server's step-1 puzzle (an opaque byte string
// the client must echo back unmodified) and answers with step 2.
func (h *Handshaker) handleStep1(payload []byte) ([]byte, *handshakeResult, error) {
	in, err := decodeInitPayload(payload)
	if err != nil {
		return nil, nil, err
	}
	out := encodeInitPayload(initPayload{step: 2, data: in.data})
	h.state = StateInit1Step4
	return out, nil, nil
}

// handleStep4 receives the server's Diffie-Hellman-like puzzle, solves it,
// generates the ephemeral identity key used for this session, and replies
// with the solution plus the `clientinitiv` command proving identity and
// hash-cash level.
func (h *Handshaker) handleStep4(payload []byte) ([]byte, *handshakeResult, error) {
	in, err := decodeInitPayload(payload)
	if err != nil {
		return nil, nil, err
	}
	puzzle, err := decodeDHPuzzle(in.data)
	if err != nil {
		return nil, nil, err
	}
	y := puzzle.solve()

	eph, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, nil, err
	}
	h.eph = eph

	cmd, err := message.Marshal("clientinitiv", []message.ClientInitIV{{
		Alpha:           eph.Public().ToTS(),
		Omega:           h.identity.Key.Public().ToTS(),
		ClientKeyOffset: h.identity.Offset,
	}})
	if err != nil {
		return nil, nil, err
	}

	var ybuf [32]byte
	y.FillBytes(ybuf[:])
	out := encodeInitPayload(initPayload{step: 4, data: append(ybuf[:], []byte(command.Serialize(cmd))...)})
	h.state = StateInit1Step6
	return out, nil, nil
}

// handleStep6 receives the server's `initivexpand2` command: its license
// chain, proof and ephemeral public key (omega). It verifies the proof
// against the version table's signature key, derives the ECDH shared
// secret and the two directions' session keys, and returns the completed
// handshakeResult. There is no outbound INIT1 payload for this step; the
// caller transitions straight to sending clientinit on the now-encrypted
// channel.
func (h *Handshaker) handleStep6(payload []byte) ([]byte, *handshakeResult, error) {
	in, err := decodeInitPayload(payload)
	if err != nil {
		return nil, nil, err
	}
	cmd, err := command.Parse(string(in.data))
	if err != nil {
		return nil, nil, err
	}
	expand, err := message.Unmarshal[message.InitIvExpand2](cmd)
	if err != nil {
		return nil, nil, err
	}

	serverPub, err := crypto.PublicKeyFromTS(expand.Omega)
	if err != nil {
		return nil, nil, tserr.Wrap(tserr.KindCrypto, err, "handshake: server omega")
	}
	if err := h.version.SignatureKey.Verify([]byte(expand.License+expand.Beta), []byte(expand.Proof)); err != nil {
		return nil, nil, tserr.Wrap(tserr.KindWrongSignature, err, "handshake: license chain proof")
	}

	shared, err := h.eph.ECDH(serverPub)
	if err != nil {
		return nil, nil, err
	}

	sendKeys, recvKeys := deriveSessionKeys(shared, h.eph.Public(), serverPub)

	clientInitCmd, err := message.Marshal("clientinit", []message.ClientInit{{
		Nickname:               h.opts.Nickname,
		Version:                h.version.BuildString,
		Platform:               h.opts.Platform,
		InputHardwareEnabled:   true,
		OutputHardwareEnabled:  true,
		DefaultChannel:         h.opts.DefaultChannel,
		DefaultChannelPassword: h.opts.DefaultChannelPassword,
		ServerPassword:         h.opts.ServerPassword,
		MetaData:               h.opts.Metadata,
		VersionSign:            h.version.BuildString,
		Badges:                 h.opts.Badges,
		HardwareID:             h.opts.HardwareID,
	}})
	if err != nil {
		return nil, nil, err
	}

	h.state = StateInit1Step8
	return nil, &handshakeResult{sendKeys: sendKeys, recvKeys: recvKeys, clientInitCmd: clientInitCmd}, nil
}

// Finish transitions a completed handshake to Connected, once the caller
// has seen the server's first `initserver` push.
func (h *Handshaker) Finish() {
	h.state = StateConnected
}

// deriveSessionKeys mixes the ECDH shared secret with both parties'
// ephemeral public keys to produce independent client->server and
// server->client key material (§3 "Session keys"). The salt ordering
// (client key first for C2S, server key first for S2C) keeps the two
// directions from ever sharing a derived key even though they share the
// same ECDH secret.
func deriveSessionKeys(shared []byte, clientPub, serverPub *crypto.PublicKey) (c2s, s2c packet.Keys) {
	c2sMaterial := sha256.Sum256(append(append([]byte("c2s"), clientPub.ToTomcrypt()...), append(shared, serverPub.ToTomcrypt()...)...))
	s2cMaterial := sha256.Sum256(append(append([]byte("s2c"), serverPub.ToTomcrypt()...), append(shared, clientPub.ToTomcrypt()...)...))
	copy(c2s.Key[:], c2sMaterial[0:16])
	copy(c2s.BaseNonce[:], c2sMaterial[16:32])
	copy(s2c.Key[:], s2cMaterial[0:16])
	copy(s2c.BaseNonce[:], s2cMaterial[16:32])
	return c2s, s2c
}
