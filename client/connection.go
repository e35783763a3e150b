package client

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imxeno/tsclientlib/book"
	"github.com/imxeno/tsclientlib/internal/command"
	"github.com/imxeno/tsclientlib/internal/message"
	"github.com/imxeno/tsclientlib/internal/metrics"
	"github.com/imxeno/tsclientlib/internal/packet"
	"github.com/imxeno/tsclientlib/internal/tserr"
	"github.com/imxeno/tsclientlib/internal/tslog"
	"github.com/imxeno/tsclientlib/internal/versions"
	"github.com/imxeno/tsclientlib/observer"
)

// DefaultPort is the default TS3 server UDP port (§6).
const DefaultPort = 9987

// disconnectReasonIDLeave and disconnectMsgBye are the fixed reasonid/
// reasonmsg pair this client always sends on a caller-initiated disconnect
// (§8 S6: "clientdisconnect reasonid=8 reasonmsg=Bye").
const (
	disconnectReasonIDLeave = 8
	disconnectMsgBye        = "Bye"
)

// Connection is the top-level handle for one server connection: it owns
// the UDP socket, the packet/reassembly/book pipeline, and the pending
// request and retransmit bookkeeping described in §4.4 and §5. Grounded
// on the teacher's Node aggregate root (pkg/node/node.go): a mutex-guarded
// struct whose subsystem fields are wired together in the constructor and
// whose lifecycle is driven by a background goroutine rather than by the
// caller polling a socket directly.
type Connection struct {
	conn *net.UDPConn
	log  *tslog.Logger
	obs  *observer.Registry
	mx   *metrics.Registry

	book *book.Book

	opts     Options
	identity *Identity
	version  versions.Row

	codecMu sync.Mutex
	codec   *packet.Codec
	reasm   *packet.Reassembler

	stateMu sync.Mutex
	state   State

	pendingMu sync.Mutex
	pending   map[packet.Type]map[uint16]*pendingPacket

	reqMu    sync.Mutex
	requests map[string]*pendingRequest

	events chan book.Event

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Connect performs the full handshake against addr and returns a running
// Connection once the server's first `initserver` has seeded the book
// (§4.4, §6 `connect`).
func Connect(ctx context.Context, addr string, identity *Identity, opts Options) (*Connection, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, tserr.Wrap(tserr.KindIO, err, "connect: resolve %q", addr)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, tserr.Wrap(tserr.KindIO, err, "connect: dial %q", addr)
	}

	ver, ok := versions.ByVersion(opts.Version, opts.Platform)
	if !ok {
		conn.Close()
		return nil, tserr.New(tserr.KindUnsupported, "connect: no version row for %s/%s", opts.Version, opts.Platform)
	}

	log := tslog.New(tslogLevel(opts.LogLevel))

	c := &Connection{
		conn:     conn,
		log:      log.Component(tslog.ComponentConnection),
		obs:      observer.New(),
		mx:       metrics.NewRegistry(),
		book:     book.New(log),
		opts:     opts,
		identity: identity,
		version:  ver,
		codec:    packet.NewCodec(packet.ClientToServer, packet.Keys{}, packet.Keys{}),
		reasm:    packet.NewReassembler(),
		state:    StateInit1Step0,
		pending:  make(map[packet.Type]map[uint16]*pendingPacket),
		requests: make(map[string]*pendingRequest),
		events:   make(chan book.Event, 256),
		done:     make(chan struct{}),
	}

	if err := c.runHandshake(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	c.wg.Add(2)
	go c.receiveLoop()
	go c.retransmitLoop()

	return c, nil
}

func tslogLevel(l LogLevel) slog.Level {
	switch l {
	case LogUDP, LogPacket, LogCommand:
		return slog.LevelDebug
	default:
		return slog.LevelError
	}
}

// runHandshake drives the Init1 exchange synchronously before the
// background receive loop starts, since no other traffic is meaningful
// until the session keys exist.
func (c *Connection) runHandshake(ctx context.Context) error {
	hs := NewHandshaker(c.identity, c.opts, c.version)

	step0, err := hs.Start()
	if err != nil {
		return err
	}
	if err := c.sendInit1(step0); err != nil {
		return err
	}

	buf := make([]byte, 2048)
	for hs.State() != StateInit1Step8 {
		if err := c.conn.SetReadDeadline(deadlineFrom(ctx, c.opts.RequestTimeout)); err != nil {
			return tserr.Wrap(tserr.KindIO, err, "handshake: set read deadline")
		}
		n, err := c.conn.Read(buf)
		if err != nil {
			return tserr.Wrap(tserr.KindTimeout, err, "handshake: waiting for server")
		}
		h, payload, err := c.codec.Decode(buf[:n])
		if err != nil {
			c.log.Warn("handshake: dropping malformed packet", "err", err)
			continue
		}
		if h.Type != packet.TypeInit1 {
			continue
		}
		next, result, err := hs.Feed(payload)
		if err != nil {
			return err
		}
		if next != nil {
			if err := c.sendInit1(next); err != nil {
				return err
			}
		}
		if result != nil {
			c.codec.SetKeys(result.sendKeys, result.recvKeys)
			if err := c.sendReliable(packet.TypeCommand, []byte(command.Serialize(result.clientInitCmd))); err != nil {
				return err
			}
			if err := c.awaitInitServer(ctx); err != nil {
				return err
			}
			hs.Finish()
			c.setState(StateConnected)
			return nil
		}
	}
	return nil
}

// awaitInitServer blocks until the server's `initserver` push arrives and
// applies it to the book, completing the handshake per §4.4.
func (c *Connection) awaitInitServer(ctx context.Context) error {
	buf := make([]byte, 2048)
	for {
		if err := c.conn.SetReadDeadline(deadlineFrom(ctx, c.opts.RequestTimeout)); err != nil {
			return tserr.Wrap(tserr.KindIO, err, "handshake: set read deadline")
		}
		n, err := c.conn.Read(buf)
		if err != nil {
			return tserr.Wrap(tserr.KindTimeout, err, "handshake: waiting for initserver")
		}
		h, payload, err := c.codec.Decode(buf[:n])
		if err != nil {
			c.log.Warn("handshake: dropping undecodable packet", "err", err)
			continue
		}
		final, ok, err := c.reassembleAndAck(h, payload)
		if err != nil || !ok {
			continue
		}
		cmd, err := command.Parse(string(final))
		if err != nil {
			c.log.Warn("handshake: malformed initserver", "err", err)
			continue
		}
		if cmd.Name != "initserver" {
			continue
		}
		m, err := message.Unmarshal[message.InitServer](cmd)
		if err != nil {
			return err
		}
		c.book.ApplyInitServer(m)
		return nil
	}
}

func (c *Connection) sendInit1(payload []byte) error {
	wire, err := c.codec.Encode(packet.EncodeArgs{Type: packet.TypeInit1, Flags: packet.FlagUnencrypted}, payload)
	if err != nil {
		return err
	}
	return c.writeWire(wire)
}

func (c *Connection) writeWire(wire []byte) error {
	c.obs.FireOutUdpPacket(wire)
	_, err := c.conn.Write(wire)
	if err != nil {
		return tserr.Wrap(tserr.KindIO, err, "udp write")
	}
	c.mx.Counter(metrics.MetricBytesSent).Add(int64(len(wire)))
	return nil
}

func (c *Connection) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// State returns the connection's current lifecycle state.
func (c *Connection) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// Book returns a read-only snapshot of the client-side book (§6 `book()`).
func (c *Connection) Book() *book.Server {
	return c.book.Server.Snapshot()
}

// Observers returns the registry a caller attaches taps to (§6 "Observer
// surface").
func (c *Connection) Observers() *observer.Registry { return c.obs }

// Metrics returns the connection's metrics registry.
func (c *Connection) Metrics() *metrics.Registry { return c.mx }

// SubscribeEvents returns the channel book mutation events are published
// on (§6 `subscribe_events`). There is exactly one channel per connection;
// callers that need fan-out should relay it themselves.
func (c *Connection) SubscribeEvents() <-chan book.Event { return c.events }

func (c *Connection) publish(events []book.Event) {
	for _, e := range events {
		select {
		case c.events <- e:
		case <-c.done:
			return
		}
	}
}

// reassembleAndAck feeds one decoded packet through the reassembler,
// sends the corresponding ACK/ACK_LOW when the type is reliable, and
// reports the joined payload once a full message is available. Callers
// pass only packets that Decode accepted; receiveLoop acks duplicates
// itself.
func (c *Connection) reassembleAndAck(h packet.Header, payload []byte) (out []byte, ok bool, err error) {
	if ackType, reliable := packet.AckTypeFor(h.Type); reliable {
		if ackErr := c.sendAck(ackType, h.PID); ackErr != nil {
			c.log.Warn("failed to send ack", "err", ackErr)
		}
	}
	if payload == nil {
		// Nothing to reassemble; the ack above still went out.
		return nil, false, nil
	}
	joined, complete, err := c.reasm.Feed(h, payload, time.Now())
	if err != nil {
		return nil, false, err
	}
	if !complete {
		return nil, false, nil
	}
	if h.Flags&packet.FlagCompressed != 0 {
		joined, err = packet.Decompress(joined)
		if err != nil {
			return nil, false, err
		}
	}
	return joined, true, nil
}

func (c *Connection) sendAck(ackType packet.Type, pid uint16) error {
	payload := make([]byte, 2)
	payload[0] = byte(pid >> 8)
	payload[1] = byte(pid)
	wire, err := c.codec.Encode(packet.EncodeArgs{Type: ackType}, payload)
	if err != nil {
		return err
	}
	return c.writeWire(wire)
}

// sendReliable fragments payload if needed, sends every fragment, and
// tracks each outbound PID in the per-type in-flight map for retransmit
// (§4.4).
func (c *Connection) sendReliable(t packet.Type, payload []byte) error {
	flags := packet.Flags(0)
	body := payload
	if compressed := packet.Compress(payload); len(compressed) < len(payload) {
		body = compressed
		flags |= packet.FlagCompressed
	}
	for _, frag := range packet.Split(body) {
		fflags := flags
		if frag.Fragmented {
			fflags |= packet.FlagFragmented
		}
		wire, err := c.codec.Encode(packet.EncodeArgs{Type: t, Flags: fflags}, frag.Data)
		if err != nil {
			return err
		}
		pid := pidFromWire(wire)
		pp := &pendingPacket{wire: wire, sentAt: time.Now(), deadline: time.Now().Add(backoff(0))}
		c.trackPending(t, pid, pp)
		if err := c.writeWire(wire); err != nil {
			return err
		}
	}
	return nil
}

// pidFromWire re-parses the PID this connection's codec just assigned to
// an outbound packet, so the retransmit tracker can key on it without the
// codec exposing its internal counters.
func pidFromWire(wire []byte) uint16 {
	h, _, err := packet.DecodeHeader(wire, packet.ClientToServer)
	if err != nil {
		return 0
	}
	return h.PID
}

func (c *Connection) trackPending(t packet.Type, pid uint16, pp *pendingPacket) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	m, ok := c.pending[t]
	if !ok {
		m = make(map[uint16]*pendingPacket)
		c.pending[t] = m
	}
	m[pid] = pp
}

func (c *Connection) resolvePending(t packet.Type, pid uint16) {
	c.pendingMu.Lock()
	if m, ok := c.pending[t]; ok {
		delete(m, pid)
	}
	c.pendingMu.Unlock()
}

// SendCommand serializes and sends a command over COMMAND, tagging it
// with a fresh return_code, and resolves once the server's reply command
// carrying the same return_code arrives, or the request times out
// (§6 `send_command`, §7 "surfaced to the pending request matching its
// return_code").
func (c *Connection) SendCommand(ctx context.Context, name string, staticArgs, listArgs []command.Pair) (*command.Command, error) {
	returnCode := uuid.NewString()
	cmd := &command.Command{Name: name, Static: append(append([]command.Pair(nil), staticArgs...), command.Pair{Key: "return_code", Value: returnCode, HasValue: true})}
	if len(listArgs) > 0 {
		cmd.List = [][]command.Pair{listArgs}
	}

	req := &pendingRequest{replyC: make(chan requestResult, 1)}
	c.reqMu.Lock()
	c.requests[returnCode] = req
	c.reqMu.Unlock()
	defer func() {
		c.reqMu.Lock()
		delete(c.requests, returnCode)
		c.reqMu.Unlock()
	}()

	c.obs.FireOutPacket(byte(packet.TypeCommand), 0, []byte(command.Serialize(cmd)))
	if err := c.sendReliable(packet.TypeCommand, []byte(command.Serialize(cmd))); err != nil {
		return nil, err
	}

	timeout := c.opts.RequestTimeout
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-req.replyC:
		return res.cmd, res.err
	case <-timer.C:
		return nil, &tserr.Error{Kind: tserr.KindTimeout, Reason: "send_command: no reply for " + name}
	case <-ctx.Done():
		return nil, &tserr.Error{Kind: tserr.KindCancelled, Reason: "send_command: " + ctx.Err().Error()}
	case <-c.done:
		return nil, &tserr.Error{Kind: tserr.KindCancelled, Reason: "send_command: connection closing"}
	}
}

// receiveLoop is the connection's single reader: every inbound packet is
// decoded, acked if reliable, reassembled, parsed and dispatched from
// here, matching the single-threaded cooperative model of §5.
func (c *Connection) receiveLoop() {
	defer c.wg.Done()
	buf := make([]byte, 2048)
	for {
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PingLossTimeout))
		n, err := c.conn.Read(buf)
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				c.log.Error("no packet within ping loss span, failing connection")
				c.failConnection(&tserr.Error{Kind: tserr.KindTimeout, Reason: "ping loss"})
				return
			}
			c.log.Warn("receive loop: read error", "err", err)
			continue
		}
		raw := append([]byte(nil), buf[:n]...)
		c.obs.FireInUdpPacket(raw)

		h, payload, err := c.codec.Decode(raw)
		if err != nil {
			c.log.Debug("dropping packet", "err", err)
			// A duplicate or stale PID still decoded a valid header; ack it
			// again even though the payload is discarded (§4.4).
			if ackType, reliable := packet.AckTypeFor(h.Type); reliable {
				c.sendAck(ackType, h.PID)
			}
			c.mx.Counter(metrics.MetricDuplicates).Inc()
			continue
		}
		c.obs.FireInPacket(byte(h.Type), byte(h.Flags), payload)
		c.mx.Counter(metrics.PacketReceivedName(h.Type.String())).Inc()

		switch h.Type {
		case packet.TypeAck, packet.TypeAckLow:
			c.handleAck(h.Type, payload)
		case packet.TypeCommand, packet.TypeCommandLow:
			c.handleCommandPacket(h, payload)
		case packet.TypePing:
			c.handlePing(h)
		case packet.TypePong:
			// liveness only; read deadline reset above covers timeout.
		default:
		}

		for _, t := range c.reasm.ExpireStale(time.Now()) {
			c.log.Warn("fragment reassembly timed out", "type", t)
		}
	}
}

func (c *Connection) handleAck(ackType packet.Type, payload []byte) {
	if len(payload) < 2 {
		return
	}
	pid := uint16(payload[0])<<8 | uint16(payload[1])
	t := packet.TypeCommand
	if ackType == packet.TypeAckLow {
		t = packet.TypeCommandLow
	}
	c.resolvePending(t, pid)
}

func (c *Connection) handlePing(h packet.Header) {
	wire, err := c.codec.Encode(packet.EncodeArgs{Type: packet.TypePong}, nil)
	if err != nil {
		return
	}
	c.writeWire(wire)
}

func (c *Connection) handleCommandPacket(h packet.Header, payload []byte) {
	final, ok, err := c.reassembleAndAck(h, payload)
	if err != nil {
		c.log.Warn("fragment reassembly failed, tearing down connection", "err", err)
		c.failConnection(err)
		return
	}
	if !ok {
		return
	}
	cmd, err := command.Parse(string(final))
	if err != nil {
		c.log.Warn("dropping unparsable command", "err", err)
		return
	}
	c.obs.FireInCommand(cmd)

	if code, has := cmd.StaticValue("return_code"); has {
		c.reqMu.Lock()
		req, ok := c.requests[code]
		c.reqMu.Unlock()
		if ok {
			var resErr error
			if errCode, hasErr := cmd.StaticValue("id"); hasErr && cmd.Name == "error" && errCode != "0" {
				msg, _ := cmd.StaticValue("msg")
				extra, _ := cmd.StaticValue("extra_msg")
				resErr = tserr.Server(parseUint32(errCode), msg, extra)
			}
			select {
			case req.replyC <- requestResult{cmd: cmd, err: resErr}:
			default:
			}
			return
		}
	}

	c.dispatchNotification(cmd)
}

// dispatchNotification applies a known push notification to the book,
// publishing its events; unknown commands are preserved as Unhandled for
// observers only (§4.5).
func (c *Connection) dispatchNotification(cmd *command.Command) {
	switch cmd.Name {
	case "initserver":
		m, err := message.Unmarshal[message.InitServer](cmd)
		if err == nil {
			c.publish(c.book.ApplyInitServer(m))
		}
	case "channelcreated":
		m, err := message.Unmarshal[message.ChannelCreated](cmd)
		if err == nil {
			c.publish(c.book.ApplyChannelCreated(m))
		}
	case "channeledited":
		m, err := message.Unmarshal[message.ChannelEdited](cmd)
		if err == nil {
			c.publish(c.book.ApplyChannelEdited(m))
		}
	case "servergrouplist":
		rows, err := message.UnmarshalAll[message.ServerGroup](cmd)
		if err == nil {
			c.publish(c.book.ApplyServerGroupList(rows))
		}
	case "notifyclientmoved":
		rows, err := message.UnmarshalAll[message.ClientMoved](cmd)
		if err == nil {
			c.publish(c.book.ApplyClientMoved(rows))
		}
	case "notifyclientupdated", "clientupdated":
		m, err := message.Unmarshal[message.ClientUpdated](cmd)
		if err == nil {
			c.publish(c.book.ApplyClientUpdated(m))
		}
	case "notifycliententerview":
		rows, err := message.UnmarshalAll[message.ClientEnterView](cmd)
		if err == nil {
			for _, m := range rows {
				c.publish(c.book.ApplyClientEnterView(m))
			}
		}
	case "notifyclientleftview":
		rows, err := message.UnmarshalAll[message.ClientLeftView](cmd)
		if err == nil {
			for _, m := range rows {
				c.publish(c.book.ApplyClientLeftView(m))
			}
		}
	default:
		c.log.Debug("unhandled command", "name", cmd.Name)
		_ = message.Unhandled{Name: cmd.Name, Raw: cmd}
	}
}

// retransmitLoop scans the in-flight maps on an interval, resending any
// packet past its backoff deadline and failing the connection once a
// packet exceeds MaxRetries (§4.4).
func (c *Connection) retransmitLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	pingTicker := time.NewTicker(c.opts.PingInterval)
	defer pingTicker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-pingTicker.C:
			wire, err := c.codec.Encode(packet.EncodeArgs{Type: packet.TypePing}, nil)
			if err == nil {
				c.writeWire(wire)
			}
		case now := <-ticker.C:
			c.scanRetransmits(now)
		}
	}
}

func (c *Connection) scanRetransmits(now time.Time) {
	type due struct {
		t   packet.Type
		pid uint16
		pp  *pendingPacket
	}
	var expired []due

	c.pendingMu.Lock()
	for t, m := range c.pending {
		for pid, pp := range m {
			if now.After(pp.deadline) {
				expired = append(expired, due{t: t, pid: pid, pp: pp})
			}
		}
	}
	c.pendingMu.Unlock()

	for _, d := range expired {
		d.pp.attempts++
		if d.pp.attempts > c.opts.MaxRetries {
			c.log.Error("retransmit exhausted, failing connection", "type", d.t, "pid", d.pid)
			c.resolvePending(d.t, d.pid)
			c.failConnection(&tserr.Error{Kind: tserr.KindTimeout, Reason: "retransmit exhausted"})
			return
		}
		d.pp.deadline = now.Add(backoff(d.pp.attempts))
		c.mx.Counter(metrics.MetricRetransmits).Inc()
		c.writeWire(d.pp.wire)
	}
}

// closeSocketAndSignal closes the socket and signals done exactly once,
// regardless of how many call sites race to tear the connection down.
func (c *Connection) closeSocketAndSignal() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// drainPending clears in-flight packet tracking and fails every pending
// SendCommand with reason, without touching goroutine lifecycle.
func (c *Connection) drainPending(reason error) {
	c.pendingMu.Lock()
	c.pending = map[packet.Type]map[uint16]*pendingPacket{}
	c.pendingMu.Unlock()

	c.reqMu.Lock()
	for _, req := range c.requests {
		select {
		case req.replyC <- requestResult{err: reason}:
		default:
		}
	}
	c.reqMu.Unlock()
}

// failConnection tears the connection down from inside receiveLoop or
// retransmitLoop itself. It must never call wg.Wait: the calling goroutine
// is one of the two wg members and would deadlock waiting on itself. The
// other loop observes the closed socket/done channel and exits on its own.
func (c *Connection) failConnection(reason error) {
	c.setState(StateDisconnecting)
	c.closeSocketAndSignal()
	c.drainPending(reason)
	c.setState(StateDisconnected)
}

// Disconnect implements the cancellation contract of §5: best-effort
// clientdisconnect, drain in-flight state, move to Disconnected
// regardless of acknowledgement. Unlike failConnection, this is the
// externally-called path, so it waits for both background goroutines to
// exit before returning.
func (c *Connection) Disconnect(ctx context.Context) error {
	c.setState(StateDisconnecting)
	cmd, err := message.Marshal("clientdisconnect", []message.ClientDisconnect{{ReasonID: disconnectReasonIDLeave, ReasonMsg: disconnectMsgBye}})
	if err == nil {
		wire, encErr := c.codec.Encode(packet.EncodeArgs{Type: packet.TypeCommand}, []byte(command.Serialize(cmd)))
		if encErr == nil {
			c.writeWire(wire)
		}
	}

	c.closeSocketAndSignal()
	c.wg.Wait()
	c.drainPending(&tserr.Error{Kind: tserr.KindCancelled})
	c.setState(StateDisconnected)
	return nil
}

func deadlineFrom(ctx context.Context, timeout time.Duration) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(timeout)
}

func parseUint32(s string) uint32 {
	var n uint32
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + uint32(r-'0')
	}
	return n
}
