package client

import (
	"math/rand"
	"time"

	"github.com/imxeno/tsclientlib/internal/command"
)

// retransmitBaseDelay and retransmitMaxDelay bound the exponential backoff
// described in §4.4: "starting at ~200ms, doubling to a ceiling of a few
// seconds".
const (
	retransmitBaseDelay = 200 * time.Millisecond
	retransmitMaxDelay  = 4 * time.Second
)

// backoff returns the delay before retry attempt n (0-based), with up to
// 20% jitter applied to avoid synchronized retransmit storms across many
// connections.
func backoff(n int) time.Duration {
	d := retransmitBaseDelay << uint(n)
	if d > retransmitMaxDelay || d <= 0 {
		d = retransmitMaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(d) / 5))
	return d + jitter
}

// pendingPacket is one outbound reliable (COMMAND/COMMAND_LOW) packet
// awaiting its ACK. It is removed from the in-flight map either by a
// matching ACK or by the retransmit loop giving up; there is no per-packet
// completion signal, since callers only care about the higher-level
// SendCommand reply, tracked separately by pendingRequest.
type pendingPacket struct {
	wire     []byte
	sentAt   time.Time
	deadline time.Time
	attempts int
}

// pendingRequest tracks a caller's SendCommand awaiting the server's
// reply by return_code (§7 "surfaced to the pending request matching its
// return_code").
type pendingRequest struct {
	replyC chan requestResult
}

type requestResult struct {
	cmd *command.Command
	err error
}
