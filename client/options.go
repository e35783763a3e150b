package client

import (
	"time"

	"github.com/imxeno/tsclientlib/internal/tserr"
)

// LogLevel mirrors the {off, command, packet, udp} scale from §6.
type LogLevel string

const (
	LogOff     LogLevel = "off"
	LogCommand LogLevel = "command"
	LogPacket  LogLevel = "packet"
	LogUDP     LogLevel = "udp"
)

// Options configures Connect (§6 "Configured options").
type Options struct {
	Nickname                string
	Version                 string
	Platform                string
	HardwareID              string
	DefaultChannel          string
	DefaultChannelPassword  string
	ServerPassword          string
	Metadata                string
	Badges                  string
	LogLevel                LogLevel
	HashCashLevel           uint8

	// RequestTimeout bounds how long SendCommand waits for the server's
	// reply, and how long each handshake read waits, before failing with
	// Timeout (§5 "Timeouts", default 10s).
	RequestTimeout time.Duration
	// PingInterval and PingLossTimeout implement the liveness check in
	// §4.4; default 30s span for loss per §5.
	PingInterval    time.Duration
	PingLossTimeout time.Duration
	// MaxRetries caps reliable-packet retransmission before the
	// connection fails with Timeout (§4.4, default 30).
	MaxRetries int
}

// WithDefaults returns a copy of o with zero-valued fields replaced by the
// spec's stated defaults.
func (o Options) WithDefaults() Options {
	if o.LogLevel == "" {
		o.LogLevel = LogOff
	}
	if o.HashCashLevel == 0 {
		o.HashCashLevel = 8
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.PingInterval == 0 {
		o.PingInterval = 5 * time.Second
	}
	if o.PingLossTimeout == 0 {
		o.PingLossTimeout = 30 * time.Second
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 30
	}
	if o.Platform == "" {
		o.Platform = "Linux"
	}
	if o.Version == "" {
		o.Version = "3.5.6"
	}
	return o
}

// Validate reports whether o (after WithDefaults) is usable for Connect.
func (o Options) Validate() error {
	if o.Nickname == "" {
		return tserr.New(tserr.KindParseCommand, "options: Nickname is required")
	}
	if o.RequestTimeout < 0 {
		return tserr.New(tserr.KindParseCommand, "options: RequestTimeout must not be negative")
	}
	if o.MaxRetries < 0 {
		return tserr.New(tserr.KindParseCommand, "options: MaxRetries must not be negative")
	}
	if o.HashCashLevel > 20 {
		return tserr.New(tserr.KindParseCommand, "options: HashCashLevel %d is unreasonably high", o.HashCashLevel)
	}
	return nil
}
