// Package tserr implements the error taxonomy from the error handling
// design: a closed set of error kinds, each wrapping a sentinel so callers
// can branch with errors.Is/errors.As without string matching.
package tserr

import (
	"errors"
	"fmt"
)

// Kind enumerates the error categories.
type Kind int

const (
	KindParseCommand Kind = iota
	KindParsePacket
	KindWrongMac
	KindWrongSignature
	KindFragmentReassemblyFailed
	KindTimeout
	KindCancelled
	KindIO
	KindCrypto
	KindProtocolViolation
	KindServerError
	KindEntityNotFound
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindParseCommand:
		return "ParseCommand"
	case KindParsePacket:
		return "ParsePacket"
	case KindWrongMac:
		return "WrongMac"
	case KindWrongSignature:
		return "WrongSignature"
	case KindFragmentReassemblyFailed:
		return "FragmentReassemblyFailed"
	case KindTimeout:
		return "Timeout"
	case KindCancelled:
		return "Cancelled"
	case KindIO:
		return "Io"
	case KindCrypto:
		return "Crypto"
	case KindProtocolViolation:
		return "ProtocolViolation"
	case KindServerError:
		return "ServerError"
	case KindEntityNotFound:
		return "EntityNotFound"
	case KindUnsupported:
		return "Unsupported"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinel errors. Every *Error matches the sentinel for its Kind, so
// callers can use errors.Is(err, tserr.ErrWrongMac) regardless of the
// added context.
var (
	ErrParseCommand            = errors.New("tserr: parse command")
	ErrParsePacket              = errors.New("tserr: parse packet")
	ErrWrongMac                 = errors.New("tserr: wrong mac")
	ErrWrongSignature           = errors.New("tserr: wrong signature")
	ErrFragmentReassemblyFailed = errors.New("tserr: fragment reassembly failed")
	ErrTimeout                  = errors.New("tserr: timeout")
	ErrCancelled                = errors.New("tserr: cancelled")
	ErrIO                       = errors.New("tserr: io")
	ErrCrypto                   = errors.New("tserr: crypto")
	ErrProtocolViolation        = errors.New("tserr: protocol violation")
	ErrServerError              = errors.New("tserr: server error")
	ErrEntityNotFound           = errors.New("tserr: entity not found")
	ErrUnsupported              = errors.New("tserr: unsupported")
)

func sentinelFor(k Kind) error {
	switch k {
	case KindParseCommand:
		return ErrParseCommand
	case KindParsePacket:
		return ErrParsePacket
	case KindWrongMac:
		return ErrWrongMac
	case KindWrongSignature:
		return ErrWrongSignature
	case KindFragmentReassemblyFailed:
		return ErrFragmentReassemblyFailed
	case KindTimeout:
		return ErrTimeout
	case KindCancelled:
		return ErrCancelled
	case KindIO:
		return ErrIO
	case KindCrypto:
		return ErrCrypto
	case KindProtocolViolation:
		return ErrProtocolViolation
	case KindServerError:
		return ErrServerError
	case KindEntityNotFound:
		return ErrEntityNotFound
	case KindUnsupported:
		return ErrUnsupported
	default:
		return errors.New("tserr: unknown")
	}
}

// Error is the concrete error type produced by this module. It carries the
// Kind, an optional wrapped cause, and — for KindServerError — the numeric
// server error code and message reported by the TS3 server.
type Error struct {
	Kind    Kind
	Reason  string
	Cause   error
	Code    uint32 // valid when Kind == KindServerError
	Message string // valid when Kind == KindServerError
	Extra   string // optional extra_message, valid when Kind == KindServerError
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindServerError:
		if e.Extra != "" {
			return fmt.Sprintf("ts3: server error %d: %s (%s)", e.Code, e.Message, e.Extra)
		}
		return fmt.Sprintf("ts3: server error %d: %s", e.Code, e.Message)
	case e.Reason != "" && e.Cause != nil:
		return fmt.Sprintf("ts3: %s: %s: %v", e.Kind, e.Reason, e.Cause)
	case e.Reason != "":
		return fmt.Sprintf("ts3: %s: %s", e.Kind, e.Reason)
	case e.Cause != nil:
		return fmt.Sprintf("ts3: %s: %v", e.Kind, e.Cause)
	default:
		return fmt.Sprintf("ts3: %s", e.Kind)
	}
}

func (e *Error) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return sentinelFor(e.Kind)
}

// Is makes errors.Is(err, tserr.ErrWrongMac) work even through the Kind
// indirection, without relying solely on Unwrap's single sentinel.
func (e *Error) Is(target error) bool {
	return target == sentinelFor(e.Kind)
}

// New builds an *Error of the given kind with a formatted reason.
func New(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Reason: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around an existing cause.
func Wrap(k Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: k, Reason: fmt.Sprintf(format, args...), Cause: cause}
}

// Server builds the ServerError variant surfaced to a pending request. If
// the server omitted a message (some error replies carry only an id), the
// local error table's name stands in.
func Server(code uint32, message, extra string) *Error {
	if message == "" {
		if name, ok := NameForCode(code); ok {
			message = name
		}
	}
	return &Error{Kind: KindServerError, Code: code, Message: message, Extra: extra}
}
