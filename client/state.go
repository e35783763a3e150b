package client

import "fmt"

// State is the handshake/lifecycle state machine from §4.4.
type State int

const (
	StateInit1Step0 State = iota
	StateInit1Step2
	StateInit1Step4
	StateInit1Step6
	StateInit1Step8
	StateConnected
	StateDisconnecting
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateInit1Step0:
		return "Init1Step0"
	case StateInit1Step2:
		return "Init1Step2"
	case StateInit1Step4:
		return "Init1Step4"
	case StateInit1Step6:
		return "Init1Step6"
	case StateInit1Step8:
		return "Init1Step8"
	case StateConnected:
		return "Connected"
	case StateDisconnecting:
		return "Disconnecting"
	case StateDisconnected:
		return "Disconnected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Connecting reports whether s is one of the Init1Step* substates.
func (s State) Connecting() bool {
	return s >= StateInit1Step0 && s <= StateInit1Step8
}
