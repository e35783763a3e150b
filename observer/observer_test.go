package observer

import (
	"testing"

	"github.com/imxeno/tsclientlib/internal/command"
)

func TestOnInCommandIdempotentReplace(t *testing.T) {
	r := New()
	var calls []string
	r.OnInCommand("k", func(cmd *command.Command) { calls = append(calls, "first") })
	r.OnInCommand("k", func(cmd *command.Command) { calls = append(calls, "second") })

	r.FireInCommand(&command.Command{Name: "cmd"})
	if len(calls) != 1 || calls[0] != "second" {
		t.Fatalf("expected only the replacement handler to fire, got %v", calls)
	}
}

func TestOnInCommandOrderedRegistration(t *testing.T) {
	r := New()
	var order []string
	r.OnInCommand("a", func(cmd *command.Command) { order = append(order, "a") })
	r.OnInCommand("b", func(cmd *command.Command) { order = append(order, "b") })

	r.FireInCommand(&command.Command{})
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestRemoveUnregistersAcrossAllTaps(t *testing.T) {
	r := New()
	fired := false
	r.OnInUdpPacket("k", func(raw []byte) { fired = true })
	r.Remove("k")
	r.FireInUdpPacket([]byte("x"))
	if fired {
		t.Fatalf("expected handler to be removed")
	}
}
