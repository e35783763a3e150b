package tserr

import "testing"

func TestNameForCodeKnown(t *testing.T) {
	name, ok := NameForCode(0x0401)
	if !ok {
		t.Fatalf("expected 0x0401 to be known")
	}
	if name != "client_nickname_inuse" {
		t.Errorf("name = %q, want client_nickname_inuse", name)
	}
}

func TestNameForCodeUnknown(t *testing.T) {
	if _, ok := NameForCode(0xdead); ok {
		t.Fatalf("expected unknown code to report ok=false")
	}
}

func TestServerFillsMessageFromTable(t *testing.T) {
	err := Server(0x0401, "", "")
	if err.Message != "client_nickname_inuse" {
		t.Errorf("Message = %q, want client_nickname_inuse", err.Message)
	}
}

func TestServerKeepsExplicitMessage(t *testing.T) {
	err := Server(0x0401, "nickname already in use", "")
	if err.Message != "nickname already in use" {
		t.Errorf("Message = %q, want explicit message preserved", err.Message)
	}
}
