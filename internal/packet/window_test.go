package packet

import "testing"

func TestCounterNextIncrements(t *testing.T) {
	var c counter
	p0, g0 := c.next()
	p1, g1 := c.next()
	if p0 != 0 || p1 != 1 || g0 != g1 {
		t.Fatalf("got (%d,%d) then (%d,%d)", p0, g0, p1, g1)
	}
}

func TestCounterNextWrapsGeneration(t *testing.T) {
	c := counter{pid: 0xffff, have: true}
	pid, gen := c.next()
	if pid != 0 || gen != 1 {
		t.Fatalf("pid=%d gen=%d, want 0,1", pid, gen)
	}
}

func TestCounterAcceptRejectsDuplicate(t *testing.T) {
	var c counter
	if !c.accept(5, 0) {
		t.Fatalf("first accept of pid 5 should succeed")
	}
	if c.accept(5, 0) {
		t.Fatalf("duplicate pid 5 should be rejected")
	}
}

func TestCounterAcceptAllowsReorderWithinWindow(t *testing.T) {
	var c counter
	c.accept(10, 0)
	if !c.accept(8, 0) {
		t.Fatalf("pid 8 should be accepted as an in-window reorder")
	}
	if c.accept(8, 0) {
		t.Fatalf("re-delivering pid 8 should be rejected")
	}
}

func TestCounterAcceptRejectsStaleGeneration(t *testing.T) {
	var c counter
	c.accept(5, 3)
	if c.accept(5, 2) {
		t.Fatalf("pid from an older generation must be rejected")
	}
}
