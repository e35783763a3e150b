package packet

// windowSize is the span of the sliding receive window: a PID more than
// this far behind the highest PID seen is treated as too old and rejected
// as a duplicate rather than risking an unbounded bitmap (§4.3).
const windowSize = 128

// counter tracks one (direction, type) packet ID stream: a 16-bit PID that
// wraps into a generation counter, plus — on the receive side — a sliding
// bitmap of recently-seen PIDs used to reject duplicates and detect
// reordering (§3 "Per-type counter window").
type counter struct {
	generation uint32
	pid        uint16 // last PID issued (send) or highest PID seen (receive)
	have       bool   // false until the first packet has been seen/sent
	seen       [windowSize]bool
}

// next advances a send-side counter and returns the PID/generation to
// stamp on the outgoing packet.
func (c *counter) next() (pid uint16, generation uint32) {
	if !c.have {
		c.have = true
		return c.pid, c.generation
	}
	pid = c.pid + 1
	generation = c.generation
	if pid == 0 {
		generation++
	}
	c.pid, c.generation = pid, generation
	return pid, generation
}

// accept validates and records a received PID for this stream, returning
// false if it is a duplicate or falls outside the sliding window.
func (c *counter) accept(pid uint16, generation uint32) bool {
	if !c.have {
		c.have = true
		c.pid, c.generation = pid, generation
		c.seen[pid%windowSize] = true
		return true
	}
	if generation < c.generation {
		return false
	}
	if generation == c.generation && seqLess(pid, c.pid) {
		diff := c.pid - pid
		if uint32(diff) > windowSize {
			return false
		}
		if c.seen[pid%windowSize] {
			return false
		}
		c.seen[pid%windowSize] = true
		return true
	}
	// pid is new-highest (possibly after a generation bump): clear the
	// window slots strictly between the old and new highest so old PIDs
	// reuse their slot cleanly, then record.
	var advance uint32
	if generation == c.generation {
		advance = uint32(pid - c.pid)
	} else {
		advance = uint32(pid) + (1 << 16) - uint32(c.pid)
	}
	if advance > windowSize {
		for i := range c.seen {
			c.seen[i] = false
		}
	} else {
		for i := uint32(1); i < advance; i++ {
			c.seen[(c.pid+uint16(i))%windowSize] = false
		}
	}
	c.pid, c.generation = pid, generation
	c.seen[pid%windowSize] = true
	return true
}

// seqLess reports whether a precedes b in 16-bit sequence-number space
// (i.e. a is "behind" b), using the standard half-range comparison.
func seqLess(a, b uint16) bool {
	return int16(a-b) < 0
}
