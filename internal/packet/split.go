package packet

// MaxPayloadBytes is the largest plaintext payload carried in a single
// non-fragmented COMMAND/COMMAND_LOW packet, chosen to stay clear of
// typical path MTUs once header and EAX tag overhead are added.
const MaxPayloadBytes = 487

// Fragment is one chunk of a Split payload.
type Fragment struct {
	Data       []byte
	Fragmented bool // FRAGMENTED flag to stamp on this chunk's packet
}

// Split breaks payload into one or more fragments no larger than
// MaxPayloadBytes. FRAGMENTED is set on the first and last fragment only,
// clear on any in between, per §4.3. A payload that already fits in one
// packet returns a single non-fragmented chunk.
func Split(payload []byte) []Fragment {
	if len(payload) <= MaxPayloadBytes {
		return []Fragment{{Data: payload}}
	}

	var out []Fragment
	for off := 0; off < len(payload); off += MaxPayloadBytes {
		end := off + MaxPayloadBytes
		if end > len(payload) {
			end = len(payload)
		}
		out = append(out, Fragment{Data: payload[off:end]})
	}
	out[0].Fragmented = true
	out[len(out)-1].Fragmented = true
	return out
}
