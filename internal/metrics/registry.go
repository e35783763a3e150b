package metrics

import "sync"

// Registry holds all metrics for one connection, keyed by name. Metrics are
// created on first access (get-or-create semantics).
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
	}
}

// Counter returns the Counter registered under name, creating it if needed.
func (r *Registry) Counter(name string) *Counter {
	r.mu.RLock()
	c, ok := r.counters[name]
	r.mu.RUnlock()
	if ok {
		return c
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok = r.counters[name]; ok {
		return c
	}
	c = NewCounter(name)
	r.counters[name] = c
	return c
}

// Gauge returns the Gauge registered under name, creating it if needed.
func (r *Registry) Gauge(name string) *Gauge {
	r.mu.RLock()
	g, ok := r.gauges[name]
	r.mu.RUnlock()
	if ok {
		return g
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok = r.gauges[name]; ok {
		return g
	}
	g = NewGauge(name)
	r.gauges[name] = g
	return g
}

// Snapshot is the cheap point-in-time counter view carried over from the
// original implementation's packet statistics (SPEC_FULL §12): plain
// struct, no scrape format, for callers that just want current numbers.
type Snapshot struct {
	PacketsSent        map[string]int64
	PacketsReceived    map[string]int64
	BytesSent          int64
	BytesReceived      int64
	Retransmits        int64
	OutOfOrder         int64
	Duplicates         int64
	FragmentBuffersOpen int64
}

// Well-known metric names used by the connection and packet layers.
const (
	MetricBytesSent          = "ts3_bytes_sent_total"
	MetricBytesReceived      = "ts3_bytes_received_total"
	MetricRetransmits        = "ts3_retransmits_total"
	MetricOutOfOrder         = "ts3_out_of_order_total"
	MetricDuplicates         = "ts3_duplicates_total"
	MetricFragmentBuffersOpen = "ts3_fragment_buffers_open"
	MetricBookClients        = "ts3_book_clients"
	MetricBookChannels       = "ts3_book_channels"
	packetsSentPrefix        = "ts3_packets_sent_"
	packetsRecvPrefix        = "ts3_packets_received_"
)

// PacketSentName returns the per-type packets-sent counter name.
func PacketSentName(typ string) string { return packetsSentPrefix + typ }

// PacketReceivedName returns the per-type packets-received counter name.
func PacketReceivedName(typ string) string { return packetsRecvPrefix + typ }

// Snapshot takes a point-in-time copy of the metrics this package knows how
// to categorize by name; unrecognized gauges/counters are omitted (a scrape
// exporter would enumerate everything, but this is meant for quick
// diagnostics, not monitoring).
func (r *Registry) Snapshot(packetTypes []string) Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Snapshot{
		PacketsSent:     make(map[string]int64, len(packetTypes)),
		PacketsReceived: make(map[string]int64, len(packetTypes)),
	}
	for _, t := range packetTypes {
		if c, ok := r.counters[PacketSentName(t)]; ok {
			s.PacketsSent[t] = c.Value()
		}
		if c, ok := r.counters[PacketReceivedName(t)]; ok {
			s.PacketsReceived[t] = c.Value()
		}
	}
	if c, ok := r.counters[MetricBytesSent]; ok {
		s.BytesSent = c.Value()
	}
	if c, ok := r.counters[MetricBytesReceived]; ok {
		s.BytesReceived = c.Value()
	}
	if c, ok := r.counters[MetricRetransmits]; ok {
		s.Retransmits = c.Value()
	}
	if c, ok := r.counters[MetricOutOfOrder]; ok {
		s.OutOfOrder = c.Value()
	}
	if c, ok := r.counters[MetricDuplicates]; ok {
		s.Duplicates = c.Value()
	}
	if g, ok := r.gauges[MetricFragmentBuffersOpen]; ok {
		s.FragmentBuffersOpen = g.Value()
	}
	return s
}
