// Package metrics exposes prometheus collectors for the core's internal
// counters: history occupancy, heartbeat/acknack traffic, dropped
// datagrams. Instrumentation only — no HTTP exposition server, which
// belongs to an outer layer per spec.md §1.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// HistorySize reports the current change count of a HistoryCache,
	// labeled by the owning endpoint's GUID string.
	HistorySize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "rtps",
		Subsystem: "history",
		Name:      "size",
		Help:      "Number of CacheChanges currently held by an endpoint's history.",
	}, []string{"endpoint"})

	// HeartbeatsSent counts HEARTBEAT submessages emitted by a writer.
	HeartbeatsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rtps",
		Subsystem: "writer",
		Name:      "heartbeats_sent_total",
		Help:      "Total HEARTBEAT submessages emitted by a stateful writer.",
	}, []string{"endpoint"})

	// AckNacksSent counts ACKNACK submessages emitted by a reader.
	AckNacksSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rtps",
		Subsystem: "reader",
		Name:      "acknacks_sent_total",
		Help:      "Total ACKNACK submessages emitted by a stateful reader.",
	}, []string{"endpoint"})

	// DatagramsDropped counts datagrams discarded by the MessageReceiver
	// or Transport, labeled by the reason (e.g. "parse_error", "transport").
	DatagramsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rtps",
		Subsystem: "receiver",
		Name:      "datagrams_dropped_total",
		Help:      "Total inbound datagrams dropped before full processing.",
	}, []string{"reason"})
)

// MustRegister registers every collector in this package against reg (its
// own registry or prometheus.DefaultRegisterer), once per process;
// participant.New does not call it. Tests typically use a fresh
// prometheus.NewRegistry() to avoid cross-test collisions.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(HistorySize, HeartbeatsSent, AckNacksSent, DatagramsDropped)
}
