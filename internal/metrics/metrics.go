// Package metrics instruments the fabric relay loop, grounded on
// drand-drand's internal/metrics package: counters held by each
// Registry value and registered onto its private prometheus.Registry
// rather than the
// global default one, so each simulation run (and each test) gets an
// isolated set of counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Registry bundles the counters the fabric updates while relaying a
// single broadcast instance.
type Registry struct {
	reg *prometheus.Registry

	// EnvelopesRelayed counts protocol envelopes successfully
	// delivered to a still-live recipient.
	EnvelopesRelayed prometheus.Counter

	// EnvelopesDropped counts envelopes addressed to a participant
	// that had already terminated (spec.md §6's "dropped messages"),
	// plus every envelope discarded while the fabric shuts down.
	EnvelopesDropped prometheus.Counter

	// HonestTerminations counts END(v) notices received from honest
	// participants: one per honest participant that delivers, so at
	// most N-B per run.
	HonestTerminations prometheus.Counter
}

// NewRegistry builds a fresh, independently-registered Registry.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		EnvelopesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bracha_envelopes_relayed_total",
			Help: "Number of protocol envelopes relayed to a live participant.",
		}),
		EnvelopesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bracha_envelopes_dropped_total",
			Help: "Number of envelopes dropped because their recipient had already terminated or the fabric was shutting down.",
		}),
		HonestTerminations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bracha_honest_terminations_total",
			Help: "Number of END notices received from honest participants.",
		}),
	}
	reg.MustRegister(r.EnvelopesRelayed, r.EnvelopesDropped, r.HonestTerminations)
	return r
}

// Gather exposes the underlying registry for callers that want to
// export it (e.g. via promhttp), without forcing every caller to link
// an HTTP server — no component in this simulation runs one.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.reg.Gather()
}
