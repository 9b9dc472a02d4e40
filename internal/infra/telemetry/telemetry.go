package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes Prometheus counters for revocation engine operations.
// It satisfies the engine's metrics interface.
type Metrics struct {
	checksAllowed prometheus.Counter
	checksRevoked prometheus.Counter
	storeErrors   prometheus.Counter
	revocations   prometheus.Counter
	purges        prometheus.Counter
}

// NewMetrics registers the engine counters on the default registry.
func NewMetrics() *Metrics {
	checks := promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "token_gate",
		Name:      "checks_total",
		Help:      "Total number of revocation checks by verdict",
	}, []string{"verdict"})

	return &Metrics{
		checksAllowed: checks.WithLabelValues("allowed"),
		checksRevoked: checks.WithLabelValues("revoked"),
		storeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "token_gate",
			Name:      "store_errors_total",
			Help:      "Total number of revocation store failures",
		}),
		revocations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "token_gate",
			Name:      "revocations_total",
			Help:      "Total number of single-token revocations written",
		}),
		purges: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "token_gate",
			Name:      "purges_total",
			Help:      "Total number of subject-wide purges written",
		}),
	}
}

// IncCheckAllowed counts a check that passed the token.
func (m *Metrics) IncCheckAllowed() { m.checksAllowed.Inc() }

// IncCheckRevoked counts a check that rejected the token.
func (m *Metrics) IncCheckRevoked() { m.checksRevoked.Inc() }

// IncStoreError counts a failed store read or write.
func (m *Metrics) IncStoreError() { m.storeErrors.Inc() }

// IncRevoke counts a persisted single-token revocation.
func (m *Metrics) IncRevoke() { m.revocations.Inc() }

// IncPurge counts a persisted subject-wide purge.
func (m *Metrics) IncPurge() { m.purges.Inc() }
