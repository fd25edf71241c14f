// Package metrics exposes the two shared atomic outstanding counters of
// spec.md §3 (ack_eliciting_outstanding, crypto_outstanding) to Prometheus
// scrapers, grounded on the teacher's own use of
// github.com/prometheus/client_golang for connection-level metrics
// (metrics/metrics.go's prometheus.NewCounterVec/NewGaugeVec idiom).
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "qrecovery"

// OutstandingGauges mirrors the two atomic counters LossDetector keeps:
// they are updated under the loss-detection mutex every time the
// atomics change, so a Prometheus scrape and an in-process atomic read
// never observably disagree for longer than one mutex critical section.
type OutstandingGauges struct {
	AckEliciting prometheus.Gauge
	Crypto       prometheus.Gauge
}

// NewOutstandingGauges registers a fresh pair of gauges with registerer.
// Pass prometheus.DefaultRegisterer for the global registry, or a scoped
// one in tests to avoid duplicate-registration panics.
func NewOutstandingGauges(registerer prometheus.Registerer) *OutstandingGauges {
	g := &OutstandingGauges{
		AckEliciting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ack_eliciting_outstanding",
			Help:      "Number of tracked ack-eliciting packets awaiting ACK or loss declaration.",
		}),
		Crypto: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "crypto_outstanding",
			Help:      "Number of tracked CRYPTO-bearing packets awaiting ACK or loss declaration.",
		}),
	}
	registerer.MustRegister(g.AckEliciting, g.Crypto)
	return g
}
