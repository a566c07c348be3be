// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "trendgraph"

// Metrics holds the counters and gauges of one crawl run. Each Metrics owns
// its registry, so runs and tests never share state.
type Metrics struct {
	registry *prometheus.Registry

	// SourceRequests counts HTTP attempts, labeled by source and endpoint.
	SourceRequests *prometheus.CounterVec

	// SourceFailures counts provider calls that failed after retries,
	// labeled by source and endpoint.
	SourceFailures *prometheus.CounterVec

	// QuotaWaits counts quota window suspensions, labeled by source.
	QuotaWaits *prometheus.CounterVec

	// QuotaWaitSeconds accumulates the time spent suspended, labeled by source.
	QuotaWaitSeconds *prometheus.CounterVec

	// ResolverMerges counts entity cluster merges.
	ResolverMerges prometheus.Counter

	// RecordsSkipped counts records dropped for lack of a provider id.
	RecordsSkipped *prometheus.CounterVec

	// GraphNodes is the exported node count, labeled by kind (paper, stub, author).
	GraphNodes *prometheus.GaugeVec

	// GraphEdges is the exported edge count, labeled by type.
	GraphEdges *prometheus.GaugeVec
}

// NewMetrics creates the metrics on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SourceRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "HTTP requests sent to paper sources.",
		}, []string{"source", "endpoint"}),
		SourceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Paper source calls that failed after retries.",
		}, []string{"source", "endpoint"}),
		QuotaWaits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_waits_total",
			Help:      "Suspensions caused by an exhausted daily quota.",
		}, []string{"source"}),
		QuotaWaitSeconds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_wait_seconds_total",
			Help:      "Time spent suspended on an exhausted daily quota.",
		}, []string{"source"}),
		ResolverMerges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_merges_total",
			Help:      "Entity clusters absorbed into an older cluster.",
		}),
		RecordsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Provider records skipped because they carry no provider id.",
		}, []string{"source"}),
		GraphNodes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Exported graph nodes by kind.",
		}, []string{"kind"}),
		GraphEdges: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Exported graph edges by type.",
		}, []string{"type"}),
	}
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest counts one HTTP attempt.
func (m *Metrics) ObserveRequest(source, endpoint string) {
	m.SourceRequests.WithLabelValues(source, endpoint).Inc()
}

// ObserveFailure counts one failed provider call.
func (m *Metrics) ObserveFailure(source, endpoint string) {
	m.SourceFailures.WithLabelValues(source, endpoint).Inc()
}

// ObserveSkipped counts skipped records.
func (m *Metrics) ObserveSkipped(source string, n int) {
	m.RecordsSkipped.WithLabelValues(source).Add(float64(n))
}

// QuotaWaitHook returns a rate limiter wait hook recording suspensions for source.
func (m *Metrics) QuotaWaitHook(source string) func(time.Duration) {
	return func(d time.Duration) {
		m.QuotaWaits.WithLabelValues(source).Inc()
		m.QuotaWaitSeconds.WithLabelValues(source).Add(d.Seconds())
	}
}

// ObserveMerge counts one resolver merge. It matches the resolver merge hook.
func (m *Metrics) ObserveMerge(survivor, absorbed string) {
	m.ResolverMerges.Inc()
}

// SetGraphCounts records the exported dataset size.
func (m *Metrics) SetGraphCounts(c types.DatasetCounts) {
	m.GraphNodes.WithLabelValues("paper").Set(float64(c.Papers - c.Stubs))
	m.GraphNodes.WithLabelValues("stub").Set(float64(c.Stubs))
	m.GraphNodes.WithLabelValues("author").Set(float64(c.Authors))
	m.GraphEdges.WithLabelValues(string(types.EdgeWrote)).Set(float64(c.Wrote))
	m.GraphEdges.WithLabelValues(string(types.EdgeCites)).Set(float64(c.Cites))
	m.GraphEdges.WithLabelValues(string(types.EdgeRelated)).Set(float64(c.Related))
}

// WriteTextfile writes every metric to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
