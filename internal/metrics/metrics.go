// Package metrics defines Prometheus metrics for the persistor.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "persistor_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persistor_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persistor_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	EmbedQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "persistor_embed_queue_depth",
			Help: "Current embedding queue depth",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "persistor_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)

	ConceptCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "persistor_concepts_total",
			Help: "Total concept count",
		},
	)

	RelationCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "persistor_relations_total",
			Help: "Total relation count",
		},
	)

	RouterDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persistor_router_dispatch_total",
			Help: "Query Router dispatches by intent branch and outcome",
		},
		[]string{"branch", "outcome"},
	)

	QuotaAdmitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persistor_quota_admit_total",
			Help: "Quota Gate admission decisions by resource and outcome",
		},
		[]string{"resource", "decision"},
	)

	EvolutionPhase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "persistor_evolution_phase",
			Help: "Current evolution phase per tenant (0=relational, 1=transition, 2=semantic)",
		},
		[]string{"tenant_id"},
	)

	SyncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persistor_sync_runs_total",
			Help: "Synchronizer runs by direction and outcome",
		},
		[]string{"direction", "outcome"},
	)

	SyncQuarantineDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "persistor_sync_quarantine_depth",
			Help: "Current quarantined sync record count across tenants",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		EmbedQueueDepth, WSConnections,
		ConceptCount, RelationCount,
		RouterDispatchTotal, QuotaAdmitTotal, EvolutionPhase,
		SyncRunsTotal, SyncQuarantineDepth,
	)
}
