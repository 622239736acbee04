package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// track-analysis pipeline and its HTTP API.
type Metrics struct {
	MessagesConsumed   prometheus.Counter
	SummariesPublished prometheus.Counter
	ParseErrors        prometheus.Counter
	PipelineRunning    prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Track assembly metrics.
	PointsStored     prometheus.Counter
	TracksAssembled  prometheus.Gauge
	AssemblyDuration prometheus.Histogram

	// Network analysis metrics.
	RouteRequests      *prometheus.CounterVec // labels: outcome={success,no_route,error}
	CentralityRequests *prometheus.CounterVec // labels: measure={degree,betweenness,closeness}
	RouteDuration      prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_tracks",
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the source topic.",
		}),
		SummariesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_tracks",
			Name:      "summaries_published_total",
			Help:      "Total track summaries written to the sink topic.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_tracks",
			Name:      "parse_errors_total",
			Help:      "Total events dropped because their payload could not be parsed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_tracks",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_tracks",
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_tracks",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch parse-store-assemble-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		PointsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_tracks",
			Name:      "points_stored_total",
			Help:      "Total new track points persisted (replayed events excluded).",
		}),
		TracksAssembled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_tracks",
			Name:      "tracks_assembled",
			Help:      "Tracks produced by the most recent assembly pass.",
		}),
		AssemblyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_tracks",
			Name:      "assembly_duration_seconds",
			Help:      "Duration of one track reassembly pass.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		RouteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_tracks",
			Name:      "route_requests_total",
			Help:      "Network route requests by outcome.",
		}, []string{"outcome"}),
		CentralityRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_tracks",
			Name:      "centrality_requests_total",
			Help:      "Centrality requests by measure.",
		}, []string{"measure"}),
		RouteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_tracks",
			Name:      "route_duration_seconds",
			Help:      "Shortest-path computation duration in seconds.",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.SummariesPublished,
		m.ParseErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.PointsStored,
		m.TracksAssembled,
		m.AssemblyDuration,
		m.RouteRequests,
		m.CentralityRequests,
		m.RouteDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		MessagesConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_tracks", Name: "messages_consumed_total"}),
		SummariesPublished:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_tracks", Name: "summaries_published_total"}),
		ParseErrors:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_tracks", Name: "parse_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "storm_tracks", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "storm_tracks", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "storm_tracks", Name: "batch_processing_duration_seconds"}),
		PointsStored:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_tracks", Name: "points_stored_total"}),
		TracksAssembled:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "storm_tracks", Name: "tracks_assembled"}),
		AssemblyDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "storm_tracks", Name: "assembly_duration_seconds"}),
		RouteRequests:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "storm_tracks", Name: "route_requests_total"}, []string{"outcome"}),
		CentralityRequests:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "storm_tracks", Name: "centrality_requests_total"}, []string{"measure"}),
		RouteDuration:           prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "storm_tracks", Name: "route_duration_seconds"}),
	}
}
