package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instrumentation for build, search, and
// dynamic-update operations. Grounded on the teacher's
// pkg/observability/metrics.go (same promauto-constructed-struct shape,
// same Record*/Update* method pairing), generalized from request/cache/
// tenant metrics to the Vamana/IVF domain this module actually exposes.
type Metrics struct {
	// Build metrics
	BuildsTotal    prometheus.Counter
	BuildDuration  prometheus.Histogram
	BuildErrors    *prometheus.CounterVec

	// Search metrics
	SearchesTotal    *prometheus.CounterVec
	SearchLatency    *prometheus.HistogramVec
	SearchResultSize prometheus.Histogram

	// Dynamic-update metrics
	VectorsInserted   prometheus.Counter
	VectorsDeleted    prometheus.Counter
	ConsolidateTotal  prometheus.Counter
	ConsolidateLatency prometheus.Histogram
	CompactTotal      prometheus.Counter

	// Graph/index shape metrics
	GraphSize        *prometheus.GaugeVec
	GraphAvgDegree   *prometheus.GaugeVec
	IVFClusterSizeMin *prometheus.GaugeVec
	IVFClusterSizeMax *prometheus.GaugeVec

	// Thread pool metrics
	WorkerCrashesTotal prometheus.Counter
}

// NewMetrics creates and registers every metric this module emits.
func NewMetrics() *Metrics {
	return &Metrics{
		BuildsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "svs_builds_total",
			Help: "Total number of index build operations (Vamana or IVF)",
		}),
		BuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "svs_build_duration_seconds",
			Help:    "Index build duration in seconds",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 300, 900},
		}),
		BuildErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "svs_build_errors_total",
			Help: "Total number of build errors by index kind",
		}, []string{"kind"}),

		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "svs_searches_total",
			Help: "Total number of search operations by index kind",
		}, []string{"kind"}),
		SearchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "svs_search_latency_seconds",
			Help:    "Search latency in seconds by index kind",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"kind"}),
		SearchResultSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "svs_search_result_size",
			Help:    "Number of results returned by a search call",
			Buckets: []float64{1, 5, 10, 20, 50, 100, 200},
		}),

		VectorsInserted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "svs_vectors_inserted_total",
			Help: "Total number of vectors inserted via dynamic update",
		}),
		VectorsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "svs_vectors_deleted_total",
			Help: "Total number of vectors tombstoned via dynamic delete",
		}),
		ConsolidateTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "svs_consolidate_total",
			Help: "Total number of Consolidate operations run",
		}),
		ConsolidateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "svs_consolidate_latency_seconds",
			Help:    "Consolidate operation latency in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30},
		}),
		CompactTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "svs_compact_total",
			Help: "Total number of Compact operations run",
		}),

		GraphSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "svs_graph_size",
			Help: "Number of nodes in a Vamana graph by index name",
		}, []string{"index"}),
		GraphAvgDegree: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "svs_graph_avg_degree",
			Help: "Average out-degree of a Vamana graph by index name",
		}, []string{"index"}),
		IVFClusterSizeMin: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "svs_ivf_cluster_size_min",
			Help: "Smallest IVF cluster member count by index name",
		}, []string{"index"}),
		IVFClusterSizeMax: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "svs_ivf_cluster_size_max",
			Help: "Largest IVF cluster member count by index name",
		}, []string{"index"}),

		WorkerCrashesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "svs_threadpool_worker_crashes_total",
			Help: "Total number of StaticPartition worker goroutines that returned an error",
		}),
	}
}

// RecordBuild records a completed build operation.
func (m *Metrics) RecordBuild(duration time.Duration) {
	m.BuildsTotal.Inc()
	m.BuildDuration.Observe(duration.Seconds())
}

// RecordBuildError records a failed build for the given index kind ("vamana" or "ivf").
func (m *Metrics) RecordBuildError(kind string) {
	m.BuildErrors.WithLabelValues(kind).Inc()
}

// RecordSearch records a completed search call.
func (m *Metrics) RecordSearch(kind string, duration time.Duration, resultSize int) {
	m.SearchesTotal.WithLabelValues(kind).Inc()
	m.SearchLatency.WithLabelValues(kind).Observe(duration.Seconds())
	m.SearchResultSize.Observe(float64(resultSize))
}

// RecordInsert records a dynamic-update insert.
func (m *Metrics) RecordInsert(count int) { m.VectorsInserted.Add(float64(count)) }

// RecordDelete records a dynamic-update delete.
func (m *Metrics) RecordDelete(count int) { m.VectorsDeleted.Add(float64(count)) }

// RecordConsolidate records a completed Consolidate call.
func (m *Metrics) RecordConsolidate(duration time.Duration) {
	m.ConsolidateTotal.Inc()
	m.ConsolidateLatency.Observe(duration.Seconds())
}

// RecordCompact records a completed Compact call.
func (m *Metrics) RecordCompact() { m.CompactTotal.Inc() }

// UpdateGraphShape updates the graph-size and average-degree gauges for a
// named index, computed from the current average out-degree across rows.
func (m *Metrics) UpdateGraphShape(index string, size int, totalDegree int) {
	m.GraphSize.WithLabelValues(index).Set(float64(size))
	avg := 0.0
	if size > 0 {
		avg = float64(totalDegree) / float64(size)
	}
	m.GraphAvgDegree.WithLabelValues(index).Set(avg)
}

// UpdateIVFClusterSizes updates the min/max cluster-size gauges for a named
// IVF index.
func (m *Metrics) UpdateIVFClusterSizes(index string, min, max int) {
	m.IVFClusterSizeMin.WithLabelValues(index).Set(float64(min))
	m.IVFClusterSizeMax.WithLabelValues(index).Set(float64(max))
}

// RecordWorkerCrash records a StaticPartition worker returning an error.
func (m *Metrics) RecordWorkerCrash() { m.WorkerCrashesTotal.Inc() }
