package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricPrefix = "equipment_"

	resultSuccess = "success"
	resultError   = "error"

	seedResultInserted = "inserted"
	seedResultSkipped  = "skipped"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	importRows    *prometheus.CounterVec
	importLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	seedRuns *prometheus.CounterVec
)

// Init registers the collectors. source may be nil, in which case the
// calibration status gauge is not exported.
func Init(source StatusSource, logger *zap.Logger) {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		)

		importRows = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "import_rows_total",
				Help: "Spreadsheet rows imported by entity and result",
			},
			[]string{"entity", "result"},
		)
		importLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "import_latency_seconds",
				Help:    "Spreadsheet import latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"entity", "result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total exports by kind, format and result",
			},
			[]string{"kind", "format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "format", "result"},
		)

		seedRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "seed_runs_total",
				Help: "Reference data seed runs by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			importRows,
			importLatency,
			exportTotal,
			exportLatency,
			seedRuns,
		)

		if source != nil {
			prometheus.MustRegister(newCalibrationCollector(source, logger))
		}
	})
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(route, method string, status int, duration time.Duration) {
	if route == "" {
		route = "unknown"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(route, method).Observe(duration.Seconds())
	}
}

// ObserveImport records imported and failed rows for one batch.
func ObserveImport(entity string, imported, failed int, duration time.Duration, err error) {
	if entity == "" {
		entity = "unknown"
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if importRows != nil {
		if imported > 0 {
			importRows.WithLabelValues(entity, resultSuccess).Add(float64(imported))
		}
		if failed > 0 {
			importRows.WithLabelValues(entity, resultError).Add(float64(failed))
		}
	}
	if importLatency != nil {
		importLatency.WithLabelValues(entity, result).Observe(duration.Seconds())
	}
}

// ObserveExport records export latency and result.
func ObserveExport(kind, format, result string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(kind, format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(kind, format, result).Observe(duration.Seconds())
	}
}

// IncSeedRun counts a seed attempt.
func IncSeedRun(result string) {
	if result == "" {
		result = "unknown"
	}
	if seedRuns != nil {
		seedRuns.WithLabelValues(result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	SeedResultInserted = seedResultInserted
	SeedResultSkipped  = seedResultSkipped
)
