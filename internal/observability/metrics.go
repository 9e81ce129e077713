package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "carwash_ops"

// Metrics holds the Prometheus counters, histograms, and gauges for the planning pipeline.
type Metrics struct {
	RunsTotal         *prometheus.CounterVec // labels: outcome={success,invalid_input,error}
	RowsAccepted      prometheus.Counter
	RowsRejected      *prometheus.CounterVec // labels: field={timestamp,amount,row}
	RunDuration       prometheus.Histogram
	DegradedForecasts prometheus.Counter
	PipelineReady     prometheus.Gauge

	// Weather provider metrics.
	WeatherRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	WeatherCache       *prometheus.CounterVec // labels: result={hit,miss}
	WeatherAPIDuration prometheus.Histogram
	WeatherEnabled     prometheus.Gauge

	// Report publishing metrics.
	ReportsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Planning runs by outcome.",
		}, []string{"outcome"}),
		RowsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_accepted_total",
			Help:      "Transaction rows that passed normalization.",
		}),
		RowsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_rejected_total",
			Help:      "Transaction rows excluded during normalization, by offending field.",
		}, []string{"field"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete planning run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		DegradedForecasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_forecasts_total",
			Help:      "Forecasts produced without live weather data.",
		}),
		PipelineReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_ready",
			Help:      "1 when the pipeline accepts runs, 0 when shut down.",
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_requests_total",
			Help:      "Weather forecast requests by outcome.",
		}, []string{"outcome"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_total",
			Help:      "Weather cache lookups by result.",
		}, []string{"result"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_api_duration_seconds",
			Help:      "Open-Meteo API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		WeatherEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weather_enabled",
			Help:      "1 when live weather adjustment is enabled, 0 otherwise.",
		}),
		ReportsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Reports written to the report topic by outcome.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RowsAccepted,
		m.RowsRejected,
		m.RunDuration,
		m.DegradedForecasts,
		m.PipelineReady,
		m.WeatherRequests,
		m.WeatherCache,
		m.WeatherAPIDuration,
		m.WeatherEnabled,
		m.ReportsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "runs_total"}, []string{"outcome"}),
		RowsAccepted:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "rows_accepted_total"}),
		RowsRejected:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "rows_rejected_total"}, []string{"field"}),
		RunDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "run_duration_seconds"}),
		DegradedForecasts:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "degraded_forecasts_total"}),
		PipelineReady:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_ready"}),
		WeatherRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "weather_requests_total"}, []string{"outcome"}),
		WeatherCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "weather_cache_total"}, []string{"result"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "weather_api_duration_seconds"}),
		WeatherEnabled:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "weather_enabled"}),
		ReportsPublished:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "reports_published_total"}, []string{"outcome"}),
	}
}
