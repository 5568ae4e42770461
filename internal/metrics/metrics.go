// Package metrics provides the centralized Prometheus registry for the engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	MarketsNormalizedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "markets_normalized_total",
		Help:      "Total number of outcomes normalized into canonical markets",
	})
	MarketsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "markets_skipped_total",
		Help:      "Total number of outcomes dropped at normalization",
	}, []string{"reason"})
	SimulationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "simulations_total",
		Help:      "Total number of Monte Carlo simulations run",
	})
	EvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "evaluations_total",
		Help:      "Total number of board evaluations per sport",
	}, []string{"sport"})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "cache_hits_total",
		Help:      "Total number of result cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "cache_misses_total",
		Help:      "Total number of result cache misses, including expiries",
	})
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "provider_requests_total",
		Help:      "Total number of odds provider requests by status",
	}, []string{"status"})
)

// Gauge metrics
var (
	CacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "prop_edge",
		Name:      "cache_hit_ratio",
		Help:      "Rolling hit ratio of the result cache",
	})
	BoardSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "prop_edge",
		Name:      "board_size",
		Help:      "Number of evaluated markets on the latest board per sport",
	}, []string{"sport"})
	StreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "prop_edge",
		Name:      "stream_clients",
		Help:      "Number of connected websocket clients",
	})
)

// Histogram metrics
var (
	SimulationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "prop_edge",
		Name:      "simulation_duration_seconds",
		Help:      "Duration of a single market simulation in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
	EvaluationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "prop_edge",
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of a full board evaluation in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	ProviderRequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "prop_edge",
		Name:      "provider_request_duration_seconds",
		Help:      "Duration of odds provider requests in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(MarketsNormalizedTotal)
		registry.MustRegister(MarketsSkippedTotal)
		registry.MustRegister(SimulationsTotal)
		registry.MustRegister(EvaluationsTotal)
		registry.MustRegister(CacheHitsTotal)
		registry.MustRegister(CacheMissesTotal)
		registry.MustRegister(ProviderRequestsTotal)

		registry.MustRegister(CacheHitRatio)
		registry.MustRegister(BoardSize)
		registry.MustRegister(StreamClients)

		registry.MustRegister(SimulationDuration)
		registry.MustRegister(EvaluationDuration)
		registry.MustRegister(ProviderRequestDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordNormalizedMarket records one normalized outcome.
func RecordNormalizedMarket() {
	MarketsNormalizedTotal.Inc()
}

// RecordSkippedMarket records one dropped outcome with the drop reason.
func RecordSkippedMarket(reason string) {
	MarketsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordSimulation records one simulation run.
func RecordSimulation(durationSeconds float64) {
	SimulationsTotal.Inc()
	SimulationDuration.Observe(durationSeconds)
}

// RecordEvaluation records one full board evaluation.
func RecordEvaluation(sport string, durationSeconds float64, boardSize int) {
	EvaluationsTotal.WithLabelValues(sport).Inc()
	EvaluationDuration.Observe(durationSeconds)
	BoardSize.WithLabelValues(sport).Set(float64(boardSize))
}

// RecordProviderRequest records one provider call by status code.
func RecordProviderRequest(status string, durationSeconds float64) {
	ProviderRequestsTotal.WithLabelValues(status).Inc()
	ProviderRequestDuration.Observe(durationSeconds)
}
