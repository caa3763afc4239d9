package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "argo_signal"

// Fetch attempt outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeEmpty   = "empty"
	OutcomePanic   = "panic"
)

// Recorder collects engine metrics on its own registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry            *prometheus.Registry
	fetchAttempts       *prometheus.CounterVec
	fetchLatency        *prometheus.HistogramVec
	sourceUnavailable   prometheus.Counter
	decisions           *prometheus.CounterVec
	cooldownRejections  *prometheus.CounterVec
	tradeModeRejections *prometheus.CounterVec
	scanDuration        prometheus.Histogram
	symbolPanics        prometheus.Counter
}

// New creates a Prometheus metrics recorder with a private registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		fetchAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_attempts_total",
				Help:      "Candle source attempts by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		fetchLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of candle source attempts in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		sourceUnavailable: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_unavailable_total",
				Help:      "Fetches where every candle source failed",
			},
		),
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Signal decisions by mode and signal",
			},
			[]string{"mode", "signal"},
		),
		cooldownRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cooldown_rejections_total",
				Help:      "Candidate signals suppressed by the cooldown ledger",
			},
			[]string{"mode"},
		),
		tradeModeRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trade_mode_rejections_total",
				Help:      "Candidate signals suppressed by the trade mode",
			},
			[]string{"mode"},
		),
		scanDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scan_duration_seconds",
				Help:      "Duration of one scan over all symbols",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
			},
		),
		symbolPanics: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "symbol_panics_total",
				Help:      "Symbols whose processing panicked and was recovered",
			},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}

	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordFetchAttempt records one candle source attempt.
func (r *Recorder) RecordFetchAttempt(source, outcome string, d time.Duration) {
	if r == nil {
		return
	}

	r.fetchAttempts.WithLabelValues(source, outcome).Inc()
	r.fetchLatency.WithLabelValues(source).Observe(d.Seconds())
}

// RecordSourceUnavailable records a fetch where the whole chain was exhausted.
func (r *Recorder) RecordSourceUnavailable() {
	if r == nil {
		return
	}

	r.sourceUnavailable.Inc()
}

// RecordDecision records an arbitration outcome.
func (r *Recorder) RecordDecision(mode, signal string) {
	if r == nil {
		return
	}

	r.decisions.WithLabelValues(mode, signal).Inc()
}

// RecordCooldownRejection records a candidate blocked by the ledger.
func (r *Recorder) RecordCooldownRejection(mode string) {
	if r == nil {
		return
	}

	r.cooldownRejections.WithLabelValues(mode).Inc()
}

// RecordTradeModeRejection records a candidate blocked by the trade mode.
func (r *Recorder) RecordTradeModeRejection(mode string) {
	if r == nil {
		return
	}

	r.tradeModeRejections.WithLabelValues(mode).Inc()
}

// RecordScan records the duration of a full scan.
func (r *Recorder) RecordScan(d time.Duration) {
	if r == nil {
		return
	}

	r.scanDuration.Observe(d.Seconds())
}

// RecordSymbolPanic records a recovered panic while processing a symbol.
func (r *Recorder) RecordSymbolPanic() {
	if r == nil {
		return
	}

	r.symbolPanics.Inc()
}
